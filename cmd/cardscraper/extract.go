package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/user/card-scraper/internal/entity"
	"github.com/user/card-scraper/internal/extractor"
)

func newExtractCmd() *cobra.Command {
	var pageURL string

	cmd := &cobra.Command{
		Use:   "extract <page.html>",
		Short: "Extract cards from a saved results page",
		Long: `Extract runs the card extractor over a saved page, such as a debug_page_N.html
artifact, and prints every named card with its eligibility. Nothing is written to the store.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			markup, err := afero.ReadFile(appFs, args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}

			result, err := extractor.ExtractCards(string(markup), pageURL, time.Now())
			if err != nil {
				return err
			}
			renderCards(cmd.OutOrStdout(), result)
			return nil
		},
	}
	cmd.Flags().StringVar(&pageURL, "url", "https://www.tcgplayer.com/", "URL the page was saved from, used to resolve relative image URLs")
	return cmd
}

func renderCards(w io.Writer, result *extractor.Result) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"#", "Name", "Set", "Number", "Rarity", "Price", "Image", "Eligible"})

	for i, c := range result.Cards {
		t.AppendRow(table.Row{
			i + 1,
			c.CardName,
			c.SetName,
			c.CardNumber,
			c.RarityText,
			formatPrice(c.Price),
			c.ImageURL,
			c.Eligible(),
		})
	}

	t.AppendFooter(table.Row{
		"", fmt.Sprintf("%d elements", result.Elements), "", "", "", "", "",
		fmt.Sprintf("%d eligible", len(result.Eligible())),
	})
	t.SetStyle(table.StyleRounded)
	t.Render()
}

func formatPrice(p *float64) string {
	if p == nil {
		return entity.NotAvailable
	}
	return "$" + strconv.FormatFloat(*p, 'f', 2, 64)
}
