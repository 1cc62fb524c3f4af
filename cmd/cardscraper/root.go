package main

import (
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// appFs backs every file the CLI reads or writes.
var appFs = afero.NewOsFs()

func newRootCmd() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:   "cardscraper",
		Short: "Scrapes marketplace card listings into the all_cards table",
		Long: `cardscraper walks the marketplace search results page by page in a headless
browser, extracts each product card and upserts the cards into the all_cards table
keyed on (set_name, card_number, card_name).`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", "", "path to a .env file (default ./.env when present)")

	root.AddCommand(newRunCmd(&envFile))
	root.AddCommand(newExtractCmd())
	return root
}
