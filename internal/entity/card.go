package entity

import (
	"encoding/json"
	"strings"
	"time"
)

// NotAvailable marks a field that could not be extracted from the page.
const NotAvailable = "N/A"

const (
	// CardsTable is the table the scraper upserts into.
	CardsTable = "all_cards"
)

// ConflictKeys is the natural key of a row in CardsTable.
var ConflictKeys = []string{"set_name", "card_number", "card_name"}

// CardRecord is one product card as it was rendered on a search results page.
type CardRecord struct {
	CardName   string
	SetName    string
	CardNumber string
	RarityText string
	Price      *float64 // nil when the price is missing or unparsable
	ImageURL   string
	CapturedAt time.Time
}

// CardKey identifies a row in CardsTable.
type CardKey struct {
	SetName    string
	CardNumber string
	CardName   string
}

// Key returns the conflict key of the record.
func (c CardRecord) Key() CardKey {
	return CardKey{SetName: c.SetName, CardNumber: c.CardNumber, CardName: c.CardName}
}

// Eligible reports whether the record carries a usable conflict key.
func (c CardRecord) Eligible() bool {
	return present(c.CardName) && present(c.SetName) && present(c.CardNumber)
}

func present(v string) bool {
	v = strings.TrimSpace(v)
	return v != "" && v != NotAvailable
}

// CardRow mirrors the `all_cards` table schema.
type CardRow struct {
	CardName            string   `json:"card_name"`
	SetName             string   `json:"set_name"`
	CardNumber          string   `json:"card_number"`
	Rarity              string   `json:"rarity"`
	UngradedMarketPrice *float64 `json:"ungraded_market_price"`
	DateUpdated         string   `json:"date_updated"`
	ImageURL            *string  `json:"-"`
	// IncludeImage controls whether the image_url column is written at all.
	IncludeImage bool `json:"-"`
}

// MarshalJSON writes image_url (possibly null) only when IncludeImage is set,
// so rows without it never clobber an existing image.
func (r CardRow) MarshalJSON() ([]byte, error) {
	type plain CardRow
	if !r.IncludeImage {
		return json.Marshal(plain(r))
	}
	return json.Marshal(struct {
		plain
		ImageURL *string `json:"image_url"`
	}{plain(r), r.ImageURL})
}

// Row converts the record into its persisted form.
func (c CardRecord) Row(includeImage bool) CardRow {
	row := CardRow{
		CardName:            c.CardName,
		SetName:             c.SetName,
		CardNumber:          c.CardNumber,
		Rarity:              c.RarityText,
		UngradedMarketPrice: c.Price,
		DateUpdated:         c.CapturedAt.UTC().Format(time.RFC3339Nano),
		IncludeImage:        includeImage,
	}
	if includeImage && present(c.ImageURL) {
		url := c.ImageURL
		row.ImageURL = &url
	}
	return row
}
