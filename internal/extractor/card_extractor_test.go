package extractor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/card-scraper/internal/entity"
)

const pageURL = "https://www.tcgplayer.com/search/pokemon/product?page=1"

const threeCards = `<html><body><section class="search-results">
<div class="search-result">
  <div class="product-card__image"><img src="/a.jpg"></div>
  <span class="product-card__set-name__variant">Crown Zenith</span>
  <span class="product-card__rarity__variant">Holo Rare, #010/159</span>
</div>
<div class="search-result">
  <div class="product-card__image">
    <img data-srcset="https://tcgplayer-cdn.tcgplayer.com/product/1_200w.jpg 200w, https://tcgplayer-cdn.tcgplayer.com/product/1_400w.jpg 400w" src="/placeholder.svg">
  </div>
  <span class="product-card__title">
     Pikachu
  </span>
  <span class="product-card__set-name__variant">Crown Zenith</span>
  <section class="product-card__rarity"><span class="product-card__rarity__variant">Ultra Rare, #123/172</span></section>
  <span class="product-card__market-price--value">$45.99</span>
</div>
<div class="search-result">
  <span class="product-card__title">Eevee</span>
  <span class="product-card__rarity__variant">Common, #100/172</span>
  <span class="product-card__market-price--value">$0.25</span>
</div>
</section></body></html>`

func TestExtractCardsScenario(t *testing.T) {
	captured := time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC)

	res, err := ExtractCards(threeCards, pageURL, captured)
	require.NoError(t, err)

	assert.Equal(t, 3, res.Elements)
	require.Len(t, res.Cards, 2, "the nameless card is dropped during extraction")

	eligible := res.Eligible()
	require.Len(t, eligible, 1)

	pikachu := eligible[0]
	assert.Equal(t, "Pikachu", pikachu.CardName)
	assert.Equal(t, "Crown Zenith", pikachu.SetName)
	assert.Equal(t, "Ultra Rare, #123/172", pikachu.RarityText)
	assert.Equal(t, "#123/172", pikachu.CardNumber)
	require.NotNil(t, pikachu.Price)
	assert.InDelta(t, 45.99, *pikachu.Price, 1e-9)
	assert.Equal(t, "https://tcgplayer-cdn.tcgplayer.com/product/1_400w.jpg", pikachu.ImageURL)
	assert.Equal(t, captured, pikachu.CapturedAt)

	eevee := res.Cards[1]
	assert.Equal(t, "Eevee", eevee.CardName)
	assert.Equal(t, entity.NotAvailable, eevee.SetName)
	assert.Equal(t, entity.NotAvailable, eevee.ImageURL)
	assert.False(t, eevee.Eligible())
}

func TestExtractCardsEmptyPage(t *testing.T) {
	res, err := ExtractCards(`<html><body><p>No results</p></body></html>`, pageURL, time.Now())
	require.NoError(t, err)
	assert.Zero(t, res.Elements)
	assert.Empty(t, res.Eligible())
}

func TestExtractCardsFieldFallbacks(t *testing.T) {
	markup := `<div class="search-result">
  <span class="product-card__title">Charizard</span>
  <span class="product-card__set-name__variant">SV: Prismatic Evolutions</span>
  <span class="product-card__market-price--value">Unavailable</span>
</div>`

	res, err := ExtractCards(markup, pageURL, time.Now())
	require.NoError(t, err)
	require.Len(t, res.Cards, 1)

	card := res.Cards[0]
	assert.Equal(t, entity.NotAvailable, card.RarityText)
	assert.Equal(t, entity.NotAvailable, card.CardNumber)
	assert.Nil(t, card.Price)
	assert.False(t, card.Eligible())
}

func TestParseCardNumber(t *testing.T) {
	tests := []struct {
		rarity string
		want   string
	}{
		{"Ultra Rare, #123/172", "#123/172"},
		{"Secret Rare, Promo, GG70/GG70", "GG70/GG70"},
		{"  Rare ,  045/159  ", "045/159"},
		{"Common", entity.NotAvailable},
		{entity.NotAvailable, entity.NotAvailable},
		{"", entity.NotAvailable},
		{"Rare,", ""},
	}
	for _, tt := range tests {
		t.Run(tt.rarity, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseCardNumber(tt.rarity))
		})
	}
}

func TestParsePrice(t *testing.T) {
	valid := map[string]float64{
		"$45.99":     45.99,
		"$0.25":      0.25,
		"$1,234.56":  1234.56,
		"$12":        12,
		" $2,000 ":   2000,
		"$1,000,000": 1000000,
	}
	for raw, want := range valid {
		got := ParsePrice(raw)
		if assert.NotNil(t, got, raw) {
			assert.InDelta(t, want, *got, 1e-9, raw)
		}
	}

	for _, raw := range []string{"", "-", "N/A", "45.99", "$", "$1e5", "$NaN", "$4.5.6", "USD 4.00", "$-3.00"} {
		assert.Nil(t, ParsePrice(raw), raw)
	}
}

func TestResolveImageURL(t *testing.T) {
	attrs := func(m map[string]string) func(string) (string, bool) {
		return func(name string) (string, bool) {
			v, ok := m[name]
			return v, ok
		}
	}

	tests := []struct {
		name  string
		attrs map[string]string
		want  string
	}{
		{
			name:  "data-srcset wins",
			attrs: map[string]string{"data-srcset": "https://cdn/x_1.jpg 1x, https://cdn/x_2.jpg 2x", "src": "https://cdn/s.jpg"},
			want:  "https://cdn/x_2.jpg",
		},
		{
			name:  "empty attribute is skipped",
			attrs: map[string]string{"data-srcset": "", "srcset": " ", "data-src": "https://cdn/lazy.jpg", "src": "https://cdn/s.jpg"},
			want:  "https://cdn/lazy.jpg",
		},
		{
			name:  "relative src resolved against page",
			attrs: map[string]string{"src": "/images/card.png"},
			want:  "https://www.tcgplayer.com/images/card.png",
		},
		{
			name:  "inline placeholder src",
			attrs: map[string]string{"src": "data:image/gif;base64,R0lGODlhAQABAIAAAP///wAAACH5BAEAAAAALAAAAAABAAEAAAICRAEAOw=="},
			want:  entity.NotAvailable,
		},
		{
			name:  "upper-case placeholder skipped",
			attrs: map[string]string{"data-srcset": "DATA:image/png;base64,iVBORw0KGgo=", "src": "https://cdn/s.jpg"},
			want:  "https://cdn/s.jpg",
		},
		{
			name:  "placeholder srcset falls through to data-src",
			attrs: map[string]string{"srcset": "data:image/gif;base64,R0lG 1x", "data-src": "/img/real.jpg"},
			want:  "https://www.tcgplayer.com/img/real.jpg",
		},
		{
			name:  "nothing present",
			attrs: map[string]string{"alt": "card"},
			want:  entity.NotAvailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveImageURL(attrs(tt.attrs), pageURL))
		})
	}
}
