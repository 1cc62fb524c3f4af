package extractor

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/user/card-scraper/internal/entity"
	"github.com/user/card-scraper/pkg/utils"
)

// Selectors of the marketplace search results grid.
const (
	CardSelector   = ".search-result"
	NameSelector   = ".product-card__title"
	SetSelector    = ".product-card__set-name__variant"
	RaritySelector = ".product-card__rarity__variant"
	PriceSelector  = ".product-card__market-price--value"
	ImageSelector  = ".product-card__image img"
)

// imageAttrs are tried in order; the first non-empty one wins.
var imageAttrs = []string{"data-srcset", "srcset", "data-src", "src"}

var priceFormat = regexp.MustCompile(`^\$\d+(?:,\d+)*(?:\.\d+)?$`)

// Result is what a results page yielded.
type Result struct {
	// Elements is the number of card elements on the page, named or not.
	Elements int
	// Cards holds one record per element that had a name.
	Cards []entity.CardRecord
}

// Eligible returns the cards that carry a usable conflict key.
func (r *Result) Eligible() []entity.CardRecord {
	var out []entity.CardRecord
	for _, c := range r.Cards {
		if c.Eligible() {
			out = append(out, c)
		}
	}
	return out
}

// ExtractCards parses rendered results markup and builds a record per card element.
// pageURL is used to resolve relative image URLs.
func ExtractCards(markup, pageURL string, capturedAt time.Time) (*Result, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse page markup: %w", err)
	}

	res := &Result{}
	doc.Find(CardSelector).Each(func(i int, card *goquery.Selection) {
		res.Elements++
		if rec, ok := extractCard(card, pageURL, capturedAt); ok {
			res.Cards = append(res.Cards, rec)
		}
	})
	return res, nil
}

// extractCard reads each field independently. Only a missing name drops the card.
func extractCard(card *goquery.Selection, pageURL string, capturedAt time.Time) (entity.CardRecord, bool) {
	name, ok := extractField(card, NameSelector)
	if !ok {
		return entity.CardRecord{}, false
	}

	rec := entity.CardRecord{
		CardName:   name,
		SetName:    orNotAvailable(extractField(card, SetSelector)),
		RarityText: orNotAvailable(extractField(card, RaritySelector)),
		ImageURL:   entity.NotAvailable,
		CapturedAt: capturedAt.UTC(),
	}
	rec.CardNumber = ParseCardNumber(rec.RarityText)

	if raw, ok := extractField(card, PriceSelector); ok {
		rec.Price = ParsePrice(raw)
	}

	if img := card.Find(ImageSelector).First(); img.Length() > 0 {
		rec.ImageURL = ResolveImageURL(img.Attr, pageURL)
	}

	return rec, true
}

// extractField returns the normalized text of the first element under container matching selector.
func extractField(container *goquery.Selection, selector string) (string, bool) {
	el := container.Find(selector).First()
	if el.Length() == 0 {
		return "", false
	}
	return strings.Join(strings.Fields(el.Text()), " "), true
}

func orNotAvailable(v string, ok bool) string {
	if !ok {
		return entity.NotAvailable
	}
	return v
}

// ParseCardNumber takes the card number from a rarity label such as "Ultra Rare, #123/172":
// the trimmed text after the last comma, or NotAvailable when there is no comma.
func ParseCardNumber(rarity string) string {
	i := strings.LastIndex(rarity, ",")
	if i < 0 {
		return entity.NotAvailable
	}
	return strings.TrimSpace(rarity[i+1:])
}

// ParsePrice parses a "$1,234.56" style price. It returns nil for anything else.
func ParsePrice(raw string) *float64 {
	raw = strings.TrimSpace(raw)
	if !priceFormat.MatchString(raw) {
		return nil
	}
	v, err := strconv.ParseFloat(strings.NewReplacer("$", "", ",", "").Replace(raw), 64)
	if err != nil {
		return nil
	}
	return &v
}

// ResolveImageURL picks the image source from the first populated attribute, ignoring inline data: placeholders. For a srcset
// the last candidate's URL is used. Relative URLs are resolved against pageURL.
func ResolveImageURL(attr func(string) (string, bool), pageURL string) string {
	var src string
	for _, name := range imageAttrs {
		v, ok := attr(name)
		v = strings.TrimSpace(v)
		if !ok || v == "" || isDataURI(v) {
			continue
		}
		src = v
		break
	}
	if src == "" {
		return entity.NotAvailable
	}

	candidates := strings.Split(src, ",")
	fields := strings.Fields(candidates[len(candidates)-1])
	if len(fields) == 0 {
		return entity.NotAvailable
	}
	src = fields[0]

	if base, err := url.Parse(pageURL); err == nil {
		if abs, err := utils.ToAbsoluteURL(base, src); err == nil {
			return abs
		}
	}
	return src
}

func isDataURI(v string) bool {
	return len(v) >= 5 && strings.EqualFold(v[:5], "data:")
}
