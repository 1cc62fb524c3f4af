package entity

import (
	"fmt"
	"strings"
)

// SearchQuery pins the marketplace search that is paginated.
type SearchQuery struct {
	BaseURL     string
	ProductLine string
	SetNames    []string
}

// PageURL returns the search results URL for the given 1-based page number.
func (q SearchQuery) PageURL(page int) string {
	return fmt.Sprintf(
		"%s/search/%s/product?productLineName=%s&view=grid&ProductTypeName=Cards&page=%d&setName=%s",
		strings.TrimRight(q.BaseURL, "/"), q.ProductLine, q.ProductLine, page, strings.Join(q.SetNames, "|"),
	)
}

// Template is the page URL with a placeholder in place of the page number.
func (q SearchQuery) Template() string {
	return strings.Replace(q.PageURL(0), "page=0", "page={}", 1)
}
