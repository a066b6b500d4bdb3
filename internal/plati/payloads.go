package plati

import (
	"fmt"
	"strings"
)

// NameEntry is one localized product name
type NameEntry struct {
	Locale string `json:"locale"`
	Value  string `json:"value"`
}

// SearchItem is one raw listing reference from a search-results page
type SearchItem struct {
	ProductID  int64       `json:"product_id"`
	SellerID   int64       `json:"seller_id"`
	SellerName string      `json:"seller_name"`
	Price      float64     `json:"price"`
	Name       []NameEntry `json:"name"`
	Link       string      `json:"link,omitempty"`
}

// SearchContent is the payload body of one search-results page
type SearchContent struct {
	Items       []SearchItem `json:"items"`
	HasNextPage bool         `json:"has_next_page"`
}

// SearchResponse is the envelope of the search endpoint
type SearchResponse struct {
	Content SearchContent `json:"content"`
}

// RawVariant is one variant as the product-data endpoint returns it.
// Visible defaults to 1 when absent; pointer price fields distinguish
// absent from zero for encoding detection.
type RawVariant struct {
	Value              int64    `json:"value"`
	Text               string   `json:"text"`
	Default            int      `json:"default"`
	Visible            *int     `json:"visible"`
	Modify             string   `json:"modify"`
	ModifyType         string   `json:"modify_type"`
	ModifyValue        *float64 `json:"modify_value"`
	ModifyValueDefault *float64 `json:"modify_value_default"`
	Price              *float64 `json:"price"`
}

// IsVisible reports whether the variant is shown to buyers
func (v *RawVariant) IsVisible() bool {
	return v.Visible == nil || *v.Visible == 1
}

// RawOption is one option group as returned by the product-data endpoint
type RawOption struct {
	ID       int64        `json:"id"`
	Name     string       `json:"name"`
	Label    string       `json:"label"`
	Type     string       `json:"type"`
	Required int          `json:"required"`
	Variants []RawVariant `json:"variants"`
}

// RawSeller is the seller block inside product data
type RawSeller struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// RawPrices carries the per-currency rate map of a product
type RawPrices struct {
	Default map[string]float64 `json:"default"`
}

// RawProduct is the product body of the product-data endpoint
type RawProduct struct {
	ID          int64       `json:"id"`
	Name        string      `json:"name"`
	Price       float64     `json:"price"`
	IsAvailable interface{} `json:"is_available"`
	Seller      *RawSeller  `json:"seller"`
	Prices      *RawPrices  `json:"prices"`
	Options     []RawOption `json:"options"`
}

// Available interprets the loosely-typed is_available field; the API
// sends 0/1, "0"/"1", "false"/"true" or omits it entirely (available).
func (p *RawProduct) Available() bool {
	if p.IsAvailable == nil {
		return true
	}
	switch v := p.IsAvailable.(type) {
	case bool:
		return v
	case float64:
		return v != 0
	case string:
		s := strings.ToLower(strings.TrimSpace(v))
		return s != "0" && s != "false"
	default:
		return true
	}
}

// ProductResponse is the envelope of the product-data endpoint
type ProductResponse struct {
	Retval  int         `json:"retval"`
	Product *RawProduct `json:"product"`
}

// ReviewsResponse is the seller reviews summary
type ReviewsResponse struct {
	TotalItems int `json:"totalItems"`
	TotalGood  int `json:"totalGood"`
	TotalBad   int `json:"totalBad"`
}

// PickName selects the best localized name: exact locale match first,
// then a language-prefix match, then the first entry.
func PickName(entries []NameEntry, lang string) string {
	if len(entries) == 0 {
		return ""
	}
	for _, entry := range entries {
		if entry.Locale == lang {
			return entry.Value
		}
	}
	prefix, _, _ := strings.Cut(lang, "-")
	for _, entry := range entries {
		if strings.HasPrefix(entry.Locale, prefix) {
			return entry.Value
		}
	}
	return entries[0].Value
}

// ItemURL is the public listing URL for a product id
func ItemURL(marketBaseURL string, productID int64) string {
	return fmt.Sprintf("%s/itm/i/%d", strings.TrimRight(marketBaseURL, "/"), productID)
}
