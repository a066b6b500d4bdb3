package plati

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

const (
	searchPath  = "/api/cataloguer/front/products"
	productPath = "/api/products/%d/data"
	reviewsPath = "/api/reviews"
)

var (
	searchTermRx  = regexp.MustCompile(`/search/([^/?#]+)`)
	categorysRx   = regexp.MustCompile(`/([^/]+)/([^/]+)/(\d+)/?$`)
	termSplitRx   = regexp.MustCompile(`[\s,;|]+`)
	searchParamKs = []string{"q", "query", "text", "term", "search", "searchString", "SearchStr"}
)

// QueryInput is the outcome of interpreting the caller's query string,
// which may be plain text, a /search/<term> URL, a /search?q=... URL,
// or a category URL like /games/<slug>/<id>/.
type QueryInput struct {
	ProductQuery string
	CategoryID   string
	SourceURL    string
}

// ParseQueryInput normalizes the query argument into a text query
// and/or a category id.
func ParseQueryInput(query string) QueryInput {
	q := strings.TrimSpace(query)
	out := QueryInput{ProductQuery: q}
	if !strings.HasPrefix(q, "http://") && !strings.HasPrefix(q, "https://") {
		return out
	}

	parsed, err := url.Parse(q)
	if err != nil {
		return out
	}
	out.SourceURL = q
	path := parsed.Path

	// Search root URL with a query parameter.
	if strings.TrimRight(path, "/") == "/search" {
		values := parsed.Query()
		for _, key := range searchParamKs {
			if v := strings.TrimSpace(values.Get(key)); v != "" {
				out.ProductQuery = v
				return out
			}
		}
		out.ProductQuery = ""
		return out
	}

	// Standard search URL: /search/<term>
	if m := searchTermRx.FindStringSubmatch(path); m != nil {
		term, _ := url.PathUnescape(m[1])
		out.ProductQuery = strings.TrimSpace(strings.ReplaceAll(term, "-", " "))
		return out
	}

	// Category-like URL: /games/<slug>/<id>/
	if m := categorysRx.FindStringSubmatch(path); m != nil {
		slug, _ := url.PathUnescape(m[2])
		if s := strings.TrimSpace(strings.ReplaceAll(slug, "-", " ")); s != "" {
			out.ProductQuery = s
		}
		out.CategoryID = m[3]
		return out
	}

	// Fallback: last non-empty path segment.
	parts := strings.Split(path, "/")
	for i := len(parts) - 1; i >= 0; i-- {
		if parts[i] == "" {
			continue
		}
		seg, _ := url.PathUnescape(parts[i])
		out.ProductQuery = strings.TrimSpace(strings.ReplaceAll(seg, "-", " "))
		break
	}
	return out
}

// SplitTerms breaks an include/exclude term string on whitespace,
// commas, semicolons and pipes into lowercase tokens.
func SplitTerms(value string) []string {
	var terms []string
	for _, t := range termSplitRx.Split(strings.ToLower(value), -1) {
		if t != "" {
			terms = append(terms, t)
		}
	}
	return terms
}

// buildSearchURL builds one search-results page request
func buildSearchURL(endpoint, query string, page, count int, currency, lang string) string {
	params := url.Values{
		"categoryId":            {""},
		"getProductsRecursive":  {"true"},
		"sellerCategoryId":      {""},
		"productId":             {""},
		"productName":           {query},
		"ownerId":               {"plati"},
		"ownerCategoryId":       {""},
		"sellerId":              {""},
		"sellerName":            {""},
		"currency":              {currency},
		"page":                  {strconv.Itoa(page)},
		"count":                 {strconv.Itoa(count)},
		"individual":            {"false"},
		"video":                 {"false"},
		"image":                 {"false"},
		"sortBy":                {"popular"},
		"priceFrom":             {""},
		"priceTo":               {""},
		"includeAggregations":   {"true"},
		"fuzzy":                 {"false"},
		"lang":                  {lang},
	}
	return endpoint + searchPath + "?" + params.Encode()
}

// buildProductDataURL builds a listing-detail request; hidden variants
// are requested so pricing covers the full option structure.
func buildProductDataURL(endpoint string, productID int64, currency, lang string) string {
	params := url.Values{
		"lang":               {lang},
		"currency":           {currency},
		"showHiddenVariants": {"1"},
	}
	return endpoint + fmt.Sprintf(productPath, productID) + "?" + params.Encode()
}

// buildReviewsURL builds a seller reviews summary request
func buildReviewsURL(endpoint string, sellerID int64, lang string) string {
	params := url.Values{
		"seller_id": {strconv.FormatInt(sellerID, 10)},
		"owner_id":  {"1"},
		"type":      {"all"},
		"page":      {"1"},
		"rows":      {"1"},
		"lang":      {lang},
	}
	return endpoint + reviewsPath + "?" + params.Encode()
}

// buildCategoryBlockURL builds a category-browse block request against
// the marketplace site itself (the category listing is served as HTML).
func buildCategoryBlockURL(marketBaseURL, categoryID string, page, rows int, currency, lang string) string {
	params := url.Values{
		"id_c":     {categoryID},
		"page":     {strconv.Itoa(page)},
		"rows":     {strconv.Itoa(rows)},
		"curr":     {currency},
		"lang":     {lang},
		"visibleN": {"0"},
	}
	return strings.TrimRight(marketBaseURL, "/") + "/asp/block_goods.asp?" + params.Encode()
}
