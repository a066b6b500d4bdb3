package types

// Seller identifies the merchant behind a lot
type Seller struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// PriceMode distinguishes how a variant's raw pricing field is encoded
type PriceMode int

const (
	// PriceUnspecified means the variant carries no price information;
	// price_if_selected falls back to the lot's base price.
	PriceUnspecified PriceMode = iota
	// PriceAbsolute means the field gives the final variant price directly.
	PriceAbsolute
	// PriceDelta means the field gives an offset added to the base price.
	PriceDelta
)

func (m PriceMode) String() string {
	switch m {
	case PriceAbsolute:
		return "absolute"
	case PriceDelta:
		return "delta"
	default:
		return "unspecified"
	}
}

// PriceEncoding is the tagged pricing variant resolved once per Variant.
// For PriceDelta, Unit is "" (requested currency), "%" for percent of
// base price, or a currency code converted through the lot's rate map.
type PriceEncoding struct {
	Mode  PriceMode `json:"mode"`
	Value float64   `json:"value"`
	Unit  string    `json:"unit,omitempty"`
}

// RawPriceField carries the ad-specific pricing fields as fetched,
// before mode detection. Pointers distinguish absent from zero.
type RawPriceField struct {
	Price              *float64 `json:"price,omitempty"`
	ModifyType         string   `json:"modify_type,omitempty"`
	ModifyValue        *float64 `json:"modify_value,omitempty"`
	ModifyValueDefault *float64 `json:"modify_value_default,omitempty"`
}

// Variant is one selectable value inside an option group
type Variant struct {
	Value           int64         `json:"value"`
	Label           string        `json:"text"`
	Default         bool          `json:"default"`
	Raw             RawPriceField `json:"-"`
	Encoding        PriceEncoding `json:"encoding"`
	PriceIfSelected float64       `json:"price_if_selected"`
	PriceFormatted  string        `json:"price_if_selected_fmt,omitempty"`
}

// OptionGroup is one selectable attribute dimension on a lot
type OptionGroup struct {
	ID       int64     `json:"id"`
	Name     string    `json:"name"`
	Label    string    `json:"label,omitempty"`
	Required bool      `json:"required"`
	Variants []Variant `json:"variants"`
}

// Lot is one marketplace listing, immutable once parsed
type Lot struct {
	ID            int64              `json:"lot_id"`
	Title         string             `json:"title"`
	URL           string             `json:"link"`
	BasePrice     float64            `json:"base_price"`
	BaseFormatted string             `json:"base_price_fmt,omitempty"`
	Currency      string             `json:"currency"`
	Seller        Seller             `json:"seller"`
	ReviewCount   int                `json:"review_count"`
	PositiveRatio float64            `json:"positive_ratio"`
	GoodReviews   int                `json:"good_reviews"`
	BadReviews    int                `json:"bad_reviews"`
	Rates         map[string]float64 `json:"-"`
	OptionGroups  []OptionGroup      `json:"options"`
}

// SortOrder enumerates the supported result orderings
type SortOrder string

const (
	SortPriceAsc          SortOrder = "price_asc"
	SortPriceDesc         SortOrder = "price_desc"
	SortSellerReviewsDesc SortOrder = "seller_reviews_desc"
	SortReliabilityDesc   SortOrder = "reliability_desc"
	SortTitleAsc          SortOrder = "title_asc"
	SortTitleDesc         SortOrder = "title_desc"
)

// ValidSortOrder reports whether s is a known sort order
func ValidSortOrder(s SortOrder) bool {
	switch s {
	case SortPriceAsc, SortPriceDesc, SortSellerReviewsDesc,
		SortReliabilityDesc, SortTitleAsc, SortTitleDesc:
		return true
	}
	return false
}

// SearchCriteria is the full, immutable parameter set for one query
type SearchCriteria struct {
	Query            string    `json:"query"`
	CategoryID       string    `json:"category_id,omitempty"`
	SourceURL        string    `json:"source_url,omitempty"`
	Limit            int       `json:"limit"`
	MinReviews       int       `json:"min_reviews"`
	MinPositiveRatio float64   `json:"min_positive_ratio"`
	MinPrice         float64   `json:"min_price"`
	MaxPrice         float64   `json:"max_price"`
	IncludeTerms     []string  `json:"include_terms"`
	ExcludeTerms     []string  `json:"exclude_terms"`
	SortBy           SortOrder `json:"sort_by"`
	MaxPages         int       `json:"max_pages"`
	PerPage          int       `json:"per_page"`
	Currency         string    `json:"currency"`
	Lang             string    `json:"lang"`
}

// Validate checks caller-supplied constraints. Violations are fatal and
// surfaced before any fetching begins. Zero min/max prices mean unset.
func (c *SearchCriteria) Validate() error {
	if c.Query == "" && c.CategoryID == "" {
		return NewInvalidCriteria("empty search query: pass a text query, a /search/<term> URL, or a category URL")
	}
	if c.Limit < 1 {
		return NewInvalidCriteria("limit must be at least 1, got %d", c.Limit)
	}
	if c.MinReviews < 0 {
		return NewInvalidCriteria("min_reviews cannot be negative, got %d", c.MinReviews)
	}
	if c.MinPositiveRatio < 0 || c.MinPositiveRatio > 1 {
		return NewInvalidCriteria("min_positive_ratio must be between 0.0 and 1.0, got %g", c.MinPositiveRatio)
	}
	if c.MinPrice < 0 || c.MaxPrice < 0 {
		return NewInvalidCriteria("price bounds cannot be negative")
	}
	if c.MinPrice > 0 && c.MaxPrice > 0 && c.MinPrice > c.MaxPrice {
		return NewInvalidCriteria("min_price (%g) exceeds max_price (%g)", c.MinPrice, c.MaxPrice)
	}
	if c.MaxPages < 1 {
		return NewInvalidCriteria("max_pages must be at least 1, got %d", c.MaxPages)
	}
	if c.PerPage < 1 {
		return NewInvalidCriteria("per_page must be at least 1, got %d", c.PerPage)
	}
	if !ValidSortOrder(c.SortBy) {
		return NewInvalidCriteria("unknown sort_by: %q", c.SortBy)
	}
	return nil
}

// ReliabilitySnapshot is the seller trust signal captured at ranking time
type ReliabilitySnapshot struct {
	ReviewCount   int     `json:"review_count"`
	PositiveRatio float64 `json:"positive_ratio"`
	Good          int     `json:"good"`
	Bad           int     `json:"bad"`
}

// RankedOffer is one (lot, variant) pair that survived filtering.
// Lots without option groups yield a single offer with empty group
// and variant fields at the lot's base price.
type RankedOffer struct {
	LotID          int64               `json:"lot_id"`
	Title          string              `json:"title"`
	URL            string              `json:"link"`
	Seller         string              `json:"seller"`
	GroupName      string              `json:"option_group,omitempty"`
	VariantLabel   string              `json:"variant,omitempty"`
	Price          float64             `json:"price_if_selected"`
	PriceFormatted string              `json:"price_if_selected_fmt,omitempty"`
	Currency       string              `json:"currency"`
	Reliability    ReliabilitySnapshot `json:"reliability"`
	Options        []OptionGroup       `json:"options,omitempty"`

	// Lot backs the sort keys; not serialized to avoid duplication.
	Lot *Lot `json:"-"`
}

// FetchStats counts non-fatal failures accumulated during one query
type FetchStats struct {
	PagesScanned   int `json:"pages_scanned"`
	LotsScanned    int `json:"lots_scanned"`
	FetchFailures  int `json:"fetch_failures"`
	ParseFailures  int `json:"parse_failures"`
	PriceAnomalies int `json:"price_anomalies"`
}

// RankedResultSet is the filtered, sorted, size-bounded output of a
// query. RawCount and FilteredCount are both offer-granular: candidate
// offers expanded from scanned lots, and candidates surviving every
// filter before truncation, so RawCount >= FilteredCount >= len(Offers)
// always holds. Lot-level counts live in Stats.
type RankedResultSet struct {
	SearchID       string         `json:"search_id"`
	Query          string         `json:"query"`
	Offers         []RankedOffer  `json:"offers"`
	RawCount       int            `json:"raw_count"`
	FilteredCount  int            `json:"filtered_count"`
	FiltersApplied SearchCriteria `json:"filters_applied"`
	Stats          FetchStats     `json:"stats"`
}
