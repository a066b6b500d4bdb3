package parser

import (
	"log"
	"os"
	"strings"

	"github.com/plati-tools/platiscout/internal/plati"
	"github.com/plati-tools/platiscout/internal/types"
)

// Parser converts raw marketplace payloads into Lots. Pricing fields
// are carried over verbatim; resolution is the price resolver's job.
// Malformed listings fail locally with a parse error instead of
// propagating.
type Parser struct {
	marketBaseURL string
	lang          string
	debug         bool
	logger        *log.Logger
}

// New creates a listing parser for the given locale
func New(marketBaseURL, lang string, debug bool) *Parser {
	return &Parser{
		marketBaseURL: marketBaseURL,
		lang:          lang,
		debug:         debug,
		logger:        log.New(os.Stderr, "[ListingParser] ", log.LstdFlags),
	}
}

// ParseLot builds a Lot from a search item and its detail payload.
// Base price and currency come from the ad-local fields, never from
// page-level defaults: sellers override pricing per ad.
func (p *Parser) ParseLot(item plati.SearchItem, detail *plati.ProductResponse, currency string) (*types.Lot, error) {
	if item.ProductID <= 0 {
		return nil, types.NewParseFailure(item.ProductID, "missing product id")
	}
	if detail == nil || detail.Retval != 0 {
		return nil, types.NewParseFailure(item.ProductID, "detail payload rejected (retval != 0)")
	}
	product := detail.Product
	if product == nil {
		return nil, types.NewParseFailure(item.ProductID, "detail payload has no product body")
	}
	if !product.Available() {
		return nil, types.NewParseFailure(item.ProductID, "listing is suspended or hidden")
	}

	title := CleanText(product.Name)
	if title == "" {
		title = CleanText(plati.PickName(item.Name, p.lang))
	}
	if title == "" {
		return nil, types.NewParseFailure(item.ProductID, "listing has no title")
	}

	basePrice := product.Price
	if basePrice == 0 {
		basePrice = item.Price
	}
	if basePrice < 0 {
		return nil, types.NewParseFailure(item.ProductID, "negative base price %g", basePrice)
	}

	seller := types.Seller{ID: item.SellerID, Name: item.SellerName}
	if product.Seller != nil {
		if seller.ID <= 0 {
			seller.ID = product.Seller.ID
		}
		if name := CleanText(product.Seller.Name); name != "" {
			seller.Name = name
		}
	}

	link := item.Link
	if link == "" {
		link = plati.ItemURL(p.marketBaseURL, item.ProductID)
	}

	lot := &types.Lot{
		ID:        item.ProductID,
		Title:     title,
		URL:       link,
		BasePrice: basePrice,
		Currency:  strings.ToUpper(currency),
		Seller:    seller,
		Rates:     rateMap(product),
	}

	for _, opt := range product.Options {
		group := types.OptionGroup{
			ID:       opt.ID,
			Name:     CleanText(opt.Name),
			Label:    CleanText(opt.Label),
			Required: opt.Required == 1,
		}
		for _, raw := range opt.Variants {
			if !raw.IsVisible() {
				continue
			}
			label := CleanText(raw.Text)
			if label == "" {
				continue
			}
			group.Variants = append(group.Variants, types.Variant{
				Value:   raw.Value,
				Label:   label,
				Default: raw.Default == 1,
				Raw: types.RawPriceField{
					Price:              raw.Price,
					ModifyType:         raw.ModifyType,
					ModifyValue:        raw.ModifyValue,
					ModifyValueDefault: raw.ModifyValueDefault,
				},
			})
		}
		// Groups where every variant is hidden carry no selectable choice.
		if len(group.Variants) > 0 {
			lot.OptionGroups = append(lot.OptionGroups, group)
		}
	}

	if p.debug {
		p.logger.Printf("parsed lot %d (%q): base %g %s, %d option group(s)",
			lot.ID, lot.Title, lot.BasePrice, lot.Currency, len(lot.OptionGroups))
	}
	return lot, nil
}

// ApplyReviews stamps the seller reliability stats onto a lot. Missing
// stats default to zero reviews and a 0.0 ratio, the conservative
// choice that fails any non-zero reliability threshold.
func ApplyReviews(lot *types.Lot, snapshot types.ReliabilitySnapshot) {
	lot.ReviewCount = snapshot.ReviewCount
	lot.PositiveRatio = snapshot.PositiveRatio
	lot.GoodReviews = snapshot.Good
	lot.BadReviews = snapshot.Bad
}

// CleanText collapses runs of whitespace into single spaces
func CleanText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

func rateMap(product *plati.RawProduct) map[string]float64 {
	if product.Prices == nil || len(product.Prices.Default) == 0 {
		return nil
	}
	rates := make(map[string]float64, len(product.Prices.Default))
	for code, rate := range product.Prices.Default {
		rates[strings.ToUpper(code)] = rate
	}
	return rates
}
