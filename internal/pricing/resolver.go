package pricing

import (
	"log"
	"os"
	"strings"

	"github.com/plati-tools/platiscout/internal/types"
)

// Resolver computes price_if_selected for every variant of a lot from
// the ad-specific pricing fields. One resolver serves one invocation:
// it carries the requested currency and the locale used for display
// formatting.
type Resolver struct {
	currency  string
	formatter *Formatter
	debug     bool
	logger    *log.Logger
}

// NewResolver creates a resolver for the requested currency and locale
func NewResolver(currency, lang string, debug bool) *Resolver {
	return &Resolver{
		currency:  strings.ToUpper(currency),
		formatter: NewFormatter(currency, lang),
		debug:     debug,
		logger:    log.New(os.Stderr, "[PriceResolver] ", log.LstdFlags),
	}
}

// DetectEncoding resolves the pricing mode of a raw field once per
// variant: an explicit price is an absolute override, a modify value is
// a delta from base price, and neither means the variant contributes no
// price change. modify_value_default takes precedence over modify_value
// when both are present (the marketplace sends the former in the
// requested currency).
func DetectEncoding(raw types.RawPriceField) types.PriceEncoding {
	if raw.Price != nil {
		return types.PriceEncoding{Mode: types.PriceAbsolute, Value: *raw.Price}
	}
	if raw.ModifyValueDefault != nil {
		return types.PriceEncoding{Mode: types.PriceDelta, Value: *raw.ModifyValueDefault, Unit: normalizeUnit(raw.ModifyType)}
	}
	if raw.ModifyValue != nil {
		return types.PriceEncoding{Mode: types.PriceDelta, Value: *raw.ModifyValue, Unit: normalizeUnit(raw.ModifyType)}
	}
	return types.PriceEncoding{Mode: types.PriceUnspecified}
}

func normalizeUnit(modifyType string) string {
	unit := strings.ToUpper(strings.TrimSpace(modifyType))
	if unit == "PERCENT" {
		return "%"
	}
	return unit
}

// ResolveLot fills the encoding, resolved price and formatted price of
// every variant on the lot. Returns the number of price anomalies that
// fell back to base price.
func (r *Resolver) ResolveLot(lot *types.Lot) int {
	anomalies := 0
	lot.BaseFormatted = r.formatter.Format(lot.BasePrice)

	for gi := range lot.OptionGroups {
		group := &lot.OptionGroups[gi]
		for vi := range group.Variants {
			variant := &group.Variants[vi]
			variant.Encoding = DetectEncoding(variant.Raw)

			price, anomaly := r.resolve(variant.Encoding, lot.BasePrice, lot.Rates)
			if anomaly {
				anomalies++
				if r.debug {
					r.logger.Printf("anomalous price for lot %d variant %q (%s %g %s), falling back to base %g",
						lot.ID, variant.Label, variant.Encoding.Mode, variant.Encoding.Value, variant.Encoding.Unit, lot.BasePrice)
				}
			}
			variant.PriceIfSelected = price
			variant.PriceFormatted = r.formatter.Format(price)
		}
	}
	return anomalies
}

// resolve computes one variant price. A negative result is a parse
// anomaly and falls back to base price, which keeps every resolved
// price non-negative as long as base prices are.
func (r *Resolver) resolve(enc types.PriceEncoding, basePrice float64, rates map[string]float64) (price float64, anomaly bool) {
	switch enc.Mode {
	case types.PriceAbsolute:
		if enc.Value < 0 {
			return basePrice, true
		}
		return enc.Value, false
	case types.PriceDelta:
		result := basePrice + r.deltaAmount(enc, basePrice, rates)
		if result < 0 {
			return basePrice, true
		}
		return result, false
	default:
		return basePrice, false
	}
}

// deltaAmount converts a delta into the requested currency. Deltas in
// the requested currency (or with no unit) pass through; percent deltas
// scale the base price; deltas in another currency go through the lot's
// rate map when both rates are known, and pass through raw otherwise.
func (r *Resolver) deltaAmount(enc types.PriceEncoding, basePrice float64, rates map[string]float64) float64 {
	switch {
	case enc.Unit == "" || enc.Unit == r.currency:
		return enc.Value
	case enc.Unit == "%":
		return basePrice * enc.Value / 100.0
	default:
		from, to := rates[enc.Unit], rates[r.currency]
		if from > 0 && to > 0 {
			return enc.Value * (to / from)
		}
		return enc.Value
	}
}
