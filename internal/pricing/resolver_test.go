package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plati-tools/platiscout/internal/types"
)

func f(v float64) *float64 { return &v }

func TestDetectEncoding(t *testing.T) {
	tests := []struct {
		name     string
		raw      types.RawPriceField
		wantMode types.PriceMode
		wantVal  float64
		wantUnit string
	}{
		{
			name:     "explicit price is absolute",
			raw:      types.RawPriceField{Price: f(499)},
			wantMode: types.PriceAbsolute,
			wantVal:  499,
		},
		{
			name:     "modify_value_default wins over modify_value",
			raw:      types.RawPriceField{ModifyValue: f(5), ModifyValueDefault: f(450), ModifyType: "RUB"},
			wantMode: types.PriceDelta,
			wantVal:  450,
			wantUnit: "RUB",
		},
		{
			name:     "modify_value alone is a delta",
			raw:      types.RawPriceField{ModifyValue: f(10), ModifyType: "%"},
			wantMode: types.PriceDelta,
			wantVal:  10,
			wantUnit: "%",
		},
		{
			name:     "percent spelled out normalizes",
			raw:      types.RawPriceField{ModifyValue: f(25), ModifyType: "percent"},
			wantMode: types.PriceDelta,
			wantVal:  25,
			wantUnit: "%",
		},
		{
			name:     "absolute wins over delta fields",
			raw:      types.RawPriceField{Price: f(100), ModifyValueDefault: f(50)},
			wantMode: types.PriceAbsolute,
			wantVal:  100,
		},
		{
			name:     "nothing set is unspecified",
			raw:      types.RawPriceField{},
			wantMode: types.PriceUnspecified,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc := DetectEncoding(tt.raw)
			assert.Equal(t, tt.wantMode, enc.Mode)
			assert.Equal(t, tt.wantVal, enc.Value)
			assert.Equal(t, tt.wantUnit, enc.Unit)
		})
	}
}

func makeLot(base float64, variants ...types.Variant) *types.Lot {
	return &types.Lot{
		ID:        42,
		BasePrice: base,
		Currency:  "RUB",
		OptionGroups: []types.OptionGroup{
			{ID: 1, Name: "duration", Variants: variants},
		},
	}
}

func TestResolveLotDeltas(t *testing.T) {
	r := NewResolver("RUB", "ru-RU", false)

	// Base 1000 with +0 and +5000 deltas resolves to 1000 and 6000.
	lot := makeLot(1000,
		types.Variant{Label: "1 month", Raw: types.RawPriceField{ModifyValueDefault: f(0)}},
		types.Variant{Label: "12 months", Raw: types.RawPriceField{ModifyValueDefault: f(5000)}},
	)
	anomalies := r.ResolveLot(lot)

	require.Equal(t, 0, anomalies)
	variants := lot.OptionGroups[0].Variants
	assert.Equal(t, 1000.0, variants[0].PriceIfSelected)
	assert.Equal(t, 6000.0, variants[1].PriceIfSelected)
}

func TestResolveLotPercentDelta(t *testing.T) {
	r := NewResolver("RUB", "ru-RU", false)

	lot := makeLot(200,
		types.Variant{Label: "+50%", Raw: types.RawPriceField{ModifyValue: f(50), ModifyType: "%"}},
		types.Variant{Label: "-25%", Raw: types.RawPriceField{ModifyValue: f(-25), ModifyType: "PERCENT"}},
	)
	anomalies := r.ResolveLot(lot)

	require.Equal(t, 0, anomalies)
	variants := lot.OptionGroups[0].Variants
	assert.Equal(t, 300.0, variants[0].PriceIfSelected)
	assert.Equal(t, 150.0, variants[1].PriceIfSelected)
}

func TestResolveLotCurrencyConversion(t *testing.T) {
	r := NewResolver("RUB", "ru-RU", false)

	lot := makeLot(1000,
		types.Variant{Label: "+10 USD", Raw: types.RawPriceField{ModifyValue: f(10), ModifyType: "USD"}},
	)
	lot.Rates = map[string]float64{"USD": 1, "RUB": 90}
	anomalies := r.ResolveLot(lot)

	require.Equal(t, 0, anomalies)
	assert.Equal(t, 1900.0, lot.OptionGroups[0].Variants[0].PriceIfSelected)
}

func TestResolveLotUnknownRatePassesThrough(t *testing.T) {
	r := NewResolver("RUB", "ru-RU", false)

	lot := makeLot(1000,
		types.Variant{Label: "+10 XYZ", Raw: types.RawPriceField{ModifyValue: f(10), ModifyType: "XYZ"}},
	)
	anomalies := r.ResolveLot(lot)

	require.Equal(t, 0, anomalies)
	assert.Equal(t, 1010.0, lot.OptionGroups[0].Variants[0].PriceIfSelected)
}

func TestResolveLotNegativeResultFallsBackToBase(t *testing.T) {
	r := NewResolver("RUB", "ru-RU", false)

	lot := makeLot(100,
		types.Variant{Label: "broken delta", Raw: types.RawPriceField{ModifyValueDefault: f(-500)}},
		types.Variant{Label: "broken absolute", Raw: types.RawPriceField{Price: f(-1)}},
		types.Variant{Label: "fine", Raw: types.RawPriceField{ModifyValueDefault: f(50)}},
	)
	anomalies := r.ResolveLot(lot)

	assert.Equal(t, 2, anomalies)
	variants := lot.OptionGroups[0].Variants
	assert.Equal(t, 100.0, variants[0].PriceIfSelected)
	assert.Equal(t, 100.0, variants[1].PriceIfSelected)
	assert.Equal(t, 150.0, variants[2].PriceIfSelected)
}

func TestResolveLotUnspecifiedUsesBase(t *testing.T) {
	r := NewResolver("RUB", "ru-RU", false)

	lot := makeLot(333, types.Variant{Label: "default"})
	anomalies := r.ResolveLot(lot)

	require.Equal(t, 0, anomalies)
	assert.Equal(t, 333.0, lot.OptionGroups[0].Variants[0].PriceIfSelected)
	assert.NotEmpty(t, lot.BaseFormatted)
}

func TestFormatterSymbols(t *testing.T) {
	rub := NewFormatter("RUB", "ru-RU")
	assert.Contains(t, rub.Format(1000), "₽")

	usd := NewFormatter("USD", "en-US")
	assert.Contains(t, usd.Format(1000), "USD")
}
