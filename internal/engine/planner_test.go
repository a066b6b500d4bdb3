package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plati-tools/platiscout/internal/types"
)

func testLot(id int64, title string, reviews int, ratio float64, variants ...types.Variant) *types.Lot {
	good := int(float64(reviews) * ratio)
	lot := &types.Lot{
		ID:            id,
		Title:         title,
		URL:           "https://plati.example/itm/i/1",
		BasePrice:     100,
		Currency:      "RUB",
		Seller:        types.Seller{ID: id, Name: "seller"},
		ReviewCount:   reviews,
		PositiveRatio: ratio,
		GoodReviews:   good,
		BadReviews:    reviews - good,
	}
	if len(variants) > 0 {
		lot.OptionGroups = []types.OptionGroup{{ID: 1, Name: "duration", Variants: variants}}
	}
	return lot
}

func variant(label string, price float64) types.Variant {
	return types.Variant{Label: label, PriceIfSelected: price}
}

func criteria(sortBy types.SortOrder) types.SearchCriteria {
	return types.SearchCriteria{Query: "test", Limit: 100, SortBy: sortBy}
}

func TestPlanExpandsVariantsAndBaseOffers(t *testing.T) {
	lots := []*types.Lot{
		testLot(1, "Spotify Premium", 100, 1.0, variant("1 month", 300), variant("12 months", 2500)),
		testLot(2, "Netflix account", 100, 1.0),
	}
	lots[1].BasePrice = 450

	offers, _ := NewPlanner(criteria(types.SortPriceAsc), nil).Plan(lots)

	require.Len(t, offers, 3)
	assert.Equal(t, 300.0, offers[0].Price)
	assert.Equal(t, "1 month", offers[0].VariantLabel)
	assert.Equal(t, "duration", offers[0].GroupName)
	assert.Equal(t, 450.0, offers[1].Price)
	assert.Empty(t, offers[1].VariantLabel, "variant-free lot yields one base offer")
	assert.Equal(t, 2500.0, offers[2].Price)
}

func TestPlanExcludesDenyListedLots(t *testing.T) {
	lots := []*types.Lot{
		testLot(1, "OpenAI API key", 100, 1.0),
		testLot(2, "ChatGPT Plus subscription", 100, 1.0),
		testLot(3, "Spotify", 100, 1.0, variant("токены x100", 50)),
	}

	offers, _ := NewPlanner(criteria(types.SortPriceAsc), nil).Plan(lots)

	require.Len(t, offers, 1)
	assert.Equal(t, int64(2), offers[0].LotID)
}

func TestPlanReliabilityGateDropsWholeLot(t *testing.T) {
	c := criteria(types.SortPriceAsc)
	c.MinReviews = 500
	c.MinPositiveRatio = 0.98

	lots := []*types.Lot{
		testLot(1, "cheap but unreviewed", 300, 1.0, variant("1 month", 10)),
		testLot(2, "reliable", 1000, 0.99, variant("1 month", 500)),
		testLot(3, "bad ratio", 1000, 0.90, variant("1 month", 20)),
	}

	offers, _ := NewPlanner(c, nil).Plan(lots)

	require.Len(t, offers, 1)
	assert.Equal(t, int64(2), offers[0].LotID)
}

func TestPlanPriceBoundsPerOffer(t *testing.T) {
	c := criteria(types.SortPriceAsc)
	c.MinPrice = 200
	c.MaxPrice = 1000

	lots := []*types.Lot{
		testLot(1, "Spotify", 100, 1.0,
			variant("1 month", 150),
			variant("6 months", 800),
			variant("24 months", 2600)),
	}

	offers, _ := NewPlanner(c, nil).Plan(lots)

	require.Len(t, offers, 1)
	assert.Equal(t, "6 months", offers[0].VariantLabel)
}

func TestPlanIncludeExcludeTermsPerOffer(t *testing.T) {
	c := criteria(types.SortPriceAsc)
	c.IncludeTerms = []string{"premium"}
	c.ExcludeTerms = []string{"trial"}

	lots := []*types.Lot{
		testLot(1, "Spotify Premium", 100, 1.0,
			variant("12 months", 2500),
			variant("Trial 7 days", 10)),
		testLot(2, "Spotify Free", 100, 1.0, variant("1 month", 100)),
	}

	offers, _ := NewPlanner(c, nil).Plan(lots)

	require.Len(t, offers, 1)
	assert.Equal(t, "12 months", offers[0].VariantLabel)
}

func TestPlanIncludeTermMatchesWholeTokenOnly(t *testing.T) {
	c := criteria(types.SortPriceAsc)
	c.IncludeTerms = []string{"pro"}

	lots := []*types.Lot{
		testLot(1, "Product promotion", 100, 1.0),
		testLot(2, "VPN Pro", 100, 1.0),
	}

	offers, _ := NewPlanner(c, nil).Plan(lots)

	require.Len(t, offers, 1)
	assert.Equal(t, int64(2), offers[0].LotID)
}

func TestPlanSortOrders(t *testing.T) {
	build := func() []*types.Lot {
		a := testLot(3, "Beta", 500, 0.95, variant("x", 300))
		b := testLot(1, "alpha", 100, 0.99, variant("x", 100))
		c := testLot(2, "Gamma", 1000, 0.95, variant("x", 200))
		return []*types.Lot{a, b, c}
	}

	tests := []struct {
		sortBy  types.SortOrder
		wantIDs []int64
	}{
		{types.SortPriceAsc, []int64{1, 2, 3}},
		{types.SortPriceDesc, []int64{3, 2, 1}},
		{types.SortSellerReviewsDesc, []int64{2, 3, 1}},
		{types.SortReliabilityDesc, []int64{1, 2, 3}},
		{types.SortTitleAsc, []int64{1, 3, 2}},
		{types.SortTitleDesc, []int64{2, 3, 1}},
	}

	for _, tt := range tests {
		t.Run(string(tt.sortBy), func(t *testing.T) {
			offers, _ := NewPlanner(criteria(tt.sortBy), nil).Plan(build())
			require.Len(t, offers, 3)
			got := []int64{offers[0].LotID, offers[1].LotID, offers[2].LotID}
			assert.Equal(t, tt.wantIDs, got)
		})
	}
}

func TestPlanEqualPricesTieBreakByLotID(t *testing.T) {
	lots := []*types.Lot{
		testLot(9, "b", 100, 1.0, variant("x", 100)),
		testLot(4, "a", 100, 1.0, variant("x", 100)),
	}

	offers, _ := NewPlanner(criteria(types.SortPriceAsc), nil).Plan(lots)

	require.Len(t, offers, 2)
	assert.Equal(t, int64(4), offers[0].LotID)
	assert.Equal(t, int64(9), offers[1].LotID)
}

func TestPlanIsDeterministic(t *testing.T) {
	lots := func() []*types.Lot {
		return []*types.Lot{
			testLot(1, "a", 100, 0.99, variant("x", 100), variant("y", 100)),
			testLot(2, "b", 200, 0.98, variant("x", 100)),
			testLot(3, "c", 300, 0.97, variant("x", 50)),
		}
	}

	first, firstScanned := NewPlanner(criteria(types.SortPriceAsc), nil).Plan(lots())
	second, secondScanned := NewPlanner(criteria(types.SortPriceAsc), nil).Plan(lots())

	assert.Equal(t, first, second)
	assert.Equal(t, firstScanned, secondScanned)
}

func TestPlanCountsCandidatesBeforeFiltering(t *testing.T) {
	c := criteria(types.SortPriceAsc)
	c.MinPrice = 200

	lots := []*types.Lot{
		testLot(1, "Spotify Premium", 100, 1.0,
			variant("1 month", 150),
			variant("6 months", 800),
			variant("12 months", 1400)),
		testLot(2, "OpenAI API key", 100, 1.0),
		testLot(3, "Netflix account", 100, 1.0),
	}
	lots[2].BasePrice = 450

	offers, scanned := NewPlanner(c, nil).Plan(lots)

	assert.Equal(t, 5, scanned, "three variants plus two base offers, counted before any filter")
	require.Len(t, offers, 3, "price bound drops one variant, deny list drops one lot")
	assert.GreaterOrEqual(t, scanned, len(offers))
}
