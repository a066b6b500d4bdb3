package report

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plati-tools/platiscout/internal/types"
)

func sampleResult() *types.RankedResultSet {
	return &types.RankedResultSet{
		SearchID:      "run-1",
		Query:         "spotify premium",
		RawCount:      14,
		FilteredCount: 2,
		Offers: []types.RankedOffer{
			{
				LotID:          101,
				Title:          "Spotify Premium 1 month",
				URL:            "https://plati.market/itm/101",
				Seller:         "GoodSeller",
				GroupName:      "Duration",
				VariantLabel:   "1 month",
				Price:          299.5,
				PriceFormatted: "299,50 руб.",
				Currency:       "RUB",
				Reliability: types.ReliabilitySnapshot{
					ReviewCount:   1200,
					PositiveRatio: 0.987,
				},
			},
			{
				LotID:    102,
				Title:    "Spotify Premium family",
				URL:      "https://plati.market/itm/102",
				Seller:   "OtherSeller",
				Price:    550,
				Currency: "RUB",
				Reliability: types.ReliabilitySnapshot{
					ReviewCount:   90,
					PositiveRatio: 0.9,
				},
			},
		},
		Stats: types.FetchStats{PagesScanned: 2},
	}
}

func TestRenderReport(t *testing.T) {
	renderer, err := NewRenderer()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, renderer.Render(&buf, sampleResult()))

	html := buf.String()
	assert.Contains(t, html, "spotify premium", "query appears in the header")
	assert.Contains(t, html, "Spotify Premium 1 month")
	assert.Contains(t, html, "https://plati.market/itm/101")
	assert.Contains(t, html, "GoodSeller")
	assert.Contains(t, html, "299,50 руб.", "formatted price is preferred")
	assert.Contains(t, html, "550.00 RUB", "plain fallback when no formatted price")
	assert.Contains(t, html, "98.7%")
	assert.Contains(t, html, "1 month")
}

func TestRenderEmptyResult(t *testing.T) {
	renderer, err := NewRenderer()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, renderer.Render(&buf, &types.RankedResultSet{Query: "nothing here"}))

	html := buf.String()
	assert.Contains(t, html, "nothing here")
	assert.NotContains(t, html, "data-cost", "no offer rows for an empty result")
}

func TestWriteFile(t *testing.T) {
	renderer, err := NewRenderer()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "report.html")
	require.NoError(t, renderer.WriteFile(path, sampleResult()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Spotify Premium family")
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "95.0%", formatPercent(0.95))
	assert.Equal(t, "199,00 руб.", formatPrice("199,00 руб.", 199, "RUB"))
	assert.Equal(t, "42.00 USD", formatPrice("", 42, "USD"))
}
