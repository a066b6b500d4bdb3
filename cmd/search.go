package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	appconfig "github.com/plati-tools/platiscout/internal/config"
	"github.com/plati-tools/platiscout/internal/engine"
	"github.com/plati-tools/platiscout/internal/metrics"
	"github.com/plati-tools/platiscout/internal/plati"
	"github.com/plati-tools/platiscout/internal/types"
)

var (
	searchQuery       string
	searchLimit       int
	searchMinReviews  int
	searchMinRatio    float64
	searchMinPrice    float64
	searchMaxPrice    float64
	searchInclude     string
	searchExclude     string
	searchSortBy      string
	searchMaxPages    int
	searchPerPage     int
	searchCurrency    string
	searchLang        string
	searchOutputJSON  bool
	searchTimeoutSecs int
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search Plati offers and rank option variants",
	Long: `
Search the Plati marketplace by text query or Plati URL and print ranked
offers. Every listing is expanded into its purchasable option variants with
resolved prices; API key and token listings are excluded.

Examples:
  platiscout search -q "chatgpt plus"
  platiscout search -q "https://plati.market/search/spotify-premium" --json
  platiscout search -q "xbox game pass" --min-reviews 500 --min-ratio 0.98 --limit 5
  platiscout search -q "nordvpn" --sort reliability_desc --exclude "trial"
`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVarP(&searchQuery, "query", "q", "", "Text query or Plati URL (required)")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "Maximum number of offers to return (default from profile)")
	searchCmd.Flags().IntVar(&searchMinReviews, "min-reviews", 0, "Minimum seller review count")
	searchCmd.Flags().Float64Var(&searchMinRatio, "min-ratio", 0, "Minimum seller positive review ratio (0.0-1.0)")
	searchCmd.Flags().Float64Var(&searchMinPrice, "min-price", 0, "Minimum resolved price (0 disables)")
	searchCmd.Flags().Float64Var(&searchMaxPrice, "max-price", 0, "Maximum resolved price (0 disables)")
	searchCmd.Flags().StringVar(&searchInclude, "include", "", "Space/comma-separated terms that must appear in title/options")
	searchCmd.Flags().StringVar(&searchExclude, "exclude", "", "Space/comma-separated terms to exclude")
	searchCmd.Flags().StringVar(&searchSortBy, "sort", "price_asc", "Sort order: price_asc|price_desc|seller_reviews_desc|reliability_desc|title_asc|title_desc")
	searchCmd.Flags().IntVar(&searchMaxPages, "max-pages", 6, "Maximum catalogue pages to scan")
	searchCmd.Flags().IntVar(&searchPerPage, "per-page", 30, "Listings per catalogue page")
	searchCmd.Flags().StringVar(&searchCurrency, "currency", "RUB", "Price currency")
	searchCmd.Flags().StringVar(&searchLang, "lang", "ru-RU", "Response locale")
	searchCmd.Flags().BoolVarP(&searchOutputJSON, "json", "j", false, "Output results in JSON format")
	searchCmd.Flags().IntVar(&searchTimeoutSecs, "timeout", 300, "Overall timeout in seconds")

	_ = searchCmd.MarkFlagRequired("query")
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := appconfig.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(searchTimeoutSecs)*time.Second)
	defer cancel()

	result, err := runEngineSearch(ctx, cfg, cmd)
	if err != nil {
		return err
	}

	metrics.RecordInvocation(metrics.ModeSearch)

	if searchOutputJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	printResultTable(result)
	return nil
}

// runEngineSearch builds the engine and runs one query from the
// current flag values. Shared by the search and report commands.
func runEngineSearch(ctx context.Context, cfg *types.Config, cmd *cobra.Command) (*types.RankedResultSet, error) {
	client, err := plati.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create marketplace client: %w", err)
	}
	eng := engine.New(client, nil, cfg)

	criteria := types.SearchCriteria{
		Query:            searchQuery,
		Limit:            searchLimit,
		MinReviews:       cfg.DefaultMinReviews,
		MinPositiveRatio: cfg.DefaultMinPositiveRatio,
		MinPrice:         searchMinPrice,
		MaxPrice:         searchMaxPrice,
		IncludeTerms:     plati.SplitTerms(searchInclude),
		ExcludeTerms:     plati.SplitTerms(searchExclude),
		SortBy:           types.SortOrder(searchSortBy),
		MaxPages:         searchMaxPages,
		PerPage:          searchPerPage,
		Currency:         searchCurrency,
		Lang:             searchLang,
	}
	if cmd.Flags().Changed("min-reviews") {
		criteria.MinReviews = searchMinReviews
	}
	if cmd.Flags().Changed("min-ratio") {
		criteria.MinPositiveRatio = searchMinRatio
	}

	started := time.Now()
	result, err := eng.Search(ctx, criteria)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	metrics.RecordSearch(metrics.SearchRun{
		SearchID:      result.SearchID,
		Query:         result.Query,
		RawCount:      result.RawCount,
		FilteredCount: result.FilteredCount,
		Returned:      len(result.Offers),
		DurationMS:    time.Since(started).Milliseconds(),
	})
	return result, nil
}

func printResultTable(result *types.RankedResultSet) {
	fmt.Printf("Query: %s\n", result.Query)
	fmt.Printf("Offers: %d (%d matched of %d lots scanned, %d pages)\n\n",
		len(result.Offers), result.FilteredCount, result.RawCount, result.Stats.PagesScanned)

	for i, offer := range result.Offers {
		price := offer.PriceFormatted
		if price == "" {
			price = fmt.Sprintf("%.2f %s", offer.Price, offer.Currency)
		}
		fmt.Printf("%2d. %s\n", i+1, price)
		if offer.VariantLabel != "" {
			fmt.Printf("    Option: %s: %s\n", offer.GroupName, offer.VariantLabel)
		}
		fmt.Printf("    Seller: %s (%d reviews, %.1f%% positive)\n",
			offer.Seller, offer.Reliability.ReviewCount, offer.Reliability.PositiveRatio*100)
		fmt.Printf("    %s\n", offer.Title)
		fmt.Printf("    %s\n\n", offer.URL)
	}

	if result.Stats.FetchFailures > 0 || result.Stats.ParseFailures > 0 || result.Stats.PriceAnomalies > 0 {
		fmt.Printf("Skipped: %d fetch failures, %d parse failures, %d price anomalies\n",
			result.Stats.FetchFailures, result.Stats.ParseFailures, result.Stats.PriceAnomalies)
	}
}
