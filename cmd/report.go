package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	appconfig "github.com/plati-tools/platiscout/internal/config"
	"github.com/plati-tools/platiscout/internal/metrics"
	"github.com/plati-tools/platiscout/internal/report"
)

var reportOutPath string

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Run a search and write a standalone HTML report",
	Long: `
Run a search and render the ranked offers into a standalone HTML file with a
sortable table. The file needs no server; open it in a browser.

Examples:
  platiscout report -q "chatgpt plus"
  platiscout report -q "spotify premium" --out spotify.html --min-reviews 100
`,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().StringVarP(&searchQuery, "query", "q", "", "Text query or Plati URL (required)")
	reportCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "Maximum number of offers to include (default from profile)")
	reportCmd.Flags().IntVar(&searchMinReviews, "min-reviews", 0, "Minimum seller review count")
	reportCmd.Flags().Float64Var(&searchMinRatio, "min-ratio", 0, "Minimum seller positive review ratio (0.0-1.0)")
	reportCmd.Flags().Float64Var(&searchMinPrice, "min-price", 0, "Minimum resolved price (0 disables)")
	reportCmd.Flags().Float64Var(&searchMaxPrice, "max-price", 0, "Maximum resolved price (0 disables)")
	reportCmd.Flags().StringVar(&searchInclude, "include", "", "Space/comma-separated terms that must appear in title/options")
	reportCmd.Flags().StringVar(&searchExclude, "exclude", "", "Space/comma-separated terms to exclude")
	reportCmd.Flags().StringVar(&searchSortBy, "sort", "price_asc", "Sort order: price_asc|price_desc|seller_reviews_desc|reliability_desc|title_asc|title_desc")
	reportCmd.Flags().IntVar(&searchMaxPages, "max-pages", 6, "Maximum catalogue pages to scan")
	reportCmd.Flags().IntVar(&searchPerPage, "per-page", 30, "Listings per catalogue page")
	reportCmd.Flags().StringVar(&searchCurrency, "currency", "RUB", "Price currency")
	reportCmd.Flags().StringVar(&searchLang, "lang", "ru-RU", "Response locale")
	reportCmd.Flags().IntVar(&searchTimeoutSecs, "timeout", 300, "Overall timeout in seconds")
	reportCmd.Flags().StringVarP(&reportOutPath, "out", "o", "plati_report.html", "HTML output file path")

	_ = reportCmd.MarkFlagRequired("query")
}

func runReport(cmd *cobra.Command, args []string) error {
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

	renderer, err := report.NewRenderer()
	if err != nil {
		return err
	}
	if err := renderer.WriteFile(reportOutPath, result); err != nil {
		return err
	}

	metrics.RecordInvocation(metrics.ModeReport)
	fmt.Printf("HTML report saved to: %s (%d offers)\n", reportOutPath, len(result.Offers))
	return nil
}
