package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/plati-tools/platiscout/internal/metrics"
)

var statsRecentLimit int

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show local usage counters and recent search history",
	Long: `
Show cumulative invocation counts per mode and the most recent recorded
searches from the local statistics database (~/.platiscout/stats.db).

Examples:
  platiscout stats
  platiscout stats --recent 20
`,
	RunE: runStats,
}

func init() {
	statsCmd.Flags().IntVar(&statsRecentLimit, "recent", 10, "Number of recent searches to show")
}

func runStats(cmd *cobra.Command, args []string) error {
	if err := metrics.Init(); err != nil {
		return fmt.Errorf("failed to open stats database: %w", err)
	}
	defer metrics.Close()

	totals := metrics.GetStats()
	fmt.Println("Invocation totals:")
	for _, mode := range []metrics.Mode{metrics.ModeSearch, metrics.ModeReport, metrics.ModeMCP} {
		fmt.Printf("  %-8s %d\n", mode, totals[mode])
	}

	runs := metrics.RecentSearches(statsRecentLimit)
	if len(runs) == 0 {
		fmt.Println("\nNo recorded searches yet.")
		return nil
	}

	fmt.Printf("\nRecent searches (%d):\n", len(runs))
	for _, run := range runs {
		fmt.Printf("  %s  %-40q  raw=%d filtered=%d returned=%d  %dms\n",
			run.RanAt, run.Query, run.RawCount, run.FilteredCount, run.Returned, run.DurationMS)
	}
	return nil
}
