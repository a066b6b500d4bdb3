package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "platiscout",
	Short: "platiscout - offer search and ranking for the Plati marketplace",
	Long: `platiscout finds subscription and account offers on the Plati marketplace
through the Digiseller API, expands every listing into its purchasable option
variants with resolved prices, filters out API key and token listings, and
ranks what remains by price or seller reliability.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(mcpServerCmd)
	rootCmd.AddCommand(statsCmd)
}
