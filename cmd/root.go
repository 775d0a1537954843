// Package cmd defines the finfeed command-line interface.
package cmd

import (
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "finfeed",
	Short: "Resilient multi-source financial data aggregation service",
	Long: `finfeed aggregates stock, crypto, and news data from external
providers behind a layered fallback chain: in-process cache, live fetch
with retries, and persisted records.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to configuration file (default config.yml)")
}
