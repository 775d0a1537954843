package cmd

import (
	"github.com/spf13/cobra"

	"github.com/jonesrussell/finfeed/internal/bootstrap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE: func(_ *cobra.Command, _ []string) error {
		return bootstrap.Start(configPath)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
