package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/finfeed/internal/bootstrap"
	"github.com/jonesrussell/finfeed/internal/logger"
)

// refreshTimeout bounds the one-shot refresh run.
const refreshTimeout = 2 * time.Minute

// refreshCmd performs a single refresh of the tracked identifiers and exits.
// Useful from an external cron or as a cache warmer before deploys.
var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Refresh tracked symbols and coins once, then exit",
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg, err := bootstrap.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		log, err := bootstrap.CreateLogger(cfg, "dev")
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		defer func() { _ = log.Sync() }()

		db, err := bootstrap.SetupDatabase(cfg, log)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		if db != nil {
			defer func() {
				if closeErr := db.Close(); closeErr != nil {
					log.Error("Failed to close database", logger.Error(closeErr))
				}
			}()
		}

		publisher := bootstrap.SetupEventPublisher(cfg, log)
		svcs := bootstrap.SetupServices(cfg, db, publisher, log)

		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()

		if len(cfg.Scheduler.Symbols) > 0 {
			stocks, refreshErr := svcs.Stocks.Quotes(ctx, cfg.Scheduler.Symbols)
			if refreshErr != nil {
				return fmt.Errorf("refresh stocks: %w", refreshErr)
			}
			log.Info("Refreshed stock quotes",
				logger.Int("requested", len(cfg.Scheduler.Symbols)),
				logger.Int("refreshed", len(stocks)),
			)
		}

		if len(cfg.Scheduler.Coins) > 0 {
			coins, refreshErr := svcs.Crypto.Coins(ctx, cfg.Scheduler.Coins)
			if refreshErr != nil {
				return fmt.Errorf("refresh coins: %w", refreshErr)
			}
			log.Info("Refreshed coin snapshots",
				logger.Int("requested", len(cfg.Scheduler.Coins)),
				logger.Int("refreshed", len(coins)),
			)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(refreshCmd)
}
