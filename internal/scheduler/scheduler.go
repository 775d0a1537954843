// Package scheduler runs the background refresh job that keeps tracked
// identifiers warm, so dashboard requests rarely pay the live-fetch cost.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jonesrussell/finfeed/internal/logger"
	"github.com/jonesrussell/finfeed/internal/models"
)

// refreshTimeout bounds one full refresh tick.
const refreshTimeout = 2 * time.Minute

// StockRefresher warms stock quotes.
type StockRefresher interface {
	Quotes(ctx context.Context, symbols []string) ([]models.Stock, error)
}

// CryptoRefresher warms coin snapshots.
type CryptoRefresher interface {
	Coins(ctx context.Context, ids []string) ([]models.Crypto, error)
}

// Scheduler owns the cron runner and the tracked identifier lists.
type Scheduler struct {
	cron    *cron.Cron
	stocks  StockRefresher
	crypto  CryptoRefresher
	symbols []string
	coins   []string
	log     logger.Logger
}

// New creates a scheduler for the given tracked identifiers. Empty lists are
// valid; the corresponding refresh is skipped.
func New(stocks StockRefresher, crypto CryptoRefresher, symbols, coins []string, log logger.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		stocks:  stocks,
		crypto:  crypto,
		symbols: symbols,
		coins:   coins,
		log:     log,
	}
}

// Start registers the refresh job under spec and starts the cron runner.
func (s *Scheduler) Start(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.refresh); err != nil {
		return err
	}
	s.cron.Start()
	s.log.Info("Refresh scheduler started",
		logger.String("spec", spec),
		logger.Int("symbols", len(s.symbols)),
		logger.Int("coins", len(s.coins)),
	)
	return nil
}

// Stop halts the cron runner and waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info("Refresh scheduler stopped")
}

// refresh warms every tracked identifier. Failures are already logged and
// skipped inside the batch paths, so a partial refresh never aborts the tick.
func (s *Scheduler) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	start := time.Now()

	if len(s.symbols) > 0 && s.stocks != nil {
		stocks, err := s.stocks.Quotes(ctx, s.symbols)
		if err != nil {
			s.log.Error("Stock refresh tick failed", logger.Error(err))
		} else {
			s.log.Debug("Refreshed stock quotes",
				logger.Int("requested", len(s.symbols)),
				logger.Int("refreshed", len(stocks)),
			)
		}
	}

	if len(s.coins) > 0 && s.crypto != nil {
		coins, err := s.crypto.Coins(ctx, s.coins)
		if err != nil {
			s.log.Error("Crypto refresh tick failed", logger.Error(err))
		} else {
			s.log.Debug("Refreshed coin snapshots",
				logger.Int("requested", len(s.coins)),
				logger.Int("refreshed", len(coins)),
			)
		}
	}

	s.log.Info("Refresh tick complete",
		logger.Duration("duration", time.Since(start)),
	)
}
