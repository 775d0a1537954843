package bootstrap

import (
	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/finfeed/internal/cache"
	"github.com/jonesrussell/finfeed/internal/config"
	"github.com/jonesrussell/finfeed/internal/crypto"
	"github.com/jonesrussell/finfeed/internal/database"
	"github.com/jonesrussell/finfeed/internal/engine"
	"github.com/jonesrussell/finfeed/internal/events"
	"github.com/jonesrussell/finfeed/internal/logger"
	"github.com/jonesrussell/finfeed/internal/models"
	"github.com/jonesrussell/finfeed/internal/news"
	"github.com/jonesrussell/finfeed/internal/providers"
	"github.com/jonesrussell/finfeed/internal/stocks"
	"github.com/jonesrussell/finfeed/internal/upstream"
)

// Services holds the wired domain services.
type Services struct {
	Stocks *stocks.Service
	Crypto *crypto.Service
	News   *news.Service
	Cache  *cache.Cache
}

// SetupServices wires providers, cache, engines, and repositories into the
// domain services. db and publisher may be nil.
func SetupServices(cfg *config.Config, db *sqlx.DB, publisher *events.Publisher, log logger.Logger) *Services {
	client := upstream.NewClient(upstream.Config{
		MaxRetries:        cfg.Upstream.MaxRetries,
		InitialDelay:      cfg.Upstream.InitialDelay,
		AttemptTimeout:    cfg.Upstream.AttemptTimeout,
		RateLimitCooldown: cfg.Upstream.RateLimitCooldown,
		UserAgent:         "finfeed/1.0",
	}, log)

	c := cache.New(cfg.Cache.TTL())

	var stockRepo engine.Store[models.Stock]
	var cryptoRepo engine.Store[models.Crypto]
	if db != nil {
		stockRepo = database.NewStockRepository(db)
		cryptoRepo = database.NewCryptoRepository(db)
	}

	fmp := providers.NewFMP(cfg.Providers.FMPBaseURL, cfg.Providers.FMPAPIKey, client)
	stockSvc := stocks.NewService(fmp, c, stockRepo, log)

	gecko := providers.NewCoinGecko(cfg.Providers.GeckoBaseURL, client)
	cryptoSvc := crypto.NewService(gecko, c, cryptoRepo, log)

	// The news chain is priority-ordered; providers without keys are left out.
	var chain []providers.NewsProvider
	if cfg.Providers.NewsAPIKey != "" {
		chain = append(chain, providers.NewNewsAPI(cfg.Providers.NewsAPIURL, cfg.Providers.NewsAPIKey, client))
	}
	if cfg.Providers.GNewsAPIKey != "" {
		chain = append(chain, providers.NewGNews(cfg.Providers.GNewsBaseURL, cfg.Providers.GNewsAPIKey, client))
	}
	newsSvc := news.NewService(chain, c, log)

	if publisher != nil {
		stockSvc.OnRefresh(func(symbol string, _ models.Stock) {
			publisher.PublishAsync(events.RefreshEvent{Domain: "stock", ID: symbol})
		})
		cryptoSvc.OnRefresh(func(id string, _ models.Crypto) {
			publisher.PublishAsync(events.RefreshEvent{Domain: "crypto", ID: id})
		})
	}

	return &Services{
		Stocks: stockSvc,
		Crypto: cryptoSvc,
		News:   newsSvc,
		Cache:  c,
	}
}
