// Package crypto orchestrates the cryptocurrency data domain.
package crypto

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/jonesrussell/finfeed/internal/cache"
	"github.com/jonesrussell/finfeed/internal/engine"
	"github.com/jonesrussell/finfeed/internal/logger"
	"github.com/jonesrussell/finfeed/internal/models"
	"github.com/jonesrussell/finfeed/internal/providers"
	"github.com/jonesrussell/finfeed/internal/validate"
)

const (
	coinTTL   = 5 * time.Minute
	listTTL   = 5 * time.Minute
	searchTTL = time.Hour

	defaultTopMarkets = 20
)

// coinRules mirrors the stock gate but with a looser bound: a 50% daily move
// is implausible even for crypto.
var coinRules = validate.Rules{
	Required: []string{"id", "name", "current_price"},
	Positive: []string{"current_price"},
	Bounded:  []validate.Bound{{Field: "price_change_percentage_24h", MaxAbs: 50}},
}

// Service exposes the per-domain crypto operations.
type Service struct {
	gecko *providers.CoinGecko
	cache *cache.Cache
	coins *engine.Engine[models.Crypto]
	log   logger.Logger
}

// NewService wires the coin engine. repo may be nil when running without a
// database.
func NewService(gecko *providers.CoinGecko, c *cache.Cache, repo engine.Store[models.Crypto], log logger.Logger) *Service {
	s := &Service{gecko: gecko, cache: c, log: log}

	s.coins = engine.New(engine.Source[models.Crypto]{
		Name:  "crypto",
		TTL:   coinTTL,
		Fetch: gecko.Coin,
		Rules: coinRules,
		Map:   mapCoin,
	}, c, repo, log)

	return s
}

// OnRefresh registers a hook invoked after each successful validated coin
// fetch.
func (s *Service) OnRefresh(fn func(id string, coin models.Crypto)) {
	s.coins.OnRefresh(fn)
}

// Coin returns the current snapshot for one coin id, preferring a fresh
// persisted record over an upstream call.
func (s *Service) Coin(ctx context.Context, id string) (models.Crypto, error) {
	return s.coins.GetDurable(ctx, normalizeID(id))
}

// Coins returns snapshots for several coin ids, skipping the ones no source
// can satisfy.
func (s *Service) Coins(ctx context.Context, ids []string) ([]models.Crypto, error) {
	normalized := make([]string, len(ids))
	for i, id := range ids {
		normalized[i] = normalizeID(id)
	}
	return s.coins.GetMany(ctx, normalized)
}

// TopMarkets returns the top-n coins by market cap. Total upstream failure
// degrades to an empty collection.
func (s *Service) TopMarkets(ctx context.Context, n int) ([]models.Crypto, error) {
	if n <= 0 {
		n = defaultTopMarkets
	}
	key := "crypto:markets:" + strconv.Itoa(n)

	return engine.List(ctx, s.cache, s.log, key, listTTL, func(ctx context.Context) ([]models.Crypto, error) {
		rows, err := s.gecko.Markets(ctx, n)
		if err != nil {
			return nil, err
		}
		coins := make([]models.Crypto, 0, len(rows))
		for _, row := range rows {
			if !validate.Valid(row, coinRules) {
				continue
			}
			coin, err := mapCoin(str(row, "id"), row)
			if err != nil {
				continue
			}
			coins = append(coins, coin)
		}
		return coins, nil
	})
}

// Search looks up coins by name or symbol.
func (s *Service) Search(ctx context.Context, query string) ([]models.CoinSearchResult, error) {
	query = strings.TrimSpace(query)
	key := "crypto:search:" + strings.ToLower(query)

	return engine.List(ctx, s.cache, s.log, key, searchTTL, func(ctx context.Context) ([]models.CoinSearchResult, error) {
		rows, err := s.gecko.Search(ctx, query)
		if err != nil {
			return nil, err
		}
		results := make([]models.CoinSearchResult, 0, len(rows))
		for _, row := range rows {
			rank, _ := validate.Number(row["market_cap_rank"])
			results = append(results, models.CoinSearchResult{
				ID:            str(row, "id"),
				Symbol:        str(row, "symbol"),
				Name:          str(row, "name"),
				MarketCapRank: int(rank),
			})
		}
		return results, nil
	})
}

func mapCoin(id string, raw map[string]any) (models.Crypto, error) {
	price, _ := validate.Number(raw["current_price"])
	change, _ := validate.Number(raw["price_change_24h"])
	pct, _ := validate.Number(raw["price_change_percentage_24h"])
	marketCap, _ := validate.Number(raw["market_cap"])
	volume, _ := validate.Number(raw["total_volume"])

	return models.Crypto{
		ID:               id,
		Symbol:           str(raw, "symbol"),
		Name:             str(raw, "name"),
		CurrentPrice:     price,
		Change24h:        change,
		ChangePercent24h: pct,
		MarketCap:        marketCap,
		Volume24h:        volume,
		AsOf:             time.Now().UTC(),
	}, nil
}

// normalizeID lower-cases the coin id; the provider treats ids as
// case-sensitive lowercase slugs.
func normalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

func str(raw map[string]any, key string) string {
	s, _ := raw[key].(string)
	return s
}
