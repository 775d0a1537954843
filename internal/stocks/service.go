// Package stocks orchestrates the stock and Indian-market data domain on top
// of the generic aggregation engine.
package stocks

import (
	"context"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jonesrussell/finfeed/internal/cache"
	"github.com/jonesrussell/finfeed/internal/engine"
	"github.com/jonesrussell/finfeed/internal/logger"
	"github.com/jonesrussell/finfeed/internal/models"
	"github.com/jonesrussell/finfeed/internal/providers"
	"github.com/jonesrussell/finfeed/internal/validate"
)

// Domain TTLs. Quotes move fast; profiles and chart history barely move.
const (
	quoteTTL   = 5 * time.Minute
	profileTTL = 24 * time.Hour
	historyTTL = 24 * time.Hour
	searchTTL  = time.Hour

	searchLimit = 10
)

// quoteRules is the validation gate for live quotes: a day-over-day move of
// 30% or more on a listed stock is treated as provider garbage.
var quoteRules = validate.Rules{
	Required: []string{"symbol", "name", "price"},
	Positive: []string{"price"},
	Bounded:  []validate.Bound{{Field: "changesPercentage", MaxAbs: 30}},
}

var indexRules = validate.Rules{
	Required: []string{"symbol", "price"},
	Positive: []string{"price"},
}

// indianIndices are the market-overview indices, keyed by FMP symbol.
var indianIndices = []struct {
	Symbol string
	Name   string
}{
	{"NSEI", "NIFTY 50"},
	{"NSEBANK", "NIFTY BANK"},
	{"CNXIT", "NIFTY IT"},
	{"NSMIDCP", "NIFTY MIDCAP"},
	{"INDIAVIX", "INDIA VIX"},
	{"BSESN", "SENSEX"},
}

// Service exposes the per-domain stock operations.
type Service struct {
	fmp      *providers.FMP
	cache    *cache.Cache
	quotes   *engine.Engine[models.Stock]
	profiles *engine.Engine[models.StockProfile]
	indices  *engine.Engine[models.IndexQuote]
	log      logger.Logger
}

// NewService wires the stock engines. repo may be nil when running without a
// database; the quote path then degrades to pure read-through.
func NewService(fmp *providers.FMP, c *cache.Cache, repo engine.Store[models.Stock], log logger.Logger) *Service {
	s := &Service{fmp: fmp, cache: c, log: log}

	s.quotes = engine.New(engine.Source[models.Stock]{
		Name:  "stock",
		TTL:   quoteTTL,
		Fetch: fmp.Quote,
		Rules: quoteRules,
		Map:   mapQuote,
	}, c, repo, log)

	s.profiles = engine.New(engine.Source[models.StockProfile]{
		Name:  "stock-profile",
		TTL:   profileTTL,
		Fetch: fmp.Profile,
		Rules: validate.Rules{Required: []string{"symbol", "companyName"}},
		Map:   mapProfile,
	}, c, nil, log)

	s.indices = engine.New(engine.Source[models.IndexQuote]{
		Name:  "index",
		TTL:   quoteTTL,
		Fetch: fmp.Quote,
		Rules: indexRules,
		Map:   mapIndex,
	}, c, nil, log)

	return s
}

// OnRefresh registers a hook invoked after each successful validated quote
// fetch, used for event publishing.
func (s *Service) OnRefresh(fn func(symbol string, stock models.Stock)) {
	s.quotes.OnRefresh(fn)
}

// Quote returns the current quote for one symbol, preferring a fresh
// persisted record over an upstream call.
func (s *Service) Quote(ctx context.Context, symbol string) (models.Stock, error) {
	return s.quotes.GetDurable(ctx, normalizeSymbol(symbol))
}

// Quotes returns quotes for several symbols, skipping the ones no source can
// satisfy.
func (s *Service) Quotes(ctx context.Context, symbols []string) ([]models.Stock, error) {
	ids := make([]string, len(symbols))
	for i, sym := range symbols {
		ids[i] = normalizeSymbol(sym)
	}
	return s.quotes.GetMany(ctx, ids)
}

// Complete assembles the composite record for one symbol. The quote is the
// required sub-fetch; profile and history failures degrade the result rather
// than failing it.
func (s *Service) Complete(ctx context.Context, symbol string) (models.StockComplete, error) {
	symbol = normalizeSymbol(symbol)

	var (
		quote   models.Stock
		profile *models.StockProfile
		history []models.PricePoint
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		q, err := s.quotes.GetDurable(gctx, symbol)
		if err != nil {
			return err
		}
		quote = q
		return nil
	})
	g.Go(func() error {
		p, err := s.profiles.Get(gctx, symbol)
		if err == nil {
			profile = &p
		}
		return nil
	})
	g.Go(func() error {
		h, err := s.History(gctx, symbol, "daily")
		if err == nil {
			history = h
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return models.StockComplete{}, err
	}

	return models.StockComplete{
		Quote:    quote,
		Profile:  profile,
		History:  history,
		Degraded: profile == nil || len(history) == 0,
	}, nil
}

// History returns OHLCV bars for a symbol. This path is pure read-through
// with no persistence; upstream exhaustion surfaces as a typed error so
// callers can tell it apart from a symbol with no bars.
func (s *Service) History(ctx context.Context, symbol, timeframe string) ([]models.PricePoint, error) {
	symbol = normalizeSymbol(symbol)
	key := "stock:history:" + symbol + ":" + timeframe

	return engine.ListStrict(ctx, s.cache, s.log, key, historyTTL, func(ctx context.Context) ([]models.PricePoint, error) {
		bars, err := s.fmp.History(ctx, symbol, timeframe)
		if err != nil {
			return nil, err
		}
		points := make([]models.PricePoint, 0, len(bars))
		for _, bar := range bars {
			points = append(points, mapPricePoint(bar))
		}
		return points, nil
	})
}

// Search looks up symbols by ticker or name. An empty result is a valid
// answer, so total upstream failure degrades to an empty collection.
func (s *Service) Search(ctx context.Context, query string) ([]models.SearchResult, error) {
	query = strings.TrimSpace(query)
	key := "stock:search:" + strings.ToLower(query)

	return engine.List(ctx, s.cache, s.log, key, searchTTL, func(ctx context.Context) ([]models.SearchResult, error) {
		rows, err := s.fmp.Search(ctx, query, searchLimit)
		if err != nil {
			return nil, err
		}
		results := make([]models.SearchResult, 0, len(rows))
		for _, row := range rows {
			results = append(results, models.SearchResult{
				Symbol:   str(row, "symbol"),
				Name:     str(row, "name"),
				Exchange: str(row, "exchangeShortName"),
				Currency: str(row, "currency"),
			})
		}
		return results, nil
	})
}

// MarketOverview assembles the Indian-market block: index quotes plus market
// breadth. Indices that no source can satisfy are skipped.
func (s *Service) MarketOverview(ctx context.Context) (models.MarketOverview, error) {
	ids := make([]string, len(indianIndices))
	for i, idx := range indianIndices {
		ids[i] = idx.Symbol
	}

	quotes, err := s.indices.GetMany(ctx, ids)
	if err != nil {
		return models.MarketOverview{}, err
	}

	return models.MarketOverview{
		Indices: quotes,
		Breadth: estimateBreadth(quotes),
	}, nil
}

// estimateBreadth derives advance/decline counts from the NIFTY 50 move when
// no exchange breadth feed is available.
func estimateBreadth(indices []models.IndexQuote) models.MarketBreadth {
	var niftyChange float64
	for _, idx := range indices {
		if idx.Name == "NIFTY 50" {
			niftyChange = idx.ChangePercent
			break
		}
	}

	var advances, declines int
	switch {
	case niftyChange > 1.5:
		advances, declines = 40, 10
	case niftyChange > 0.5:
		advances, declines = 35, 15
	case niftyChange > -0.5:
		advances, declines = 25, 25
	case niftyChange > -1.5:
		advances, declines = 15, 35
	default:
		advances, declines = 10, 40
	}

	return models.MarketBreadth{
		Advances:  advances,
		Declines:  declines,
		Unchanged: 50 - advances - declines,
		Estimated: true,
	}
}

func mapQuote(id string, raw map[string]any) (models.Stock, error) {
	price, _ := validate.Number(raw["price"])
	change, _ := validate.Number(raw["change"])
	pct, _ := validate.Number(raw["changesPercentage"])
	volume, _ := validate.Number(raw["volume"])
	marketCap, _ := validate.Number(raw["marketCap"])

	return models.Stock{
		Symbol:        id,
		Name:          str(raw, "name"),
		Exchange:      str(raw, "exchange"),
		Price:         price,
		Change:        change,
		ChangePercent: pct,
		Volume:        int64(volume),
		MarketCap:     marketCap,
		AsOf:          time.Now().UTC(),
	}, nil
}

func mapProfile(id string, raw map[string]any) (models.StockProfile, error) {
	beta, _ := validate.Number(raw["beta"])
	return models.StockProfile{
		Symbol:      id,
		CompanyName: str(raw, "companyName"),
		Industry:    str(raw, "industry"),
		Sector:      str(raw, "sector"),
		Website:     str(raw, "website"),
		Description: str(raw, "description"),
		Beta:        beta,
	}, nil
}

func mapIndex(id string, raw map[string]any) (models.IndexQuote, error) {
	value, _ := validate.Number(raw["price"])
	change, _ := validate.Number(raw["change"])
	pct, _ := validate.Number(raw["changesPercentage"])

	name := id
	for _, idx := range indianIndices {
		if idx.Symbol == id {
			name = idx.Name
			break
		}
	}

	return models.IndexQuote{
		Name:          name,
		Value:         value,
		Change:        change,
		ChangePercent: pct,
		AsOf:          time.Now().UTC(),
	}, nil
}

func mapPricePoint(raw map[string]any) models.PricePoint {
	open, _ := validate.Number(raw["open"])
	high, _ := validate.Number(raw["high"])
	low, _ := validate.Number(raw["low"])
	closePrice, _ := validate.Number(raw["close"])
	volume, _ := validate.Number(raw["volume"])

	return models.PricePoint{
		Date:   str(raw, "date"),
		Open:   open,
		High:   high,
		Low:    low,
		Close:  closePrice,
		Volume: int64(volume),
	}
}

// normalizeSymbol trims whitespace and upper-cases the ticker while keeping
// exchange suffixes (RELIANCE.NS) intact.
func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

func str(raw map[string]any, key string) string {
	s, _ := raw[key].(string)
	return s
}
