// Package news orchestrates the financial-news domain over a priority-ordered
// provider chain.
package news

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jonesrussell/finfeed/internal/cache"
	"github.com/jonesrussell/finfeed/internal/engine"
	"github.com/jonesrussell/finfeed/internal/logger"
	"github.com/jonesrussell/finfeed/internal/models"
	"github.com/jonesrussell/finfeed/internal/providers"
	"github.com/jonesrussell/finfeed/internal/validate"
)

const (
	newsTTL      = 30 * time.Minute
	defaultLimit = 20
)

// articleRules drops articles that cannot be rendered or linked.
var articleRules = validate.Rules{
	Required: []string{"title", "url"},
}

// Service walks the provider chain in priority order and serves the first
// provider that answers.
type Service struct {
	chain []providers.NewsProvider
	cache *cache.Cache
	log   logger.Logger
}

// NewService takes the provider chain in priority order. An empty chain is
// valid and yields empty results.
func NewService(chain []providers.NewsProvider, c *cache.Cache, log logger.Logger) *Service {
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{chain: chain, cache: c, log: log}
}

// Headlines returns the current headlines for a category (business, markets).
func (s *Service) Headlines(ctx context.Context, category string, limit int) ([]models.NewsArticle, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	category = strings.ToLower(strings.TrimSpace(category))
	key := "news:headlines:" + category

	return engine.List(ctx, s.cache, s.log, key, newsTTL, func(ctx context.Context) ([]models.NewsArticle, error) {
		return s.fetchChain(ctx, func(ctx context.Context, p providers.NewsProvider) ([]map[string]any, error) {
			return p.Headlines(ctx, category, limit)
		})
	})
}

// Search returns articles matching a query.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]models.NewsArticle, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	query = strings.TrimSpace(query)
	key := "news:search:" + strings.ToLower(query)

	return engine.List(ctx, s.cache, s.log, key, newsTTL, func(ctx context.Context) ([]models.NewsArticle, error) {
		return s.fetchChain(ctx, func(ctx context.Context, p providers.NewsProvider) ([]map[string]any, error) {
			return p.Search(ctx, query, limit)
		})
	})
}

// fetchChain tries each provider in order, returning the first non-empty
// answer. A provider that succeeds with zero usable articles does not stop
// the chain.
func (s *Service) fetchChain(ctx context.Context, fetch func(ctx context.Context, p providers.NewsProvider) ([]map[string]any, error)) ([]models.NewsArticle, error) {
	var lastErr error

	for _, p := range s.chain {
		raw, err := fetch(ctx, p)
		if err != nil {
			s.log.Warn("News provider failed, trying next in chain",
				logger.String("provider", p.Name()),
				logger.Error(err),
			)
			lastErr = err
			continue
		}

		articles := mapArticles(raw, p.Name())
		if len(articles) == 0 {
			continue
		}
		return articles, nil
	}

	if lastErr != nil {
		return nil, lastErr
	}
	return nil, fmt.Errorf("news: %w", providers.ErrNoData)
}

// mapArticles applies the validation gate per article and drops the ones
// that fail; one bad article never poisons the batch.
func mapArticles(raw []map[string]any, providerName string) []models.NewsArticle {
	articles := make([]models.NewsArticle, 0, len(raw))
	for _, item := range raw {
		if !validate.Valid(item, articleRules) {
			continue
		}

		url := str(item, "url")
		published, _ := time.Parse(time.RFC3339, str(item, "publishedAt"))

		source := str(item, "source")
		if source == "" {
			source = providerName
		}

		articles = append(articles, models.NewsArticle{
			// Deterministic id: the same article keeps the same id across
			// refreshes and providers.
			ID:          uuid.NewSHA1(uuid.NameSpaceURL, []byte(url)).String(),
			Title:       str(item, "title"),
			Description: str(item, "description"),
			URL:         url,
			ImageURL:    str(item, "urlToImage"),
			Source:      source,
			Author:      str(item, "author"),
			PublishedAt: published,
		})
	}
	return articles
}

func str(raw map[string]any, key string) string {
	s, _ := raw[key].(string)
	return s
}
