package engine

import (
	"context"
	"time"

	"github.com/jonesrussell/finfeed/internal/cache"
	"github.com/jonesrussell/finfeed/internal/logger"
)

// List is the collection read-through used by search, history, and listing
// paths: fresh cache, then the live fetch, then stale cache, then an empty
// collection. An empty result is a valid (if unhelpful) answer on these
// paths, so total failure degrades instead of erroring. key must already be
// namespaced by the caller.
func List[T any](ctx context.Context, c *cache.Cache, log logger.Logger, key string, ttl time.Duration, fetch func(ctx context.Context) ([]T, error)) ([]T, error) {
	items, err := listThrough(ctx, c, log, key, ttl, fetch)
	if err != nil {
		log.Warn("Returning empty collection after all sources failed",
			logger.String("key", key),
			logger.Error(err),
		)
		return []T{}, nil
	}
	return items, nil
}

// ListStrict behaves like List but surfaces the live failure when no cached
// collection exists, so callers can distinguish "truly no results" from
// "upstream unavailable".
func ListStrict[T any](ctx context.Context, c *cache.Cache, log logger.Logger, key string, ttl time.Duration, fetch func(ctx context.Context) ([]T, error)) ([]T, error) {
	return listThrough(ctx, c, log, key, ttl, fetch)
}

func listThrough[T any](ctx context.Context, c *cache.Cache, log logger.Logger, key string, ttl time.Duration, fetch func(ctx context.Context) ([]T, error)) ([]T, error) {
	if log == nil {
		log = logger.NewNop()
	}

	if v, ok := c.Get(key); ok {
		if items, ok := v.([]T); ok {
			return items, nil
		}
	}

	items, err := fetch(ctx)
	if err == nil {
		c.SetWithTTL(key, items, ttl)
		return items, nil
	}

	if v, ok, fresh := c.GetStale(key); ok {
		if items, ok := v.([]T); ok {
			if !fresh {
				log.Warn("Serving stale collection after live fetch failure",
					logger.String("key", key),
				)
			}
			return items, nil
		}
	}

	return nil, err
}
