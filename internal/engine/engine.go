// Package engine implements the generic source orchestrator behind every data
// domain: cache lookup, live fetch through the backoff client, validation,
// cache write, persistence, and the stale fallback chain. Domains supply a
// capability set (fetch, validation rules, mapper, optional store) and get the
// same temporal-consistency behavior everywhere.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jonesrussell/finfeed/internal/cache"
	"github.com/jonesrussell/finfeed/internal/logger"
	"github.com/jonesrussell/finfeed/internal/validate"
)

// defaultFanout bounds concurrent live fetches in GetMany.
const defaultFanout = 4

// Source describes one domain's capability set.
type Source[T any] struct {
	// Name namespaces cache keys and log lines.
	Name string
	// TTL is the freshness window for cached and persisted records.
	TTL time.Duration
	// Fetch retrieves the raw provider response for one identifier.
	Fetch func(ctx context.Context, id string) (map[string]any, error)
	// Rules is the validation gate applied to every raw response.
	Rules validate.Rules
	// Map converts a validated raw response into the domain record.
	Map func(id string, raw map[string]any) (T, error)
	// Revalidate, when set, re-checks cache hits before trusting them.
	// Domains that trust write-time validation leave it nil.
	Revalidate func(record T) bool
}

// Store is the persistence fallback for one domain. Implementations do no
// retrying of their own; failures propagate and the engine degrades.
type Store[T any] interface {
	// Find returns the persisted record, its asOf timestamp, and whether one
	// exists. The error is reserved for store failures.
	Find(ctx context.Context, id string) (record T, asOf time.Time, found bool, err error)
	// Upsert writes the record for id, creating it on first sight.
	Upsert(ctx context.Context, id string, record T) error
}

// Engine orchestrates one domain. It exclusively owns the decision of which
// source (cache, live, persisted) satisfies a call; cache and store hold data
// but never decide freshness policy.
type Engine[T any] struct {
	src   Source[T]
	cache *cache.Cache
	store Store[T]
	log   logger.Logger

	// onRefresh runs after every successful validated live fetch.
	onRefresh func(id string, record T)
}

// New creates an engine for one domain. store may be nil for pure
// read-through domains (search, chart data).
func New[T any](src Source[T], c *cache.Cache, store Store[T], log logger.Logger) *Engine[T] {
	if log == nil {
		log = logger.NewNop()
	}
	return &Engine[T]{
		src:   src,
		cache: c,
		store: store,
		log:   log.With(logger.String("domain", src.Name)),
	}
}

// OnRefresh registers a hook invoked after each successful validated fetch.
// The hook must not block.
func (e *Engine[T]) OnRefresh(fn func(id string, record T)) {
	e.onRefresh = fn
}

// Key returns the namespaced cache key for an identifier.
func (e *Engine[T]) Key(id string) string {
	return e.src.Name + ":" + id
}

// Invalidate drops the cached entry for id, including its stale slot.
func (e *Engine[T]) Invalidate(id string) {
	e.cache.Delete(e.Key(id))
}

// Get is the read-through path: fresh cache, then live fetch with validation,
// then stale cache. Persistence is not consulted on this path.
func (e *Engine[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	key := e.Key(id)

	if rec, ok := e.cachedFresh(key); ok {
		return rec, nil
	}

	rec, liveErr := e.fetchLive(ctx, id)
	if liveErr == nil {
		return rec, nil
	}

	if rec, ok := e.cachedStale(key, id); ok {
		return rec, nil
	}

	return zero, liveErr
}

// GetDurable is the persisted-entity path. The persisted record's freshness is
// checked before any live attempt so a recent value short-circuits the
// upstream call; after a failed fetch the fallback order is stale cache, then
// stale persisted record, then ErrDataUnavailable.
func (e *Engine[T]) GetDurable(ctx context.Context, id string) (T, error) {
	var zero T
	if e.store == nil {
		return e.Get(ctx, id)
	}

	key := e.Key(id)
	if rec, ok := e.cachedFresh(key); ok {
		return rec, nil
	}

	persisted, asOf, persistedFound := e.findPersisted(ctx, id)
	if persistedFound {
		if age := time.Since(asOf); age <= e.src.TTL {
			// Re-warm the cache only for the freshness remaining. A record
			// right at the boundary gets served but never re-warmed, since a
			// zero TTL would fall back to the cache's default window.
			if remaining := e.src.TTL - age; remaining > 0 {
				e.cache.SetWithTTL(key, persisted, remaining)
			}
			return persisted, nil
		}
	}

	rec, liveErr := e.fetchLive(ctx, id)
	if liveErr == nil {
		return rec, nil
	}

	if rec, ok := e.cachedStale(key, id); ok {
		return rec, nil
	}

	if persistedFound {
		e.log.Warn("Serving stale persisted record",
			logger.String("id", id),
			logger.Time("as_of", asOf),
			logger.Error(liveErr),
		)
		return persisted, nil
	}

	return zero, fmt.Errorf("%s %s: %w", e.src.Name, id, ErrDataUnavailable)
}

// GetMany fetches several identifiers concurrently through Get. Failed
// identifiers are logged and skipped; an empty result is a valid answer.
func (e *Engine[T]) GetMany(ctx context.Context, ids []string) ([]T, error) {
	results := make([]*T, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(defaultFanout)

	var mu sync.Mutex
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			rec, err := e.Get(gctx, id)
			if err != nil {
				e.log.Warn("Skipping failed identifier in batch",
					logger.String("id", id),
					logger.Error(err),
				)
				return nil
			}
			mu.Lock()
			results[i] = &rec
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]T, 0, len(ids))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out, nil
}

// cachedFresh returns a fresh cache hit, applying the domain's optional
// revalidation to it.
func (e *Engine[T]) cachedFresh(key string) (T, bool) {
	var zero T
	v, ok := e.cache.Get(key)
	if !ok {
		return zero, false
	}

	rec, ok := v.(T)
	if !ok {
		return zero, false
	}

	if e.src.Revalidate != nil && !e.src.Revalidate(rec) {
		e.log.Debug("Cached entry failed revalidation", logger.String("key", key))
		return zero, false
	}
	return rec, true
}

// cachedStale returns the last-known cached value regardless of expiry.
// Stale values are served without re-validation.
func (e *Engine[T]) cachedStale(key, id string) (T, bool) {
	var zero T
	v, ok, fresh := e.cache.GetStale(key)
	if !ok {
		return zero, false
	}

	rec, ok := v.(T)
	if !ok {
		return zero, false
	}

	if !fresh {
		e.log.Warn("Serving stale cached value after live fetch failure",
			logger.String("id", id),
		)
	}
	return rec, true
}

// fetchLive runs the live fetch, the validation gate, and on success commits
// the record to cache and persistence. Invalid data is never cached or
// persisted; persistence write failures are logged, never fatal.
func (e *Engine[T]) fetchLive(ctx context.Context, id string) (T, error) {
	var zero T

	raw, err := e.src.Fetch(ctx, id)
	if err != nil {
		return zero, err
	}

	if !validate.Valid(raw, e.src.Rules) {
		e.log.Warn("Provider response rejected by validation gate",
			logger.String("id", id),
		)
		return zero, fmt.Errorf("%s %s: %w", e.src.Name, id, ErrInvalidResponse)
	}

	rec, err := e.src.Map(id, raw)
	if err != nil {
		e.log.Warn("Provider response could not be mapped",
			logger.String("id", id),
			logger.Error(err),
		)
		return zero, fmt.Errorf("%s %s: %w", e.src.Name, id, ErrInvalidResponse)
	}

	e.cache.SetWithTTL(e.Key(id), rec, e.src.TTL)

	if e.store != nil {
		if upsertErr := e.store.Upsert(ctx, id, rec); upsertErr != nil {
			e.log.Error("Persistence write failed",
				logger.String("id", id),
				logger.Error(upsertErr),
			)
		}
	}

	if e.onRefresh != nil {
		e.onRefresh(id, rec)
	}
	return rec, nil
}

// findPersisted reads the persisted record, treating store failures as
// "persistence unavailable".
func (e *Engine[T]) findPersisted(ctx context.Context, id string) (T, time.Time, bool) {
	var zero T
	rec, asOf, found, err := e.store.Find(ctx, id)
	if err != nil {
		e.log.Warn("Persistence read failed",
			logger.String("id", id),
			logger.Error(err),
		)
		return zero, time.Time{}, false
	}
	return rec, asOf, found
}
