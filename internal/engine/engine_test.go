package engine

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/finfeed/internal/cache"
	"github.com/jonesrussell/finfeed/internal/logger"
	"github.com/jonesrussell/finfeed/internal/upstream"
	"github.com/jonesrussell/finfeed/internal/validate"
)

type quote struct {
	Symbol string
	Price  float64
}

var quoteRules = validate.Rules{
	Required: []string{"symbol", "price"},
	Positive: []string{"price"},
	Bounded:  []validate.Bound{{Field: "changesPercentage", MaxAbs: 30}},
}

// fakeStore is an in-memory Store with failure injection.
type fakeStore struct {
	records map[string]quote
	asOf    map[string]time.Time
	upserts int32
	findErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		records: make(map[string]quote),
		asOf:    make(map[string]time.Time),
	}
}

func (s *fakeStore) Find(_ context.Context, id string) (quote, time.Time, bool, error) {
	if s.findErr != nil {
		return quote{}, time.Time{}, false, s.findErr
	}
	rec, ok := s.records[id]
	if !ok {
		return quote{}, time.Time{}, false, nil
	}
	return rec, s.asOf[id], true, nil
}

func (s *fakeStore) Upsert(_ context.Context, id string, rec quote) error {
	atomic.AddInt32(&s.upserts, 1)
	s.records[id] = rec
	s.asOf[id] = time.Now()
	return nil
}

// fetchScript returns raw responses (or errors) in sequence, repeating the
// last step, and counts calls.
type fetchScript struct {
	calls int32
	steps []func() (map[string]any, error)
}

func (f *fetchScript) fetch(_ context.Context, _ string) (map[string]any, error) {
	n := int(atomic.AddInt32(&f.calls, 1)) - 1
	if n >= len(f.steps) {
		n = len(f.steps) - 1
	}
	return f.steps[n]()
}

func liveQuote(price float64) func() (map[string]any, error) {
	return func() (map[string]any, error) {
		return map[string]any{"symbol": "AAPL", "price": price, "changesPercentage": 1.0}, nil
	}
}

func liveFailure() func() (map[string]any, error) {
	return func() (map[string]any, error) {
		return nil, &upstream.Error{URL: "https://provider/quote/AAPL", Attempts: 4, Err: errors.New("connection refused")}
	}
}

func newQuoteEngine(script *fetchScript, ttl time.Duration, store Store[quote]) (*Engine[quote], *cache.Cache) {
	c := cache.New(time.Minute)
	src := Source[quote]{
		Name:  "stock",
		TTL:   ttl,
		Fetch: script.fetch,
		Rules: quoteRules,
		Map: func(id string, raw map[string]any) (quote, error) {
			return quote{Symbol: id, Price: raw["price"].(float64)}, nil
		},
	}
	return New(src, c, store, logger.NewNop()), c
}

func TestWarmCacheIdempotence(t *testing.T) {
	script := &fetchScript{steps: []func() (map[string]any, error){liveQuote(100)}}
	e, _ := newQuoteEngine(script, time.Minute, nil)

	first, err := e.Get(context.Background(), "AAPL")
	require.NoError(t, err)
	second, err := e.Get(context.Background(), "AAPL")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&script.calls), "warm cache must trigger at most one live call")
}

func TestLiveFailureFallsBackToStaleCache(t *testing.T) {
	script := &fetchScript{steps: []func() (map[string]any, error){liveFailure()}}
	store := newFakeStore()
	e, c := newQuoteEngine(script, 5*time.Minute, store)

	// Expired cache entry and a newer persisted record: the cached value must
	// still win in the fallback path.
	c.SetWithTTL(e.Key("AAPL"), quote{Symbol: "AAPL", Price: 95}, time.Millisecond)
	store.records["AAPL"] = quote{Symbol: "AAPL", Price: 99}
	store.asOf["AAPL"] = time.Now().Add(-10 * time.Minute)
	time.Sleep(5 * time.Millisecond)

	got, err := e.GetDurable(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 95.0, got.Price, "stale cache takes priority over the persisted record")
}

func TestDurableFreshPersistedSkipsLiveFetch(t *testing.T) {
	script := &fetchScript{steps: []func() (map[string]any, error){liveQuote(100)}}
	store := newFakeStore()
	e, _ := newQuoteEngine(script, 5*time.Minute, store)

	store.records["AAPL"] = quote{Symbol: "AAPL", Price: 98}
	store.asOf["AAPL"] = time.Now().Add(-time.Minute)

	got, err := e.GetDurable(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 98.0, got.Price)
	assert.Equal(t, int32(0), atomic.LoadInt32(&script.calls),
		"a persisted record within the TTL window must avoid the upstream call")
}

func TestDurableReWarmHonorsRemainingFreshness(t *testing.T) {
	script := &fetchScript{steps: []func() (map[string]any, error){liveQuote(100)}}
	store := newFakeStore()
	ttl := 500 * time.Millisecond
	e, c := newQuoteEngine(script, ttl, store)

	// A persisted record with almost no freshness left must re-warm the cache
	// for only the remaining sliver, never the cache's default window.
	store.records["AAPL"] = quote{Symbol: "AAPL", Price: 98}
	store.asOf["AAPL"] = time.Now().Add(-(ttl - 50*time.Millisecond))

	got, err := e.GetDurable(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 98.0, got.Price)

	time.Sleep(100 * time.Millisecond)
	_, ok := c.Get(e.Key("AAPL"))
	assert.False(t, ok, "re-warmed entry must expire with the record's original freshness window")
}

func TestDurableStalePersistedFallback(t *testing.T) {
	script := &fetchScript{steps: []func() (map[string]any, error){liveFailure()}}
	store := newFakeStore()
	e, _ := newQuoteEngine(script, 5*time.Minute, store)

	// asOf ten minutes old with a five minute TTL: not fresh, but the last
	// resort after the live fetch fails.
	store.records["AAPL"] = quote{Symbol: "AAPL", Price: 97}
	store.asOf["AAPL"] = time.Now().Add(-10 * time.Minute)

	got, err := e.GetDurable(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 97.0, got.Price)
	assert.Greater(t, atomic.LoadInt32(&script.calls), int32(0), "stale persisted record must not pre-empt the live attempt")
}

func TestInvalidResponseFallsBackAndIsNeverCommitted(t *testing.T) {
	invalid := func() (map[string]any, error) {
		return map[string]any{"symbol": "AAPL", "price": -5.0, "changesPercentage": 1.0}, nil
	}
	script := &fetchScript{steps: []func() (map[string]any, error){invalid}}
	store := newFakeStore()
	e, c := newQuoteEngine(script, 5*time.Minute, store)

	c.SetWithTTL(e.Key("AAPL"), quote{Symbol: "AAPL", Price: 95}, time.Millisecond)
	time.Sleep(5 * time.Millisecond)

	got, err := e.GetDurable(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 95.0, got.Price, "prior valid cache entry wins over invalid live data")
	assert.Equal(t, int32(0), atomic.LoadInt32(&store.upserts), "invalid data must never be persisted")

	v, ok, _ := c.GetStale(e.Key("AAPL"))
	require.True(t, ok)
	assert.Equal(t, 95.0, v.(quote).Price, "invalid data must never be cached")
}

func TestGetSurfacesUpstreamErrorWhenNoFallback(t *testing.T) {
	script := &fetchScript{steps: []func() (map[string]any, error){liveFailure()}}
	e, _ := newQuoteEngine(script, time.Minute, nil)

	_, err := e.Get(context.Background(), "AAPL")
	assert.True(t, upstream.IsUpstream(err))
}

func TestDurableReturnsDataUnavailableWhenNothingExists(t *testing.T) {
	script := &fetchScript{steps: []func() (map[string]any, error){liveFailure()}}
	store := newFakeStore()
	e, _ := newQuoteEngine(script, time.Minute, store)

	_, err := e.GetDurable(context.Background(), "MISSING")
	assert.ErrorIs(t, err, ErrDataUnavailable)
}

func TestDurableTreatsStoreFailureAsUnavailableFallback(t *testing.T) {
	script := &fetchScript{steps: []func() (map[string]any, error){liveQuote(101)}}
	store := newFakeStore()
	store.findErr = errors.New("connection reset")
	e, _ := newQuoteEngine(script, time.Minute, store)

	got, err := e.GetDurable(context.Background(), "AAPL")
	require.NoError(t, err, "a failing store must not block an otherwise valid live result")
	assert.Equal(t, 101.0, got.Price)
}

func TestRevalidateRejectsCacheHit(t *testing.T) {
	script := &fetchScript{steps: []func() (map[string]any, error){liveQuote(100)}}
	c := cache.New(time.Minute)
	src := Source[quote]{
		Name:  "stock",
		TTL:   time.Minute,
		Fetch: script.fetch,
		Rules: quoteRules,
		Map: func(id string, raw map[string]any) (quote, error) {
			return quote{Symbol: id, Price: raw["price"].(float64)}, nil
		},
		Revalidate: func(q quote) bool { return q.Price > 0 },
	}
	e := New(src, c, nil, logger.NewNop())

	c.Set(e.Key("AAPL"), quote{Symbol: "AAPL", Price: 0})

	got, err := e.Get(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 100.0, got.Price, "revalidation failure must fall through to a live fetch")
}

func TestGetManySkipsFailedIdentifiers(t *testing.T) {
	c := cache.New(time.Minute)
	src := Source[quote]{
		Name: "stock",
		TTL:  time.Minute,
		Fetch: func(_ context.Context, id string) (map[string]any, error) {
			if id == "BROKEN" {
				return nil, &upstream.Error{URL: "https://provider/quote/BROKEN", Attempts: 4, Err: errors.New("timeout")}
			}
			return map[string]any{"symbol": id, "price": 50.0, "changesPercentage": 0.5}, nil
		},
		Rules: quoteRules,
		Map: func(id string, raw map[string]any) (quote, error) {
			return quote{Symbol: id, Price: raw["price"].(float64)}, nil
		},
	}
	e := New(src, c, nil, logger.NewNop())

	got, err := e.GetMany(context.Background(), []string{"AAPL", "BROKEN", "MSFT"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "AAPL", got[0].Symbol)
	assert.Equal(t, "MSFT", got[1].Symbol)
}

func TestListCachesAndServesCollection(t *testing.T) {
	var calls int32
	c := cache.New(time.Minute)

	fetch := func(_ context.Context) ([]quote, error) {
		atomic.AddInt32(&calls, 1)
		return []quote{{Symbol: "AAPL", Price: 100}}, nil
	}

	first, err := List(context.Background(), c, logger.NewNop(), "stock:search:apple", time.Minute, fetch)
	require.NoError(t, err)
	second, err := List(context.Background(), c, logger.NewNop(), "stock:search:apple", time.Minute, fetch)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestListDegradesToEmptyCollection(t *testing.T) {
	c := cache.New(time.Minute)

	fetch := func(_ context.Context) ([]quote, error) {
		return nil, &upstream.Error{URL: "https://provider/search", Attempts: 4, Err: errors.New("unreachable")}
	}

	got, err := List(context.Background(), c, logger.NewNop(), "stock:search:apple", time.Minute, fetch)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got, "search degrades to an empty collection, not nil")
}

func TestListStrictSurfacesUpstreamError(t *testing.T) {
	c := cache.New(time.Minute)

	fetch := func(_ context.Context) ([]quote, error) {
		return nil, &upstream.Error{URL: "https://provider/history", Attempts: 4, Err: errors.New("unreachable")}
	}

	_, err := ListStrict(context.Background(), c, logger.NewNop(), "stock:history:AAPL", time.Minute, fetch)
	assert.True(t, upstream.IsUpstream(err))
}

func TestListServesStaleCollectionAfterFailure(t *testing.T) {
	c := cache.New(time.Minute)

	c.SetWithTTL("stock:search:apple", []quote{{Symbol: "AAPL", Price: 90}}, time.Millisecond)
	time.Sleep(5 * time.Millisecond)

	fetch := func(_ context.Context) ([]quote, error) {
		return nil, &upstream.Error{URL: "https://provider/search", Attempts: 4, Err: errors.New("unreachable")}
	}

	got, err := List(context.Background(), c, logger.NewNop(), "stock:search:apple", time.Minute, fetch)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 90.0, got[0].Price)
}
