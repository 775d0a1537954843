// Package cache implements the in-process TTL cache shared by all data domains.
//
// Entries are retained after their TTL elapses: Get filters expired entries out,
// while GetStale returns the last written value regardless of age. The stale slot
// exists so orchestrators can serve last-known data when a live fetch fails.
package cache

import (
	"sync"
	"time"
)

// DefaultTTL is the process-wide fallback TTL applied by Set.
const DefaultTTL = 300 * time.Second

type entry struct {
	value     any
	writtenAt time.Time
	expiresAt time.Time
}

// Stats holds cache observability counters.
type Stats struct {
	Hits    uint64
	Misses  uint64
	Stale   uint64
	Entries int
}

// Cache is a concurrency-safe key/value store with per-entry expiry.
// It performs no I/O and never blocks beyond its internal mutex.
type Cache struct {
	mu         sync.RWMutex
	entries    map[string]entry
	defaultTTL time.Duration

	hits   uint64
	misses uint64
	stale  uint64

	// now is swappable in tests
	now func() time.Time
}

// New creates a cache with the given default TTL. A non-positive TTL falls back
// to DefaultTTL.
func New(defaultTTL time.Duration) *Cache {
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}
	return &Cache{
		entries:    make(map[string]entry),
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
}

// Get returns the value for key if it exists and has not expired.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || c.now().After(e.expiresAt) {
		c.misses++
		return nil, false
	}

	c.hits++
	return e.value, true
}

// GetStale returns the last written value for key even if it has expired.
// The second return reports whether any value exists; the third reports
// whether that value is still fresh.
func (c *Cache) GetStale(key string) (any, bool, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false, false
	}

	fresh := !c.now().After(e.expiresAt)
	if !fresh {
		c.stale++
	}
	return e.value, true, fresh
}

// WrittenAt returns the write timestamp for key, if present.
func (c *Cache) WrittenAt(key string) (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok {
		return time.Time{}, false
	}
	return e.writtenAt, true
}

// Set writes key with the cache's default TTL. Last writer wins.
func (c *Cache) Set(key string, value any) {
	c.SetWithTTL(key, value, c.defaultTTL)
}

// SetWithTTL writes key with an explicit TTL, overwriting any prior entry.
// A non-positive ttl falls back to the default.
func (c *Cache) SetWithTTL(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.entries[key] = entry{
		value:     value,
		writtenAt: now,
		expiresAt: now.Add(ttl),
	}
}

// Delete removes key, including its stale slot.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Flush removes all entries.
func (c *Cache) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
}

// Sweep drops entries written longer than maxAge ago and returns the count
// removed. Correctness of Get never depends on sweeping; this only bounds
// memory held by stale fallback values.
func (c *Cache) Sweep(maxAge time.Duration) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := c.now().Add(-maxAge)
	removed := 0
	for key, e := range c.entries {
		if e.writtenAt.Before(cutoff) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Stats returns a snapshot of cache counters.
func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return Stats{
		Hits:    c.hits,
		Misses:  c.misses,
		Stale:   c.stale,
		Entries: len(c.entries),
	}
}
