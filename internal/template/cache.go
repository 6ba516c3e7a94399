package template

import (
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CacheCapacity is the bound on the parsed-template cache (mcpcore §4.3).
const CacheCapacity = 128

// Stats is a point-in-time snapshot of cache activity.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Lookups   int64
	Size      int
}

// Cache is a bounded LRU cache of parsed templates keyed by template string.
// The reference design shifts out the oldest entry on fill (O(N) per
// eviction); this implementation follows the Design Notes' guidance to
// prefer a proper LRU (doubly linked list + map under the hood, via
// hashicorp/golang-lru) since behavior is equivalent and performance is
// better. Parse failures are never cached — Lookup only ever returns
// previously successful parses, or nil.
type Cache struct {
	mu        sync.Mutex
	inner     *lru.Cache[string, *Parsed]
	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
	lookups   atomic.Int64
}

// NewCache constructs a template cache at the fixed §4.3 capacity.
func NewCache() *Cache {
	c := &Cache{}
	inner, _ := lru.NewWithEvict[string, *Parsed](CacheCapacity, func(key string, value *Parsed) {
		c.evictions.Add(1)
	})
	c.inner = inner
	return c
}

// Lookup parses tpl, serving from cache on a hit. A parse failure returns
// (nil, err) and never poisons the cache.
func (c *Cache) Lookup(tpl string) (*Parsed, error) {
	c.lookups.Add(1)

	c.mu.Lock()
	if p, ok := c.inner.Get(tpl); ok {
		c.mu.Unlock()
		c.hits.Add(1)
		return p, nil
	}
	c.mu.Unlock()

	c.misses.Add(1)
	p, err := Parse(tpl)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.inner.Add(tpl, p)
	c.mu.Unlock()
	return p, nil
}

// Stats returns a snapshot of cache counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	size := c.inner.Len()
	c.mu.Unlock()
	return Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
		Lookups:   c.lookups.Load(),
		Size:      size,
	}
}

// Purge clears the cache and its counters (used on process restart / tests;
// the cache itself is never persisted across restarts).
func (c *Cache) Purge() {
	c.mu.Lock()
	c.inner.Purge()
	c.mu.Unlock()
	c.hits.Store(0)
	c.misses.Store(0)
	c.evictions.Store(0)
	c.lookups.Store(0)
}
