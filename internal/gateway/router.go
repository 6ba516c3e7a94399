// Package gateway implements mcpcore's hot-reloadable backend router
// (§4.9): a method-to-backend cache over a routing predicate list, refcounted
// backend lifecycle across reloads, and fsnotify/SIGHUP/admin-API reload
// triggers.
package gateway

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/brennhill/mcpcore/internal/hashtable"
	"github.com/brennhill/mcpcore/internal/rwlock"
)

// cacheEntry is what the method cache stores: backend is nil for a cached
// negative result (an unroutable method), found records whether that nil is
// meaningful (vs. "no entry yet").
type cacheEntry struct {
	backend *Backend
	found   bool
}

// Router is mcpcore's gateway router. The zero value is not usable;
// construct with New.
type Router struct {
	log *logrus.Entry

	cfgMu    sync.RWMutex
	backends map[string]*Backend
	routes   []Route

	cacheLock *rwlock.RWLock
	cache     *hashtable.Table[string, *cacheEntry]
}

// New constructs an empty Router (no backends, no routes — every Lookup
// misses until a configuration is loaded via Reload).
func New(log *logrus.Entry) *Router {
	if log == nil {
		log = logrus.NewEntry(logrus.New())
	}
	return &Router{
		log:       log,
		backends:  make(map[string]*Backend),
		cacheLock: rwlock.New(),
		cache:     newCacheTable(),
	}
}

func newCacheTable() *hashtable.Table[string, *cacheEntry] {
	return hashtable.New[string, *cacheEntry](hashMethod, equalMethod, nil)
}

func hashMethod(s string) uint64 {
	h := uint64(14695981039346656037)
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= 1099511628211
	}
	return h
}

func equalMethod(a, b string) bool { return a == b }

// Lookup resolves method to a backend, consulting the cache first (mcpcore
// §4.9 "cache consulted first"). A cache miss evaluates the full route list
// under a shared lock and inserts the result — positive or negative — into
// the cache so repeated unroutable methods don't rescan the route list.
func (g *Router) Lookup(method string) (*Backend, bool) {
	g.cacheLock.ReadLock()
	entry, hit := g.cache.Get(method)
	g.cacheLock.ReadUnlock()
	if hit {
		return entry.backend, entry.found
	}

	g.cfgMu.RLock()
	var matched *Backend
	for _, r := range g.routes {
		if r.matches(method) {
			matched = g.backends[r.Backend]
			break
		}
	}
	g.cfgMu.RUnlock()

	g.cacheLock.WriteLock()
	defer g.cacheLock.WriteUnlock()
	// Re-check: another goroutine may have raced this miss and already
	// inserted; avoid a redundant retain if so.
	if existing, already := g.cache.Get(method); already {
		return existing.backend, existing.found
	}
	if matched != nil {
		matched.retain()
	}
	g.cache.Put(method, &cacheEntry{backend: matched, found: matched != nil})
	return matched, matched != nil
}

// Reload parses the configuration file at path under an exclusive lock and
// atomically swaps the backend list and routes (mcpcore §4.9). The
// method-to-backend cache is cleared in full — positive and negative
// entries alike, per the spec's invariant that reload is the only cache
// invalidation trigger. Backends dropped by the new configuration are
// released only after the swap so concurrent readers holding old *Backend
// pointers from before the reload are never left with a pointer to a freed
// backend; the refcount keeps them alive until every holder releases.
func (g *Router) Reload(path string) error {
	g.cfgMu.Lock()
	cfg, err := loadFileConfig(path)
	if err != nil {
		g.cfgMu.Unlock()
		return err
	}

	newBackends := make(map[string]*Backend, len(cfg.Backends))
	for _, spec := range cfg.Backends {
		newBackends[spec.ID] = newBackend(spec.ID, spec.Address, g.log)
	}
	for id := range newBackends {
		newBackends[id].retain() // the routing table itself holds one reference
	}

	oldBackends := g.backends
	g.backends = newBackends
	g.routes = append([]Route(nil), cfg.Routes...)
	g.cfgMu.Unlock()

	g.clearCache()

	// A backend ID reappearing in the new config is a distinct instance;
	// the old routing-table reference is released like any other.
	for _, b := range oldBackends {
		b.release()
	}

	g.log.WithField("backends", len(newBackends)).WithField("routes", len(g.routes)).Info("gateway: configuration reloaded")
	return nil
}

// clearCache discards every cache entry, releasing each entry's backend
// reference (nil backends from negative entries are skipped).
func (g *Router) clearCache() {
	g.cacheLock.WriteLock()
	defer g.cacheLock.WriteUnlock()
	g.cache.Range(func(_ string, entry *cacheEntry) {
		if entry.backend != nil {
			entry.backend.release()
		}
	})
	g.cache = newCacheTable()
}

// Backends returns the currently configured backend count, for metrics/
// diagnostics.
func (g *Router) Backends() int {
	g.cfgMu.RLock()
	defer g.cfgMu.RUnlock()
	return len(g.backends)
}
