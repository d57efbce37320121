package service

import (
	"sort"
	"sync"
	"time"
)

// allKey is the entry id under which a collection's list is cached.
const allKey = "all"

type lookupResult string

const (
	lookupHit   lookupResult = "hit"
	lookupMiss  lookupResult = "miss"
	lookupStale lookupResult = "stale"
)

type cacheKey struct {
	collection string
	id         string
}

type cacheEntry struct {
	value     any
	fresh     bool
	fetchedAt time.Time
}

// EntryInfo describes one cache entry.
type EntryInfo struct {
	Collection string
	ID         string
	Fresh      bool
	FetchedAt  time.Time
}

// EntityCache is the process-wide read cache shared by every collection.
// Entries are keyed by (collection, id | "all"). Each collection carries a
// generation counter bumped on invalidation; a fetch only lands as fresh if
// the generation it started under is still current.
type EntityCache struct {
	mu      sync.Mutex
	entries map[cacheKey]*cacheEntry
	gens    map[string]uint64
	now     func() time.Time
}

// NewEntityCache returns an empty cache.
func NewEntityCache() *EntityCache {
	return &EntityCache{
		entries: make(map[cacheKey]*cacheEntry),
		gens:    make(map[string]uint64),
		now:     time.Now,
	}
}

// lookup returns the entry value only when it is fresh.
func (c *EntityCache) lookup(collection, id string) (any, lookupResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[cacheKey{collection, id}]
	switch {
	case !ok:
		return nil, lookupMiss
	case !e.fresh:
		return nil, lookupStale
	}
	return e.value, lookupHit
}

// generation returns the current generation of collection.
func (c *EntityCache) generation(collection string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gens[collection]
}

// put stores value as fresh if collection is still at gen. It reports
// whether the value was stored.
func (c *EntityCache) put(collection, id string, value any, gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gens[collection] != gen {
		return false
	}
	c.entries[cacheKey{collection, id}] = &cacheEntry{value: value, fresh: true, fetchedAt: c.now()}
	return true
}

// Invalidate marks every entry of collection stale.
func (c *EntityCache) Invalidate(collection string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gens[collection]++
	for k, e := range c.entries {
		if k.collection == collection {
			e.fresh = false
		}
	}
}

// Entries lists the entries of collection ordered by id.
func (c *EntityCache) Entries(collection string) []EntryInfo {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]EntryInfo, 0)
	for k, e := range c.entries {
		if k.collection != collection {
			continue
		}
		out = append(out, EntryInfo{Collection: k.collection, ID: k.id, Fresh: e.fresh, FetchedAt: e.fetchedAt})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
