package storage

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// valueCache is the bounded read cache in front of the persistent engine.
//
// It is a strict least-recently-used cache of key→value strings: a hit
// promotes the entry to most-recently-used, an insert past capacity evicts
// the least-recently-used entry first. The cache knows nothing about the
// database behind it beyond what was explicitly inserted or removed, so it
// never holds a key the database lacks (writes go through, deletes purge
// it) but may be missing keys the database has.
//
// The underlying LRU guards itself with one lock held only for the single
// lookup or update; callers must never perform database I/O while inside a
// cache call.
type valueCache struct {
	entries *lru.Cache[string, string]
}

// newValueCache creates a cache holding at most capacity entries.
// Capacity must be positive.
func newValueCache(capacity int) (*valueCache, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("storage: cache capacity must be positive, got %d", capacity)
	}
	entries, err := lru.New[string, string](capacity)
	if err != nil {
		return nil, fmt.Errorf("storage: create cache: %w", err)
	}
	return &valueCache{entries: entries}, nil
}

// Get returns the cached value and promotes the entry on a hit.
func (c *valueCache) Get(key string) (string, bool) {
	return c.entries.Get(key)
}

// Put inserts or refreshes an entry, evicting the least-recently-used one
// if the cache is at capacity.
func (c *valueCache) Put(key, value string) {
	c.entries.Add(key, value)
}

// Remove drops an entry if present.
func (c *valueCache) Remove(key string) {
	c.entries.Remove(key)
}

// Purge drops every entry.
func (c *valueCache) Purge() {
	c.entries.Purge()
}

// Len returns the current entry count.
func (c *valueCache) Len() int {
	return c.entries.Len()
}

// Contains reports presence without promoting the entry.
func (c *valueCache) Contains(key string) bool {
	return c.entries.Contains(key)
}
