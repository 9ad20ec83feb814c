package grf

import (
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

// extractionCache is the bounded recent-decoded-bytes cache keyed by
// exact filename. It wraps hashicorp/golang-lru's generic Cache rather
// than hand-rolling a doubly-linked list — the same library the wider
// Go archive/cache ecosystem reaches for. The wrapped Cache already
// serializes its own recency bookkeeping; hits/misses use atomics so
// concurrent GetFile calls (which only hold the archive's read lock)
// never race on the counters.
type extractionCache struct {
	lru *lru.Cache[string, []byte]

	hits   atomic.Int64
	misses atomic.Int64
}

func newExtractionCache(capacity int) *extractionCache {
	if capacity <= 0 {
		capacity = 1
	}
	c, _ := lru.New[string, []byte](capacity)
	return &extractionCache{lru: c}
}

// get returns the cached bytes for name and moves it to the
// most-recently-used position, or reports a miss.
func (c *extractionCache) get(name string) ([]byte, bool) {
	data, ok := c.lru.Get(name)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return data, ok
}

// put inserts data for name, evicting the least-recently-used entry
// first if the cache is at capacity.
func (c *extractionCache) put(name string, data []byte) {
	c.lru.Add(name, data)
}

func (c *extractionCache) clear() {
	c.lru.Purge()
	c.hits.Store(0)
	c.misses.Store(0)
}

// hitRate returns the fraction of get calls that were hits, or 0 if get
// has never been called.
func (c *extractionCache) hitRate() float64 {
	hits, misses := c.hits.Load(), c.misses.Load()
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}
