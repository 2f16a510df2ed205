package lru

import (
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/haukened/spamguard/internal/spamguard/repos/blocklist"
)

// newLRU is a seam for tests.
var newLRU = func(size int, onEvict expirable.EvictCallback[string, *blocklist.Set], ttl time.Duration) *expirable.LRU[string, *blocklist.Set] {
	return expirable.NewLRU(size, onEvict, ttl)
}

// listCache is an expiring LRU of fetched remote lists keyed by source URL.
// It tracks hits, misses, and evictions (expiry included).
type listCache struct {
	lru       *expirable.LRU[string, *blocklist.Set]
	capacity  int
	hits      uint64
	misses    uint64
	evictions uint64
}

// disabledCache always misses and stores nothing.
type disabledCache struct{}

// New returns a ListCache holding up to size lists for ttl each.
// A non-positive size or ttl returns a disabled cache, which keeps every
// lookup going to the network.
func New(size int, ttl time.Duration) blocklist.ListCache {
	if size <= 0 || ttl <= 0 {
		return &disabledCache{}
	}
	c := &listCache{capacity: size}
	c.lru = newLRU(size, func(string, *blocklist.Set) {
		atomic.AddUint64(&c.evictions, 1)
	}, ttl)
	return c
}

func (c *listCache) Get(source string) (*blocklist.Set, bool) {
	if set, ok := c.lru.Get(source); ok {
		atomic.AddUint64(&c.hits, 1)
		return set, true
	}
	atomic.AddUint64(&c.misses, 1)
	return nil, false
}

// Put ignores nil sets; an unavailable list is never cached.
func (c *listCache) Put(source string, set *blocklist.Set) {
	if set == nil {
		return
	}
	c.lru.Add(source, set)
}

func (c *listCache) Len() int { return c.lru.Len() }

func (c *listCache) Stats() blocklist.CacheStats {
	return blocklist.CacheStats{
		Capacity:  c.capacity,
		Size:      c.lru.Len(),
		Hits:      atomic.LoadUint64(&c.hits),
		Misses:    atomic.LoadUint64(&c.misses),
		Evictions: atomic.LoadUint64(&c.evictions),
	}
}

func (*disabledCache) Get(string) (*blocklist.Set, bool) { return nil, false }

func (*disabledCache) Put(string, *blocklist.Set) {}

func (*disabledCache) Len() int { return 0 }

func (*disabledCache) Stats() blocklist.CacheStats { return blocklist.CacheStats{} }

var _ blocklist.ListCache = (*listCache)(nil)
var _ blocklist.ListCache = (*disabledCache)(nil)
