package blocklist

import (
	"context"

	"github.com/haukened/spamguard/internal/spamguard/domain"
)

// DomainSet is a read-only set of canonical disposable domains.
type DomainSet interface {
	Contains(name string) bool
	Lookup(name string) (domain.BlockRule, bool)
	Len() int
}

// BloomFilter is the minimal interface a Set needs from a Bloom filter.
type BloomFilter interface {
	Add(key []byte)
	MightContain(key []byte) bool
}

// BloomFactory builds filters sized for a capacity and target false-positive rate.
type BloomFactory interface {
	New(capacity uint64, fpRate float64) BloomFilter
}

// BloomSizer computes Bloom filter parameters from capacity (n) and target FP rate (p).
// It returns m (number of bits) and k (number of hash functions).
type BloomSizer interface {
	Size(n uint64, p float64) (m uint64, k uint8)
}

// Fetcher retrieves the expanded remote list. ok is false whenever the list
// is unavailable for any reason; implementations never return an error.
type Fetcher interface {
	Fetch(ctx context.Context) (set *Set, ok bool)
	Source() string
}

// ListCache holds fetched remote lists keyed by source URL.
type ListCache interface {
	Get(source string) (*Set, bool)
	Put(source string, set *Set)
	Len() int
	Stats() CacheStats
}

// Repository is the composition layer the scorer talks to:
// the curated priority set in front of the (optionally cached) remote list.
type Repository interface {
	IsPriorityDisposable(name string) bool
	FetchExpanded(ctx context.Context) (DomainSet, bool)
}
