package bloom

import (
	"sync"

	bitsbloom "github.com/bits-and-blooms/bloom/v3"
)

// filter wraps a bits-and-blooms filter. Adds are serialized; a Set only adds
// while it is being built, so lookups take the read lock and never contend.
type filter struct {
	mu sync.RWMutex
	bf *bitsbloom.BloomFilter
}

func (f *filter) Add(key []byte) {
	f.mu.Lock()
	f.bf.Add(key)
	f.mu.Unlock()
}

func (f *filter) MightContain(key []byte) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.bf.Test(key)
}
