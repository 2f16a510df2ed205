package blocklist

// CacheStats reports lightweight cache metrics.
// All fields are best-effort snapshots and may be updated concurrently.
type CacheStats struct {
	Capacity  int    // configured capacity (0 for disabled cache)
	Size      int    // current number of entries
	Hits      uint64 // total cache hits since construction
	Misses    uint64 // total cache misses since construction
	Evictions uint64 // total evictions (including expiry) since construction
}

// Enabled reports whether the cache can hold anything.
func (s CacheStats) Enabled() bool { return s.Capacity > 0 }
