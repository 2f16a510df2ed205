package blocklist

import (
	"context"

	"golang.org/x/sync/singleflight"

	"github.com/haukened/spamguard/internal/spamguard/common/log"
)

// repository implements Repository by composing the curated set, a remote
// Fetcher and an optional ListCache.
//
// With a disabled cache every FetchExpanded performs its own fetch and the
// result is never shared. With an enabled cache, concurrent misses for the same
// source are collapsed into one fetch and only successful fetches are stored.
// A shared fetch ignores cancellation of the request that started it, so one
// disconnecting client cannot fail every request waiting on the same list.
type repository struct {
	fetcher Fetcher
	cache   ListCache
	logger  log.Logger
	group   singleflight.Group
}

// NewRepository constructs a Repository. A nil fetcher means the remote list is
// always unavailable; a nil cache disables caching.
func NewRepository(fetcher Fetcher, cache ListCache, logger log.Logger) Repository {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &repository{fetcher: fetcher, cache: cache, logger: logger}
}

// IsPriorityDisposable checks the curated set only. It never touches the network.
func (r *repository) IsPriorityDisposable(domain string) bool {
	return IsPriorityDisposable(domain)
}

// FetchExpanded returns the remote list, or ok=false when it is unavailable.
func (r *repository) FetchExpanded(ctx context.Context) (DomainSet, bool) {
	if r.fetcher == nil {
		return nil, false
	}
	if !r.cacheEnabled() {
		return asDomainSet(r.fetcher.Fetch(ctx))
	}

	source := r.fetcher.Source()
	if set, ok := r.cache.Get(source); ok {
		r.logger.Debug(map[string]any{"source": source, "domains": set.Len()}, "remote_list_cache_hit")
		return set, true
	}

	v, _, shared := r.group.Do(source, func() (any, error) {
		// a flight that finished between our Get and Do may have filled it
		if set, ok := r.cache.Get(source); ok {
			return set, nil
		}
		// the flight outlives the caller that started it; the fetcher's own
		// timeout still bounds it
		set, ok := r.fetcher.Fetch(context.WithoutCancel(ctx))
		if !ok {
			return (*Set)(nil), nil
		}
		r.cache.Put(source, set)
		return set, nil
	})
	set := v.(*Set)
	r.logger.Debug(map[string]any{"source": source, "shared": shared, "ok": set != nil}, "remote_list_cache_miss")
	return asDomainSet(set, set != nil)
}

func (r *repository) cacheEnabled() bool {
	return r.cache != nil && r.cache.Stats().Enabled()
}

// asDomainSet avoids handing callers a non-nil interface wrapping a nil *Set.
func asDomainSet(set *Set, ok bool) (DomainSet, bool) {
	if !ok || set == nil {
		return nil, false
	}
	return set, true
}

var _ Repository = (*repository)(nil)
