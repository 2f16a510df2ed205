package blocklist

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/haukened/spamguard/internal/spamguard/common/log"
)

type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) Fetch(ctx context.Context) (*Set, bool) {
	args := m.Called(ctx)
	set, _ := args.Get(0).(*Set)
	return set, args.Bool(1)
}

func (m *MockFetcher) Source() string {
	return m.Called().String(0)
}

// memoryCache is a minimal enabled ListCache.
type memoryCache struct {
	mu   sync.Mutex
	sets map[string]*Set
}

func newMemoryCache() *memoryCache { return &memoryCache{sets: map[string]*Set{}} }

func (c *memoryCache) Get(src string) (*Set, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sets[src]
	return s, ok
}

func (c *memoryCache) Put(src string, s *Set) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets[src] = s
}

func (c *memoryCache) Len() int { return len(c.sets) }
func (c *memoryCache) Stats() CacheStats {
	return CacheStats{Capacity: 8, Size: len(c.sets)}
}

func TestRepository_PriorityNeverFetches(t *testing.T) {
	f := &MockFetcher{}
	r := NewRepository(f, nil, log.NewNoopLogger())

	assert.True(t, r.IsPriorityDisposable("Mailinator.com"))
	assert.False(t, r.IsPriorityDisposable("gmail.com"))
	f.AssertNotCalled(t, "Fetch", mock.Anything)
}

func TestRepository_FetchWithoutCache(t *testing.T) {
	set := NewSet(rules(t, "disposable.example"), nil, 0)
	f := &MockFetcher{}
	f.On("Fetch", mock.Anything).Return(set, true).Twice()

	r := NewRepository(f, nil, nil)
	for i := 0; i < 2; i++ {
		got, ok := r.FetchExpanded(context.Background())
		require.True(t, ok)
		assert.True(t, got.Contains("disposable.example"))
	}
	f.AssertNumberOfCalls(t, "Fetch", 2)
}

func TestRepository_FetchUnavailable(t *testing.T) {
	f := &MockFetcher{}
	f.On("Fetch", mock.Anything).Return(nil, false)

	r := NewRepository(f, nil, log.NewNoopLogger())
	got, ok := r.FetchExpanded(context.Background())
	assert.False(t, ok)
	assert.Nil(t, got, "unavailable list must be a nil interface")
}

func TestRepository_NilFetcher(t *testing.T) {
	r := NewRepository(nil, nil, nil)
	got, ok := r.FetchExpanded(context.Background())
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestRepository_CacheHitSkipsFetch(t *testing.T) {
	set := NewSet(rules(t, "disposable.example"), nil, 0)
	f := &MockFetcher{}
	f.On("Source").Return("https://list")
	f.On("Fetch", mock.Anything).Return(set, true).Once()

	r := NewRepository(f, newMemoryCache(), log.NewNoopLogger())
	for i := 0; i < 3; i++ {
		got, ok := r.FetchExpanded(context.Background())
		require.True(t, ok)
		assert.Equal(t, 1, got.Len())
	}
	f.AssertNumberOfCalls(t, "Fetch", 1)
}

func TestRepository_FailuresAreNotCached(t *testing.T) {
	set := NewSet(rules(t, "disposable.example"), nil, 0)
	f := &MockFetcher{}
	f.On("Source").Return("https://list")
	f.On("Fetch", mock.Anything).Return(nil, false).Once()
	f.On("Fetch", mock.Anything).Return(set, true).Once()

	cache := newMemoryCache()
	r := NewRepository(f, cache, log.NewNoopLogger())

	_, ok := r.FetchExpanded(context.Background())
	assert.False(t, ok)
	assert.Equal(t, 0, cache.Len())

	_, ok = r.FetchExpanded(context.Background())
	assert.True(t, ok)
	assert.Equal(t, 1, cache.Len())
}

// slowFetcher counts fetches and holds each one open briefly.
type slowFetcher struct {
	calls int32
	set   *Set
}

func (s *slowFetcher) Fetch(context.Context) (*Set, bool) {
	atomic.AddInt32(&s.calls, 1)
	time.Sleep(50 * time.Millisecond)
	return s.set, true
}

func (s *slowFetcher) Source() string { return "https://slow" }

func TestRepository_ConcurrentMissesCollapse(t *testing.T) {
	f := &slowFetcher{set: NewSet(rules(t, "disposable.example"), nil, 0)}
	r := NewRepository(f, newMemoryCache(), log.NewNoopLogger())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok := r.FetchExpanded(context.Background())
			assert.True(t, ok)
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, atomic.LoadInt32(&f.calls), int32(2))
}

// gatedFetcher blocks each fetch until released or until its context ends.
type gatedFetcher struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
	set     *Set
}

func (g *gatedFetcher) Fetch(ctx context.Context) (*Set, bool) {
	g.once.Do(func() { close(g.started) })
	select {
	case <-g.release:
		return g.set, true
	case <-ctx.Done():
		return nil, false
	}
}

func (g *gatedFetcher) Source() string { return "https://gated" }

func TestRepository_SharedFetchSurvivesStarterCancel(t *testing.T) {
	f := &gatedFetcher{
		started: make(chan struct{}),
		release: make(chan struct{}),
		set:     NewSet(rules(t, "disposable.example"), nil, 0),
	}
	r := NewRepository(f, newMemoryCache(), log.NewNoopLogger())

	starterCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	type result struct {
		set DomainSet
		ok  bool
	}
	starter := make(chan result, 1)
	waiter := make(chan result, 1)

	go func() {
		set, ok := r.FetchExpanded(starterCtx)
		starter <- result{set, ok}
	}()
	<-f.started

	go func() {
		set, ok := r.FetchExpanded(context.Background())
		waiter <- result{set, ok}
	}()
	time.Sleep(20 * time.Millisecond)

	cancel()
	time.Sleep(20 * time.Millisecond)
	close(f.release)

	got := <-waiter
	require.True(t, got.ok, "a live request must not inherit another request's cancellation")
	assert.True(t, got.set.Contains("disposable.example"))

	first := <-starter
	assert.True(t, first.ok)
}
