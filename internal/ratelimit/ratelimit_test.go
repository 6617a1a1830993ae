package ratelimit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testLimiter returns a limiter with a controllable clock and the sweep
// roll pinned off so tests are deterministic.
func testLimiter(window time.Duration, max int) (*Limiter, *time.Time) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	l := NewLimiter(NewMemoryStore(), "test", window, max)
	l.now = func() time.Time { return now }
	l.roll = func() float64 { return 1 }
	return l, &now
}

func TestLimiter_FixedWindow(t *testing.T) {
	l, _ := testLimiter(60*time.Second, 10)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		result, err := l.Allow(ctx, "1.2.3.4")
		require.NoError(t, err)
		assert.True(t, result.Allowed)
		assert.Equal(t, 10, result.Limit)
		assert.Equal(t, 9-i, result.Remaining)
	}

	result, err := l.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Equal(t, 0, result.Remaining)
}

func TestLimiter_WindowReset(t *testing.T) {
	l, now := testLimiter(60*time.Second, 2)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		result, err := l.Allow(ctx, "1.2.3.4")
		require.NoError(t, err)
		assert.True(t, result.Allowed)
	}
	result, err := l.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.False(t, result.Allowed)

	// Past the reset a fresh window starts.
	*now = now.Add(61 * time.Second)
	result, err = l.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, result.Allowed)
	assert.Equal(t, 1, result.Remaining)
}

func TestLimiter_KeysAreIndependent(t *testing.T) {
	l, _ := testLimiter(60*time.Second, 1)
	ctx := context.Background()

	first, err := l.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, first.Allowed)

	blocked, err := l.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.False(t, blocked.Allowed)

	other, err := l.Allow(ctx, "5.6.7.8")
	require.NoError(t, err)
	assert.True(t, other.Allowed)
}

func TestMemoryStore_SweepDropsExpired(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	now := time.Now()

	_, err := store.Incr(ctx, "stale", now.Add(-2*time.Minute), time.Minute)
	require.NoError(t, err)
	_, err = store.Incr(ctx, "fresh", now, time.Minute)
	require.NoError(t, err)

	require.NoError(t, store.Sweep(ctx, now))

	store.mu.Lock()
	defer store.mu.Unlock()
	_, ok := store.entries["stale"]
	assert.False(t, ok)
	_, ok = store.entries["fresh"]
	assert.True(t, ok)
}

// laggyStore adds a per-call delay in front of a real store, the latency
// profile of a networked backend.
type laggyStore struct {
	inner Store
	delay time.Duration
}

func (s *laggyStore) Incr(ctx context.Context, key string, now time.Time, window time.Duration) (Entry, error) {
	time.Sleep(s.delay)
	return s.inner.Incr(ctx, key, now, window)
}

func (s *laggyStore) Sweep(ctx context.Context, now time.Time) error {
	return s.inner.Sweep(ctx, now)
}

// A burst of concurrent calls against a slow store must still admit
// exactly Max requests: the count is incremented inside the store, so
// two callers can never act on the same value.
func TestLimiter_ConcurrentBurstHonorsMax(t *testing.T) {
	store := &laggyStore{inner: NewMemoryStore(), delay: 2 * time.Millisecond}
	l := NewLimiter(store, "test", 60*time.Second, 5)
	l.roll = func() float64 { return 1 }
	ctx := context.Background()

	var allowed atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := l.Allow(ctx, "1.2.3.4")
			if assert.NoError(t, err) && result.Allowed {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(5), allowed.Load())
}

func TestMiddleware_SetsHeadersAndDenies(t *testing.T) {
	l, _ := testLimiter(60*time.Second, 2)
	handler := Middleware(l, logrus.New())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 2; i++ {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/api/search/movies?q=dune", nil)
		req.Header.Set("X-Forwarded-For", "1.2.3.4")
		handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "2", rr.Header().Get("X-RateLimit-Limit"))
	}

	rr := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/search/movies?q=dune", nil)
	req.Header.Set("X-Forwarded-For", "1.2.3.4")
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "0", rr.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	assert.Equal(t, "unknown", ClientIP(req))

	req.Header.Set("X-Real-IP", "9.9.9.9")
	assert.Equal(t, "9.9.9.9", ClientIP(req))

	req.Header.Set("X-Forwarded-For", "1.2.3.4, 10.0.0.1")
	assert.Equal(t, "1.2.3.4", ClientIP(req))
}
