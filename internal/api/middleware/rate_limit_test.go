package middleware_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rihla-rentals/backend/internal/api/middleware"
	"github.com/rihla-rentals/backend/internal/domain/providers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type expiringEntry struct {
	value     []byte
	expiresAt time.Time
}

// expiringCache honours TTLs against a fake clock the way Redis would.
type expiringCache struct {
	mu      sync.Mutex
	clock   *fakeClock
	entries map[string]expiringEntry
}

func newExpiringCache(clock *fakeClock) *expiringCache {
	return &expiringCache{clock: clock, entries: make(map[string]expiringEntry)}
}

func (c *expiringCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok || !c.clock.Now().Before(entry.expiresAt) {
		delete(c.entries, key)
		return nil, providers.ErrCacheMiss
	}
	return entry.value, nil
}

func (c *expiringCache) GetMulti(ctx context.Context, keys []string) (map[string][]byte, error) {
	out := make(map[string][]byte)
	for _, key := range keys {
		if v, err := c.Get(ctx, key); err == nil {
			out[key] = v
		}
	}
	return out, nil
}

func (c *expiringCache) Set(ctx context.Context, key string, value []byte, expirationSeconds int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = expiringEntry{
		value:     value,
		expiresAt: c.clock.Now().Add(time.Duration(expirationSeconds) * time.Second),
	}
	return nil
}

func (c *expiringCache) SetMulti(ctx context.Context, items map[string][]byte, expirationSeconds int) error {
	for key, value := range items {
		_ = c.Set(ctx, key, value, expirationSeconds)
	}
	return nil
}

func (c *expiringCache) Delete(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		delete(c.entries, key)
	}
	return nil
}

func (c *expiringCache) Exists(ctx context.Context, key string) (bool, error) {
	_, err := c.Get(ctx, key)
	return err == nil, nil
}

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func hit(handler http.HandlerFunc, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/interactions/track", nil)
	req.RemoteAddr = remoteAddr
	w := httptest.NewRecorder()
	handler(w, req)
	return w
}

func TestRateLimiter_CachedWindowDoesNotSlide(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	limiter := middleware.NewRateLimiter("track", 3, time.Minute, newExpiringCache(clock))
	limiter.SetClock(clock.Now)
	handler := limiter.Wrap(okHandler)

	codes := make([]int, 0, 5)
	for i := 0; i < 5; i++ {
		codes = append(codes, hit(handler, "10.0.0.7:5555").Code)
		clock.Advance(50 * time.Second)
	}

	assert.Equal(t, []int{200, 200, 200, 200, 200}, codes)
}

func TestRateLimiter_CachedBurst(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	limiter := middleware.NewRateLimiter("track", 3, time.Minute, newExpiringCache(clock))
	limiter.SetClock(clock.Now)
	handler := limiter.Wrap(okHandler)

	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusOK, hit(handler, "10.0.0.7:5555").Code)
		clock.Advance(10 * time.Second)
	}

	w := hit(handler, "10.0.0.7:5555")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "30", w.Header().Get("Retry-After"))

	clock.Advance(30 * time.Second)
	assert.Equal(t, http.StatusOK, hit(handler, "10.0.0.7:5555").Code)
}

func TestRateLimiter_LocalWindowDoesNotSlide(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	limiter := middleware.NewRateLimiter("track", 2, time.Minute, nil)
	limiter.SetClock(clock.Now)
	handler := limiter.Wrap(okHandler)

	codes := make([]int, 0, 4)
	for i := 0; i < 4; i++ {
		codes = append(codes, hit(handler, "10.0.0.7:5555").Code)
		clock.Advance(40 * time.Second)
	}

	assert.Equal(t, []int{200, 200, 200, 200}, codes)
}

func TestRateLimiter_LocalSweepsExpiredClients(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	limiter := middleware.NewRateLimiter("track", 5, time.Minute, nil)
	limiter.SetClock(clock.Now)
	handler := limiter.Wrap(okHandler)

	for i := 0; i < middleware.LocalSweepThreshold; i++ {
		hit(handler, fmt.Sprintf("10.%d.%d.1:5555", i/256, i%256))
	}
	require.Equal(t, middleware.LocalSweepThreshold, limiter.TrackedClients())

	clock.Advance(2 * time.Minute)
	hit(handler, "192.0.2.1:5555")

	assert.Equal(t, 1, limiter.TrackedClients())
}
