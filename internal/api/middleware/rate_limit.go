package middleware

import (
	"context"
	"math"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rihla-rentals/backend/internal/domain/providers"
	"github.com/rihla-rentals/backend/internal/infrastructure/observability"
)

// localSweepThreshold is the number of tracked clients above which expired
// windows are dropped from the in-process limiter.
const localSweepThreshold = 1024

// RateLimiter caps requests per client IP inside a fixed window. With a
// cache the counters are shared between instances; without one they are
// kept in process.
type RateLimiter struct {
	prefix string
	limit  int
	window time.Duration
	cache  providers.CacheProvider
	local  *localRateLimiter
	now    func() time.Time
}

// NewRateLimiter creates a limiter allowing limit requests per window.
// A limit of zero or less disables it.
func NewRateLimiter(prefix string, limit int, window time.Duration, cache providers.CacheProvider) *RateLimiter {
	return &RateLimiter{
		prefix: prefix,
		limit:  limit,
		window: window,
		cache:  cache,
		local:  newLocalRateLimiter(),
		now:    time.Now,
	}
}

// Wrap applies the limit to a single handler.
func (l *RateLimiter) Wrap(next http.HandlerFunc) http.HandlerFunc {
	if l == nil || l.limit <= 0 {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		allowed, retryAfter := l.allow(r.Context(), l.prefix+":rate:"+ClientIP(r))
		if !allowed {
			w.Header().Set("Retry-After", strconv.Itoa(ceilSeconds(retryAfter)))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "rate limit exceeded"})
			return
		}
		next(w, r)
	}
}

// rateLimitState is the cached counter of one client window. ResetAt is
// fixed on the first hit so later writes keep the original expiry.
type rateLimitState struct {
	Count   int       `json:"count"`
	ResetAt time.Time `json:"reset_at"`
}

func (l *RateLimiter) allow(ctx context.Context, key string) (bool, time.Duration) {
	now := l.now()
	if l.cache == nil {
		return l.local.allow(key, l.limit, l.window, now)
	}

	state := rateLimitState{}
	if data, err := l.cache.Get(ctx, key); err == nil {
		_ = json.Unmarshal(data, &state)
	}
	if state.ResetAt.IsZero() || !now.Before(state.ResetAt) {
		state = rateLimitState{ResetAt: now.Add(l.window)}
	}

	remaining := state.ResetAt.Sub(now)
	if state.Count >= l.limit {
		return false, remaining
	}

	state.Count++
	data, _ := json.Marshal(state)
	if err := l.cache.Set(ctx, key, data, ceilSeconds(remaining)); err != nil {
		observability.LoggerFromContext(ctx, "rate_limit").Warn().Err(err).Msg("Failed to store rate limit counter")
	}
	return true, remaining
}

func ceilSeconds(d time.Duration) int {
	secs := int(math.Ceil(d.Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}

type localRateLimiter struct {
	mu     sync.Mutex
	states map[string]*localRateState
}

type localRateState struct {
	count   int
	resetAt time.Time
}

func newLocalRateLimiter() *localRateLimiter {
	return &localRateLimiter{
		states: make(map[string]*localRateState),
	}
}

func (l *localRateLimiter) allow(key string, limit int, window time.Duration, now time.Time) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	state, ok := l.states[key]
	if !ok || !now.Before(state.resetAt) {
		if !ok && len(l.states) >= localSweepThreshold {
			l.sweep(now)
		}
		state = &localRateState{resetAt: now.Add(window)}
		l.states[key] = state
	}

	remaining := state.resetAt.Sub(now)
	if state.count >= limit {
		return false, remaining
	}

	state.count++
	return true, remaining
}

func (l *localRateLimiter) sweep(now time.Time) {
	for key, state := range l.states {
		if !now.Before(state.resetAt) {
			delete(l.states, key)
		}
	}
}

type clientIPKey struct{}

// ParseTrustedProxies turns CIDRs or bare addresses into prefixes.
func ParseTrustedProxies(values []string) ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(values))
	for _, value := range values {
		if strings.Contains(value, "/") {
			prefix, err := netip.ParsePrefix(value)
			if err != nil {
				return nil, err
			}
			prefixes = append(prefixes, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(value)
		if err != nil {
			return nil, err
		}
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}

// RealIP resolves the client address once per request. X-Forwarded-For and
// X-Real-IP are only read when the direct peer is a trusted proxy; the
// forwarded chain is walked right to left, skipping trusted hops.
func RealIP(trusted []netip.Prefix) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := resolveClientIP(r, trusted)
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), clientIPKey{}, ip)))
		})
	}
}

// ClientIP returns the address resolved by RealIP, or the direct peer when
// RealIP did not run.
func ClientIP(r *http.Request) string {
	if ip, ok := r.Context().Value(clientIPKey{}).(string); ok && ip != "" {
		return ip
	}
	return remoteHost(r)
}

func resolveClientIP(r *http.Request, trusted []netip.Prefix) string {
	peer := remoteHost(r)
	if !isTrusted(peer, trusted) {
		return peer
	}

	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		hops := strings.Split(forwarded, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop := strings.TrimSpace(hops[i])
			if _, err := netip.ParseAddr(hop); err != nil {
				break
			}
			if !isTrusted(hop, trusted) || i == 0 {
				return hop
			}
		}
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		if _, err := netip.ParseAddr(realIP); err == nil {
			return realIP
		}
	}
	return peer
}

func isTrusted(ip string, trusted []netip.Prefix) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, prefix := range trusted {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}
