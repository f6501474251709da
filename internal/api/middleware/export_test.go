package middleware

import "time"

// SetClock replaces the limiter's time source.
func (l *RateLimiter) SetClock(now func() time.Time) {
	l.now = now
}

// TrackedClients reports how many windows the in-process limiter holds.
func (l *RateLimiter) TrackedClients() int {
	l.local.mu.Lock()
	defer l.local.mu.Unlock()
	return len(l.local.states)
}

const LocalSweepThreshold = localSweepThreshold
