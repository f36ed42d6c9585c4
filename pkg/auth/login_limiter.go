package auth

import (
	"sync"
	"time"
)

// LoginLimiter throttles credential attempts per client address using a
// sliding window. Stale windows are pruned on access; there is no
// background goroutine to manage.
type LoginLimiter struct {
	mu         sync.Mutex
	windows    map[string][]time.Time
	limit      int
	windowSize time.Duration
}

// NewLoginLimiter allows at most limit attempts per address per window
func NewLoginLimiter(limit int, windowSize time.Duration) *LoginLimiter {
	return &LoginLimiter{
		windows:    make(map[string][]time.Time),
		limit:      limit,
		windowSize: windowSize,
	}
}

// Allow records an attempt and reports whether it is within the limit
func (l *LoginLimiter) Allow(addr string) bool {
	now := time.Now()
	cutoff := now.Add(-l.windowSize)

	l.mu.Lock()
	defer l.mu.Unlock()

	attempts := l.windows[addr]
	kept := attempts[:0]
	for _, t := range attempts {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}

	if len(kept) >= l.limit {
		l.windows[addr] = kept
		return false
	}
	l.windows[addr] = append(kept, now)
	return true
}

// Reset clears the window for an address, used after a successful login
func (l *LoginLimiter) Reset(addr string) {
	l.mu.Lock()
	delete(l.windows, addr)
	l.mu.Unlock()
}
