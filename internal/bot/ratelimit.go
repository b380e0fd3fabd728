package bot

import (
	"sync"
	"time"
)

// RateLimiter throttles per-user command spam. Catalog and order commands hit
// the store harder than the rest, so they carry longer windows.
type RateLimiter struct {
	mu       sync.Mutex
	lastCall map[int64]map[string]time.Time
	limits   map[string]time.Duration
	fallback time.Duration
}

func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		lastCall: make(map[int64]map[string]time.Time),
		limits: map[string]time.Duration{
			"/products": 3 * time.Second,
			"/checkout": 5 * time.Second,
			"/orders":   5 * time.Second,
		},
		fallback: 2 * time.Second,
	}
}

// IsLimited reports whether the user issued this command inside its window,
// and records the call when it is allowed.
func (r *RateLimiter) IsLimited(userID int64, command string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	limit, ok := r.limits[command]
	if !ok {
		limit = r.fallback
	}

	calls, ok := r.lastCall[userID]
	if !ok {
		calls = make(map[string]time.Time)
		r.lastCall[userID] = calls
	}

	now := time.Now()
	if last, ok := calls[command]; ok && now.Sub(last) < limit {
		return true
	}
	calls[command] = now
	return false
}
