package app

import (
	"sync"
	"time"

	"github.com/dkeye/Lobby/internal/domain"
)

// RateLimiter caps room creation per connection over a sliding window.
type RateLimiter struct {
	mu       sync.Mutex
	history  map[domain.ConnID][]time.Time
	limit    int
	interval time.Duration
}

func NewRateLimiter(limit int, interval time.Duration) *RateLimiter {
	return &RateLimiter{
		history:  make(map[domain.ConnID][]time.Time),
		limit:    limit,
		interval: interval,
	}
}

func (rl *RateLimiter) Allow(id domain.ConnID) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	windowStart := now.Add(-rl.interval)

	attempts := rl.history[id]
	fresh := make([]time.Time, 0, len(attempts))
	for _, t := range attempts {
		if t.After(windowStart) {
			fresh = append(fresh, t)
		}
	}

	if len(fresh) >= rl.limit {
		rl.history[id] = fresh
		return false
	}

	fresh = append(fresh, now)
	rl.history[id] = fresh
	return true
}

// Forget clears history for a closed connection.
func (rl *RateLimiter) Forget(id domain.ConnID) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.history, id)
}
