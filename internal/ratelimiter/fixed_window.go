package ratelimiter

import (
	"sync"
	"time"
)

type Config struct {
	RequestsPerTimeFrame int
	TimeFrame            time.Duration
	Enabled              bool
}

// FixedWindowRateLimiter caps requests per client IP within a fixed window.
// Counts reset wholesale when the window rolls over; webhook endpoints get
// hammered by provider retries, so precision matters less than cheapness.
type FixedWindowRateLimiter struct {
	mu      sync.Mutex
	clients map[string]int
	limit   int
	window  time.Duration
	resetAt time.Time
}

func NewFixedWindowLimiter(limit int, window time.Duration) *FixedWindowRateLimiter {
	return &FixedWindowRateLimiter{
		clients: make(map[string]int),
		limit:   limit,
		window:  window,
		resetAt: time.Now().Add(window),
	}
}

// Allow reports whether ip may proceed, and if not, how long until the
// window resets.
func (rl *FixedWindowRateLimiter) Allow(ip string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	if now.After(rl.resetAt) {
		rl.clients = make(map[string]int)
		rl.resetAt = now.Add(rl.window)
	}

	if rl.clients[ip] >= rl.limit {
		return false, time.Until(rl.resetAt)
	}
	rl.clients[ip]++
	return true, 0
}
