package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimiter bounds webhook requests per source IP over fixed,
// non-overlapping windows. Counters reset at each window boundary.
type RateLimiter struct {
	window  time.Duration
	quota   int
	mu      sync.Mutex
	windows map[string]*windowCounter
}

type windowCounter struct {
	start time.Time
	count int
}

func NewRateLimiter(window time.Duration, quota int) *RateLimiter {
	return &RateLimiter{
		window:  window,
		quota:   quota,
		windows: make(map[string]*windowCounter),
	}
}

// Allow records one request for the key and reports whether it fits the
// current window's quota. Safe for concurrent use.
func (rl *RateLimiter) Allow(key string) bool {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, ok := rl.windows[key]
	if !ok || now.Sub(w.start) >= rl.window {
		rl.prune(now)
		rl.windows[key] = &windowCounter{start: now, count: 1}
		return true
	}

	if w.count >= rl.quota {
		return false
	}

	w.count++
	return true
}

// prune drops expired windows; called with the mutex held
func (rl *RateLimiter) prune(now time.Time) {
	for key, w := range rl.windows {
		if now.Sub(w.start) >= rl.window {
			delete(rl.windows, key)
		}
	}
}

// Middleware rejects over-quota requests with 429 before any other
// webhook processing happens.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.Allow(c.ClientIP()) {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "Rate limit exceeded",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
