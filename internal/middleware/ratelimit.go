package middleware

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimiter bounds request rates per caller with a fixed counting window.
type RateLimiter struct {
	mu         sync.Mutex
	windows    map[string]*rateWindow
	limit      int
	windowSize time.Duration
}

type rateWindow struct {
	count     int
	startedAt time.Time
}

func NewRateLimiter(limit int, windowSize time.Duration) *RateLimiter {
	r := &RateLimiter{
		windows:    make(map[string]*rateWindow),
		limit:      limit,
		windowSize: windowSize,
	}
	go r.cleanup()
	return r
}

// Allow counts a request against the key's current window; an elapsed window
// starts fresh. now is a parameter so tests can steer the clock.
func (r *RateLimiter) Allow(key string, now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	w := r.windows[key]
	if w == nil || now.Sub(w.startedAt) >= r.windowSize {
		r.windows[key] = &rateWindow{count: 1, startedAt: now}
		return true
	}
	if w.count >= r.limit {
		return false
	}
	w.count++
	return true
}

func (r *RateLimiter) cleanup() {
	tick := time.NewTicker(time.Minute)
	for range tick.C {
		r.mu.Lock()
		cutoff := time.Now().Add(-r.windowSize)
		for k, w := range r.windows {
			if w.startedAt.Before(cutoff) {
				delete(r.windows, k)
			}
		}
		r.mu.Unlock()
	}
}

// RateLimit keys authenticated callers by user id so trip collaborators
// behind one NAT never share a bucket; anonymous requests fall back to the
// client IP.
func RateLimit(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "ip:" + c.ClientIP()
		if v, ok := c.Get("user_id"); ok {
			if id, ok := v.(uint); ok {
				key = fmt.Sprintf("user:%d", id)
			}
		}
		if !limiter.Allow(key, time.Now()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
