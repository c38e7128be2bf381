package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestRateLimiterBlocksOverLimit(t *testing.T) {
	limiter := &RateLimiter{windows: make(map[string]*rateWindow), limit: 2, windowSize: time.Minute}
	now := time.Now()

	if !limiter.Allow("k", now) || !limiter.Allow("k", now) {
		t.Fatal("requests within the limit must pass")
	}
	if limiter.Allow("k", now.Add(time.Second)) {
		t.Fatal("request over the limit must be blocked")
	}
}

func TestRateLimiterWindowResets(t *testing.T) {
	limiter := &RateLimiter{windows: make(map[string]*rateWindow), limit: 1, windowSize: time.Minute}
	now := time.Now()

	if !limiter.Allow("k", now) {
		t.Fatal("first request must pass")
	}
	if limiter.Allow("k", now.Add(30*time.Second)) {
		t.Fatal("second request in the same window must be blocked")
	}
	if !limiter.Allow("k", now.Add(time.Minute)) {
		t.Fatal("an elapsed window must start fresh")
	}
}

func TestRateLimiterKeysAreIndependent(t *testing.T) {
	limiter := &RateLimiter{windows: make(map[string]*rateWindow), limit: 1, windowSize: time.Minute}
	now := time.Now()

	if !limiter.Allow("a", now) {
		t.Fatal("first key must pass")
	}
	if !limiter.Allow("b", now) {
		t.Fatal("a different key must have its own window")
	}
}

func TestRateLimitKeysByUserWhenAuthenticated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limiter := &RateLimiter{windows: make(map[string]*rateWindow), limit: 1, windowSize: time.Minute}

	var userID uint
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Next()
	})
	r.Use(RateLimit(limiter))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	do := func() int {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, req)
		return resp.Code
	}

	// two users behind the same IP get separate buckets
	userID = 1
	if code := do(); code != http.StatusOK {
		t.Fatalf("user 1 first request: expected 200, got %d", code)
	}
	userID = 2
	if code := do(); code != http.StatusOK {
		t.Fatalf("user 2 must not share user 1's bucket, got %d", code)
	}
	userID = 1
	if code := do(); code != http.StatusTooManyRequests {
		t.Fatalf("user 1 over limit: expected 429, got %d", code)
	}
}

func TestRateLimitFallsBackToIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limiter := &RateLimiter{windows: make(map[string]*rateWindow), limit: 1, windowSize: time.Minute}

	r := gin.New()
	r.Use(RateLimit(limiter))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/x", nil))
	if resp.Code != http.StatusTooManyRequests {
		t.Fatalf("same IP over limit: expected 429, got %d", resp.Code)
	}
}
