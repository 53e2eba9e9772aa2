// Package middleware provides gin middleware shared by the AJAX routes.
package middleware

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/open-xchange/appsuite-middleware-sub008/internal/apierrors"
)

// RateLimiter is a token-bucket limiter keyed by client address. Buckets
// refill continuously over the hour and stale ones are dropped in the
// background.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	cleanup time.Duration
	now     func() time.Time
}

type bucket struct {
	tokens     float64
	limit      float64
	refillRate float64 // tokens per second
	lastRefill time.Time
}

// NewRateLimiter creates a limiter and starts its cleanup loop.
func NewRateLimiter() *RateLimiter {
	rl := &RateLimiter{
		buckets: make(map[string]*bucket),
		cleanup: 10 * time.Minute,
		now:     time.Now,
	}
	go rl.cleanupLoop()
	return rl
}

// Allow consumes one token for the key, creating a full bucket on first
// sight. limit is requests per hour.
func (rl *RateLimiter) Allow(key string, limit int) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{
			tokens:     float64(limit),
			limit:      float64(limit),
			refillRate: float64(limit) / 3600.0,
			lastRefill: rl.now(),
		}
		rl.buckets[key] = b
	}

	now := rl.now()
	b.tokens += now.Sub(b.lastRefill).Seconds() * b.refillRate
	if b.tokens > b.limit {
		b.tokens = b.limit
	}
	b.lastRefill = now

	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.cleanup)
	for range ticker.C {
		rl.mu.Lock()
		cutoff := rl.now().Add(-rl.cleanup)
		for key, b := range rl.buckets {
			if b.lastRefill.Before(cutoff) {
				delete(rl.buckets, key)
			}
		}
		rl.mu.Unlock()
	}
}

// LoginRateLimit throttles credential-guessing against the login route by
// client address. requestsPerHour <= 0 disables the middleware.
func LoginRateLimit(requestsPerHour int) gin.HandlerFunc {
	if requestsPerHour <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	limiter := NewRateLimiter()
	return func(c *gin.Context) {
		if !limiter.Allow("ip:"+c.ClientIP(), requestsPerHour) {
			c.Header("Retry-After", "60")
			c.Header("X-RateLimit-Limit", strconv.Itoa(requestsPerHour))
			apierrors.Error(c, apierrors.CodeRateLimited)
			c.Abort()
			return
		}
		c.Next()
	}
}
