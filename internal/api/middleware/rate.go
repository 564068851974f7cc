package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimitConfig defines rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int
	Burst             int
	// IdleTimeout evicts limiters of callers not seen for this long
	IdleTimeout time.Duration
}

// DefaultRateLimitConfig returns the bridge rate limit configuration.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 100,
		Burst:             200,
		IdleTimeout:       10 * time.Minute,
	}
}

// RateLimit creates a per-caller rate limiting middleware. Callers are keyed
// by Origin, falling back to the client IP.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	type caller struct {
		limiter  *rate.Limiter
		lastSeen time.Time
	}

	var (
		mu        sync.Mutex
		callers   = make(map[string]*caller)
		lastSweep = time.Now()
	)

	return func(c *gin.Context) {
		key := c.GetHeader("Origin")
		if key == "" {
			key = c.ClientIP()
		}
		now := time.Now()

		mu.Lock()
		if cfg.IdleTimeout > 0 && now.Sub(lastSweep) > cfg.IdleTimeout {
			for k, v := range callers {
				if now.Sub(v.lastSeen) > cfg.IdleTimeout {
					delete(callers, k)
				}
			}
			lastSweep = now
		}
		entry, exists := callers[key]
		if !exists {
			entry = &caller{limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst)}
			callers[key] = entry
		}
		entry.lastSeen = now
		limiter := entry.limiter
		mu.Unlock()

		if !limiter.Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
