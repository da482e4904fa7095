// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements a process-local token-bucket limiter with one bucket
// per caller scope (see Scope). Idle buckets are swept opportunistically so
// memory stays bounded.
package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// KeyFunc maps a request to the bucket it draws from.
type KeyFunc func(*gin.Context) string

// KeyByScope keys buckets by Scope: the caller's user id, else client IP.
func KeyByScope() KeyFunc { return Scope }

// bucket is one caller's limiter plus the last time it was used.
type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter enforces a per-key request rate. Safe for concurrent use.
type RateLimiter struct {
	rps   rate.Limit
	burst int
	keyFn KeyFunc
	skip  map[string]struct{}

	mu         sync.Mutex
	buckets    map[string]*bucket
	idleTTL    time.Duration
	sweepEvery uint64
	lookups    uint64
	now        func() time.Time
}

// NewRateLimiter returns a limiter refilling rps tokens per second with the
// given burst (coerced to at least 1). Requests whose route matches one of
// skipRoutes are never limited.
func NewRateLimiter(rps float64, burst int, keyFn KeyFunc, skipRoutes ...string) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	if keyFn == nil {
		keyFn = KeyByScope()
	}
	skip := make(map[string]struct{}, len(skipRoutes))
	for _, r := range skipRoutes {
		skip[r] = struct{}{}
	}
	return &RateLimiter{
		rps:        rate.Limit(rps),
		burst:      burst,
		keyFn:      keyFn,
		skip:       skip,
		buckets:    make(map[string]*bucket),
		idleTTL:    10 * time.Minute,
		sweepEvery: 5000,
		now:        time.Now,
	}
}

// limiter returns the bucket for key, creating it when missing. Every
// sweepEvery lookups, buckets idle for idleTTL are dropped first.
func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.lookups++
	if rl.lookups >= rl.sweepEvery {
		for k, b := range rl.buckets {
			if now.Sub(b.lastSeen) >= rl.idleTTL {
				delete(rl.buckets, k)
			}
		}
		rl.lookups = 0
	}

	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rl.rps, rl.burst)}
		rl.buckets[key] = b
	}
	b.lastSeen = now
	return b.limiter
}

// IsRateBypass reports whether IdempotencyValidator exempted the request.
func IsRateBypass(c *gin.Context) bool {
	v, ok := c.Get(ctxKeyRateBypass)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// Handler enforces the limit.
//
// Behavior:
//   - Skipped routes and idempotent replays pass without drawing a token.
//   - An empty bucket answers 429 with Retry-After in whole seconds, never
//     less than one.
//   - A rejected request does not consume a token.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := rl.skip[c.FullPath()]; ok || IsRateBypass(c) {
			c.Next()
			return
		}

		now := rl.now()
		res := rl.limiter(rl.keyFn(c)).ReserveN(now, 1)
		if !res.OK() {
			rl.reject(c, time.Second)
			return
		}
		if delay := res.DelayFrom(now); delay > 0 {
			// Hand the token back on the limiter's own clock.
			res.CancelAt(now)
			rl.reject(c, delay)
			return
		}
		c.Next()
	}
}

// reject aborts with the JSON error envelope and counts the rejection.
func (rl *RateLimiter) reject(c *gin.Context, wait time.Duration) {
	secs := int(wait.Round(time.Second) / time.Second)
	if secs < 1 {
		secs = 1
	}
	rateLimited.Inc()
	c.Header("Retry-After", strconv.Itoa(secs))
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
		"request_id": c.Writer.Header().Get(requestIDHeader),
		"code":       "too_many_requests",
		"message":    "rate limit exceeded",
	})
}
