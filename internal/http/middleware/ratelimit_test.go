package middleware

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func limitedRouter(rl *RateLimiter) *gin.Engine {
	r := gin.New()
	r.Use(Identity(), rl.Handler())
	r.GET("/api/projects", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/ws", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestRateLimiter_PerScopeBuckets(t *testing.T) {
	rl := NewRateLimiter(0.001, 2, KeyByScope(), "/ws")
	r := limitedRouter(rl)
	before := testutil.ToFloat64(rateLimited)

	for i := 0; i < 2; i++ {
		if w := do(r, http.MethodGet, "/api/projects", nil); w.Code != http.StatusOK {
			t.Fatalf("request %d within burst: %d", i, w.Code)
		}
	}
	w := do(r, http.MethodGet, "/api/projects", nil)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Fatalf("Retry-After missing")
	}
	if got := testutil.ToFloat64(rateLimited) - before; got != 1 {
		t.Fatalf("rate limited counter delta = %v", got)
	}

	// Another user has its own bucket even from the same IP.
	if w := do(r, http.MethodGet, "/api/projects", map[string]string{HeaderUserID: "9"}); w.Code != http.StatusOK {
		t.Fatalf("other scope limited: %d", w.Code)
	}
	// Skipped routes are never limited.
	for i := 0; i < 5; i++ {
		if w := do(r, http.MethodGet, "/ws", nil); w.Code != http.StatusOK {
			t.Fatalf("skipped route limited: %d", w.Code)
		}
	}
}

func TestRateLimiter_ReplayBypass(t *testing.T) {
	rl := NewRateLimiter(0, 1, nil)
	r := gin.New()
	r.Use(Identity(), IdempotencyValidator(IdempotencyOptions{}, func(context.Context, string, string, time.Time) (bool, error) {
		return true, nil
	}), rl.Handler())
	r.POST("/api/messages", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		w := do(r, http.MethodPost, "/api/messages", map[string]string{HeaderIdempotencyKey: "same"})
		if w.Code != http.StatusOK {
			t.Fatalf("replay %d limited: %d", i, w.Code)
		}
	}
}

func TestRateLimiter_SweepsIdleBuckets(t *testing.T) {
	rl := NewRateLimiter(1, 1, nil)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	rl.sweepEvery = 2

	old := rl.limiter("old")
	now = now.Add(rl.idleTTL)
	rl.limiter("fresh")

	rl.mu.Lock()
	_, stillThere := rl.buckets["old"]
	n := len(rl.buckets)
	rl.mu.Unlock()
	if stillThere || n != 1 {
		t.Fatalf("idle bucket not swept: present=%v n=%d", stillThere, n)
	}
	if rl.limiter("old") == old {
		t.Fatalf("expected a fresh limiter after eviction")
	}
}

func TestRateLimiter_RejectedRequestReturnsToken(t *testing.T) {
	rl := NewRateLimiter(1, 1, KeyByScope())
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	r := limitedRouter(rl)

	if w := do(r, http.MethodGet, "/api/projects", nil); w.Code != http.StatusOK {
		t.Fatalf("first request: %d", w.Code)
	}
	if w := do(r, http.MethodGet, "/api/projects", nil); w.Code != http.StatusTooManyRequests {
		t.Fatalf("second request should be limited, got %d", w.Code)
	}

	// One refill interval later the bucket holds a token again, because the
	// rejected reservation was cancelled at the limiter's time.
	now = now.Add(time.Second)
	if w := do(r, http.MethodGet, "/api/projects", nil); w.Code != http.StatusOK {
		t.Fatalf("request after refill: %d", w.Code)
	}
}
