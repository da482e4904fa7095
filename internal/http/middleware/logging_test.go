package middleware

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestRequestID_GeneratesOrPropagates(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	var seen string
	r.GET("/", func(c *gin.Context) {
		seen = GetRequestID(c)
		c.Status(http.StatusOK)
	})

	w := do(r, http.MethodGet, "/", nil)
	if seen == "" || w.Header().Get(requestIDHeader) != seen {
		t.Fatalf("generated id not echoed: ctx=%q header=%q", seen, w.Header().Get(requestIDHeader))
	}

	w = do(r, http.MethodGet, "/", map[string]string{requestIDHeader: "rid-42"})
	if seen != "rid-42" || w.Header().Get(requestIDHeader) != "rid-42" {
		t.Fatalf("incoming id not propagated: %q", seen)
	}
}

func TestRecovery_WritesEnvelope(t *testing.T) {
	buf := captureLogs(t)
	r := gin.New()
	r.Use(RequestID(), Recovery())
	r.GET("/boom", func(*gin.Context) { panic("kaboom") })
	r.GET("/late", func(c *gin.Context) {
		c.String(http.StatusOK, "partial")
		panic("after write")
	})

	w := do(r, http.MethodGet, "/boom", map[string]string{requestIDHeader: "rid-1"})
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["code"] != "internal_error" || body["request_id"] != "rid-1" {
		t.Fatalf("unexpected body %v", body)
	}
	if !strings.Contains(buf.String(), "kaboom") {
		t.Fatalf("panic not logged: %s", buf.String())
	}

	w = do(r, http.MethodGet, "/late", nil)
	if w.Body.String() != "partial" {
		t.Fatalf("body after write must not change, got %q", w.Body.String())
	}
}

func TestLoggerFrom_Fallback(t *testing.T) {
	c, _ := gin.CreateTestContext(nil)
	if LoggerFrom(c) == nil {
		t.Fatalf("fallback logger must not be nil")
	}
}
