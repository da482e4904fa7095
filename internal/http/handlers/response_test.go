package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/tbourn/wolfoman-studio/internal/ai"
	"github.com/tbourn/wolfoman-studio/internal/services"
)

func Test_fail_500_LogsAndBody(t *testing.T) {
	r := gin.New()

	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("X-Request-ID", "rid-500")
		c.Set("logger", &logger)
		c.Next()
	})
	r.GET("/boom", func(c *gin.Context) {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "kaboom")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", w.Code)
	}
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json: %v", err)
	}
	if resp.RequestID != "rid-500" || resp.Code != ErrCodeInternal || resp.Message != "kaboom" {
		t.Fatalf("unexpected body: %+v", resp)
	}
	if !strings.Contains(buf.String(), `"level":"error"`) {
		t.Fatalf("expected error log, got: %s", buf.String())
	}
}

func Test_fail_4xx_DoesNotLog(t *testing.T) {
	r := gin.New()
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	r.Use(func(c *gin.Context) { c.Set("logger", &logger); c.Next() })
	r.GET("/missing", func(c *gin.Context) {
		Fail(c, http.StatusNotFound, ErrCodeNotFound, "nope")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("status=%d", w.Code)
	}
	if buf.Len() != 0 {
		t.Fatalf("4xx should not log, got: %s", buf.String())
	}
}

func Test_ok_And_success(t *testing.T) {
	r := gin.New()
	r.GET("/ok", func(c *gin.Context) { ok(c, http.StatusCreated, gin.H{"n": 1}) })
	r.DELETE("/gone", func(c *gin.Context) { success(c) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	if w.Code != http.StatusCreated || !strings.Contains(w.Body.String(), `"n":1`) {
		t.Fatalf("ok: %d %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/gone", nil))
	if w.Code != http.StatusOK || strings.TrimSpace(w.Body.String()) != `{"success":true}` {
		t.Fatalf("success: %d %s", w.Code, w.Body.String())
	}
}

func Test_storeError_Mapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", fmt.Errorf("get: %w", services.ErrNotFound), http.StatusNotFound, ErrCodeNotFound},
		{"validation", fmt.Errorf("%w: name", services.ErrValidation), http.StatusBadRequest, ErrCodeBadRequest},
		{"duplicate", services.ErrDuplicate, http.StatusConflict, ErrCodeConflict},
		{"credentials", services.ErrInvalidCredentials, http.StatusUnauthorized, ErrCodeUnauthorized},
		{"provider", &ai.ProviderError{Model: "gpt-4o", Status: 503, Err: errors.New("down")}, http.StatusBadGateway, ErrCodeProvider},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout, ErrCodeTimeout},
		{"other", errors.New("disk on fire"), http.StatusInternalServerError, ErrCodeInternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/x", func(c *gin.Context) { storeError(c, tc.err, "thing") })

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
			if w.Code != tc.status {
				t.Fatalf("status=%d want %d", w.Code, tc.status)
			}
			var resp ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("json: %v", err)
			}
			if resp.Code != tc.code {
				t.Fatalf("code=%q want %q", resp.Code, tc.code)
			}
		})
	}
}
