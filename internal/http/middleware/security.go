// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides SecurityHeaders, which attaches a conservative set of
// HTTP security headers to every response of the studio API. The API serves
// JSON to the studio front end and a WebSocket endpoint; no HTML is rendered
// here, so no Content-Security-Policy is emitted.
//
// Design notes:
//   - Baseline headers are always present
//   - HSTS is opt-in and only applied to requests that arrived over HTTPS
//   - Headers browser code needs to read are listed in
//     Access-Control-Expose-Headers without clobbering what CORS already set
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// SecurityOptions configures the headers emitted by SecurityHeaders.
//
// EnableHSTS emits Strict-Transport-Security for HTTPS requests only. Turn it
// on when TLS terminates in front of the service and every hop is HTTPS.
//
// HSTSMaxAge is the HSTS lifetime. Non-positive values mean 180 days.
//
// NoStore adds Cache-Control: no-store plus the legacy Pragma and Expires
// headers, so dashboards and message lists are never cached by browsers.
//
// EnablePolicy sends Permissions-Policy and
// X-Permitted-Cross-Domain-Policies. Non-browser clients ignore them.
type SecurityOptions struct {
	EnableHSTS   bool          // only when traffic is HTTPS end-to-end
	HSTSMaxAge   time.Duration // defaults to 180 days
	NoStore      bool          // Cache-Control: no-store
	EnablePolicy bool          // Permissions-Policy and friends
}

// SecurityHeaders returns a Gin middleware that adds security headers to
// each response.
//
// Behavior:
//   - Always sets:
//     X-Content-Type-Options: nosniff
//     X-Frame-Options: DENY
//     Referrer-Policy: no-referrer
//   - With EnablePolicy:
//     Permissions-Policy: geolocation=(), microphone=(), camera=(), payment=()
//     X-Permitted-Cross-Domain-Policies: none
//   - With NoStore:
//     Cache-Control: no-store, Pragma: no-cache, Expires: 0
//   - With EnableHSTS on an HTTPS request:
//     Strict-Transport-Security: max-age=<seconds>; includeSubDomains; preload
//   - Exposes X-Request-ID (when set) and Idempotency-Replayed through
//     Access-Control-Expose-Headers so the front end can read them.
//
// The HSTS value is computed once when the middleware is built.
func SecurityHeaders(opt SecurityOptions) gin.HandlerFunc {
	maxAge := int(opt.HSTSMaxAge.Seconds())
	if maxAge <= 0 {
		maxAge = int((180 * 24 * time.Hour).Seconds())
	}
	hsts := "max-age=" + strconv.Itoa(maxAge) + "; includeSubDomains; preload"

	return func(c *gin.Context) {
		h := c.Writer.Header()

		// Baseline hardening.
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")

		if opt.EnablePolicy {
			h.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=(), payment=()")
			h.Set("X-Permitted-Cross-Domain-Policies", "none")
		}
		if opt.NoStore {
			h.Set("Cache-Control", "no-store")
			h.Set("Pragma", "no-cache")
			h.Set("Expires", "0")
		}
		// Never for plain HTTP: a browser would pin the host to HTTPS.
		if opt.EnableHSTS && isHTTPS(c.Request) {
			h.Set("Strict-Transport-Security", hsts)
		}
		if h.Get(requestIDHeader) != "" {
			exposeHeader(h, requestIDHeader)
		}
		exposeHeader(h, HeaderIdempotencyReplayed)

		c.Next()
	}
}

// exposeHeader appends name to Access-Control-Expose-Headers unless it is
// already listed. The comparison is case-insensitive.
func exposeHeader(h http.Header, name string) {
	const hdr = "Access-Control-Expose-Headers"
	cur := h.Get(hdr)
	switch {
	case cur == "":
		h.Set(hdr, name)
	case !strings.Contains(strings.ToLower(cur), strings.ToLower(name)):
		h.Set(hdr, cur+", "+name)
	}
}

// isHTTPS reports whether the request used TLS directly or arrived through a
// proxy that set X-Forwarded-Proto: https.
func isHTTPS(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
