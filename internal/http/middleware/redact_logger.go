// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements RedactingLogger: it attaches a request-scoped zerolog
// logger and writes one access log line per request with obvious PII
// scrubbed from the query string and headers. Bodies are never logged: chat
// messages and passwords travel in bodies.
//
// Logged fields per request:
//   - request_id, method, path (route template when matched), user_id
//   - query (redacted, truncated), remote_ip, status, bytes, latency
//   - headers, with credential headers masked outright
package middleware

import (
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// RedactOptions configures RedactingLogger.
type RedactOptions struct {
	// MaskHeaders are fully replaced with "[REDACTED]", in addition to
	// Authorization, Cookie and Set-Cookie.
	MaskHeaders []string
	// MaxQueryLen truncates the logged query string. Values <= 0 mean 2048.
	MaxQueryLen int
}

// UUIDs are scrubbed before phone numbers, whose pattern would otherwise eat
// the digit runs inside them.
var (
	uuidRE  = regexp.MustCompile(`(?i)\b[0-9a-f]{8}-[0-9a-f]{4}-[1-5][0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}\b`)
	emailRE = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)
	phoneRE = regexp.MustCompile(`\b(?:\+?\d{1,3}[ .-]?)?(?:\(?\d{2,4}\)?[ .-]?)?\d{3,4}[ .-]?\d{4}\b`)
)

// redact replaces ids, email addresses and phone numbers in s with typed
// placeholders.
func redact(s string) string {
	if s == "" {
		return s
	}
	s = uuidRE.ReplaceAllString(s, "[REDACTED:id]")
	s = emailRE.ReplaceAllString(s, "[REDACTED:email]")
	return phoneRE.ReplaceAllString(s, "[REDACTED:phone]")
}

// RedactingLogger returns a middleware that attaches a request-scoped
// zerolog logger to the gin context (see LoggerFrom) and writes one
// "http_request" line after the handler chain finishes.
//
// Behavior:
//   - Authorization, Cookie, Set-Cookie and opts.MaskHeaders are logged as
//     "[REDACTED]"
//   - Other header values and the query string go through redact
//   - The query string is cut at opts.MaxQueryLen bytes before redaction
//   - Level is info for 2xx/3xx, warn for 4xx, error for 5xx or when a
//     handler recorded gin errors (which are appended as "errors")
//
// Run it after RequestID and Identity so the logger carries both ids.
func RedactingLogger(opts RedactOptions) gin.HandlerFunc {
	mask := map[string]struct{}{
		"authorization": {},
		"cookie":        {},
		"set-cookie":    {},
	}
	for _, h := range opts.MaskHeaders {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			mask[h] = struct{}{}
		}
	}
	maxQuery := opts.MaxQueryLen
	if maxQuery <= 0 {
		maxQuery = 2048
	}

	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		// Child logger shared with handlers through the context.
		lc := log.With().
			Str("request_id", GetRequestID(c)).
			Str("method", c.Request.Method).
			Str("path", path)
		if uid, ok := UserID(c); ok {
			lc = lc.Int64("user_id", uid)
		}
		l := lc.Logger()
		c.Set(loggerKey, &l)

		// Snapshot before the handler runs; handlers never see the copy.
		headers := make(map[string]string, len(c.Request.Header))
		for k, vv := range c.Request.Header {
			if _, ok := mask[strings.ToLower(k)]; ok {
				headers[k] = "[REDACTED]"
				continue
			}
			headers[k] = redact(strings.Join(vv, ", "))
		}
		query := c.Request.URL.RawQuery
		if len(query) > maxQuery {
			query = query[:maxQuery]
		}

		c.Next()

		status := c.Writer.Status()
		ev := l.Info()
		switch {
		case len(c.Errors) > 0 || status >= 500:
			ev = l.Error()
			if len(c.Errors) > 0 {
				ev = ev.Str("errors", c.Errors.String())
			}
		case status >= 400:
			ev = l.Warn()
		}
		ev.
			Str("query", redact(query)).
			Str("remote_ip", c.ClientIP()).
			Int("status", status).
			Int("bytes", c.Writer.Size()).
			Dur("latency", time.Since(start)).
			Interface("headers", headers).
			Msg("http_request")
	}
}
