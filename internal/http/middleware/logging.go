// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides the request id injector, panic recovery and access to
// the request-scoped logger that RedactingLogger attaches. Recommended order:
//
//  1. RequestID()
//  2. Identity()
//  3. RedactingLogger(...)
//  4. Recovery()
//
// so that panics and access logs carry the correlation id and caller.
package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Context keys and headers shared by the middleware in this package.
const (
	requestIDKey    = "requestID"    // gin context key holding the correlation id
	requestIDHeader = "X-Request-ID" // inbound and outbound correlation header
	loggerKey       = "logger"       // gin context key holding *zerolog.Logger
)

// RequestID returns a middleware that ensures every request carries a
// correlation id.
//
// Behavior:
//   - Reuses the inbound X-Request-ID when the client sent one
//   - Otherwise generates a UUIDv4
//   - Stores the id in the gin context under "requestID"
//   - Echoes it on the response so clients can quote it in bug reports
//
// The same id appears in the error envelope (request_id) and in every log
// line written through LoggerFrom.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(requestIDHeader)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(requestIDKey, rid)
		c.Writer.Header().Set(requestIDHeader, rid)
		c.Next()
	}
}

// GetRequestID returns the correlation id stored by RequestID, or "" when
// the middleware did not run.
func GetRequestID(c *gin.Context) string {
	v, _ := c.Get(requestIDKey)
	return asString(v)
}

// Recovery returns a middleware that converts panics in later handlers into
// a 500 response.
//
// Behavior:
//   - Logs the panic value and stack through the request-scoped logger
//   - If nothing was written yet, answers with the JSON error envelope
//     {request_id, code: "internal_error", message}
//   - If the response already started, only aborts with 500
//
// Panics inside the WebSocket read loop never reach this middleware; the
// realtime package recovers those per frame.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			rid := GetRequestID(c)
			LoggerFrom(c).Error().
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Msg("panic recovered")

			// Headers are gone once the body started streaming.
			if c.Writer.Written() {
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}
			c.Header(requestIDHeader, rid)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"request_id": rid,
				"code":       "internal_error",
				"message":    "internal server error",
			})
		}()
		c.Next()
	}
}

// LoggerFrom returns the request-scoped logger attached by RedactingLogger.
// When none was attached (tests, or handlers mounted without the logger) it
// derives one from the global logger tagged with the request id. Never nil.
//
// Handlers log through it so every entry carries request_id, method, path
// and the caller scope.
func LoggerFrom(c *gin.Context) *zerolog.Logger {
	if v, ok := c.Get(loggerKey); ok {
		if lg, ok := v.(*zerolog.Logger); ok {
			return lg
		}
	}
	l := log.With().Str("request_id", GetRequestID(c)).Logger()
	return &l
}

// asString returns v when it is a string, else "".
func asString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
