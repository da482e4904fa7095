// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file derives the caller identity from the X-User-ID header. The
// studio API has no tokens or sessions: the front end sends the logged-in
// user's id so per-caller state (idempotency records, rate limit buckets,
// log fields) can be keyed by user instead of by address.
package middleware

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// HeaderUserID carries the caller's numeric user id. The studio has no
// sessions; the header only scopes idempotency keys, rate limits and logs.
const HeaderUserID = "X-User-ID"

// ctxKeyUserID holds the parsed caller id as int64.
const ctxKeyUserID = "userID"

// Identity reads X-User-ID and stores the parsed id in the Gin context.
// Missing or malformed values leave the request anonymous.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw := strings.TrimSpace(c.GetHeader(HeaderUserID)); raw != "" {
			if id, err := strconv.ParseInt(raw, 10, 64); err == nil && id > 0 {
				c.Set(ctxKeyUserID, id)
			}
		}
		c.Next()
	}
}

// UserID returns the caller id set by Identity. The boolean is false for
// anonymous requests.
func UserID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(ctxKeyUserID)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok && id > 0
}

// Scope identifies the caller for idempotency and rate limiting:
// "user:<id>" when a user id is known, "ip:<addr>" otherwise.
func Scope(c *gin.Context) string {
	if id, ok := UserID(c); ok {
		return "user:" + strconv.FormatInt(id, 10)
	}
	return "ip:" + c.ClientIP()
}
