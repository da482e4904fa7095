package middleware

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestIdentityAndScope(t *testing.T) {
	cases := []struct {
		name   string
		header string
		want   string
		hasID  bool
	}{
		{"numeric id", "7", "user:7", true},
		{"padded id", "  12 ", "user:12", true},
		{"missing", "", "ip:203.0.113.9", false},
		{"not a number", "abc", "ip:203.0.113.9", false},
		{"zero", "0", "ip:203.0.113.9", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.Use(Identity())
			var (
				scope string
				ok    bool
			)
			r.GET("/", func(c *gin.Context) {
				scope = Scope(c)
				_, ok = UserID(c)
				c.Status(http.StatusNoContent)
			})
			hdr := map[string]string{}
			if tc.header != "" {
				hdr[HeaderUserID] = tc.header
			}
			do(r, http.MethodGet, "/", hdr)
			if scope != tc.want || ok != tc.hasID {
				t.Fatalf("scope=%q ok=%v; want %q %v", scope, ok, tc.want, tc.hasID)
			}
		})
	}
}
