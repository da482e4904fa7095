// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file exposes Prometheus instrumentation for HTTP traffic. Labels use
// the registered route template so cardinality stays bounded; requests that
// matched no route share the "unmatched" path label.
package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// unmatchedRoute is the path label for requests that hit NoRoute/NoMethod.
const unmatchedRoute = "unmatched"

// Collectors registered with the default Prometheus registry and served on
// GET /metrics by the router.
var (
	// http_requests_total{method,path,status}
	httpReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	// Status is left out to keep the histogram small.
	httpLat = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Includes open WebSocket upgrades until the connection closes.
	httpInflight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_inflight",
			Help: "Current number of in-flight HTTP requests.",
		},
	)

	httpRespSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_response_size_bytes",
			Help:    "Size of HTTP responses in bytes.",
			Buckets: prometheus.ExponentialBuckets(256, 4, 8), // 256B..4MiB
		},
		[]string{"method", "path"},
	)

	// Incremented by RateLimiter.reject.
	rateLimited = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "http_rate_limited_total",
			Help: "Requests rejected by the rate limiter.",
		},
	)
)

func init() {
	prometheus.MustRegister(httpReqs, httpLat, httpInflight, httpRespSize, rateLimited)
}

// Metrics returns a middleware that records HTTP request metrics.
//
// Behavior:
//   - http_requests_total is incremented for every request, labelled with the
//     route template (not the raw path) and the final status
//   - http_requests_inflight tracks requests still inside the chain
//   - http_request_duration_seconds and http_response_size_bytes are observed
//     for ordinary routes
//
// Routes listed in longLived (for example the WebSocket endpoint) are
// counted but kept out of the latency and size histograms, since their
// duration is the lifetime of a connection.
func Metrics(longLived ...string) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(longLived))
	for _, p := range longLived {
		skip[p] = struct{}{}
	}
	return func(c *gin.Context) {
		start := time.Now()
		httpInflight.Inc()
		defer httpInflight.Dec()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = unmatchedRoute
		}
		method := c.Request.Method
		httpReqs.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).Inc()

		if _, ok := skip[path]; ok {
			return
		}
		httpLat.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
		// Size is -1 when nothing was written.
		if size := c.Writer.Size(); size >= 0 {
			httpRespSize.WithLabelValues(method, path).Observe(float64(size))
		}
	}
}
