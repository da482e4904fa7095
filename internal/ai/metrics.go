// Package ai – Metrics
//
// Prometheus counters for assistant replies and provider failures.
package ai

import "github.com/prometheus/client_golang/prometheus"

// Reply sources used as the "source" label of ai_replies_total.
const (
	sourceProvider = "provider"
	sourceFallback = "fallback"
)

var (
	replies = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_replies_total",
			Help: "Assistant replies produced, by source (provider or fallback).",
		},
		[]string{"source"},
	)
	providerErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_provider_errors_total",
			Help: "Failed provider calls by model.",
		},
		[]string{"model"},
	)
)

// init registers the collectors on the default registry served at /metrics.
func init() {
	prometheus.MustRegister(replies, providerErrors)
}
