// Package realtime – metrics
package realtime

import "github.com/prometheus/client_golang/prometheus"

// Collectors for the WebSocket layer, registered with the default registry
// and exposed on GET /metrics alongside the HTTP metrics.
var (
	// Incremented by Hub.Register, decremented by Hub.Unregister.
	connections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ws_connections",
		Help: "Open WebSocket connections.",
	})
	framesIn = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ws_frames_received_total",
			Help: "Inbound frames by event type.",
		},
		[]string{"type"},
	)
	// One increment per recipient per broadcast.
	deliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ws_deliveries_total",
			Help: "Broadcast deliveries by outcome (ok or dropped).",
		},
		[]string{"outcome"},
	)
	// Mirrors Handler.Pending.
	pendingReplies = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ws_pending_replies",
		Help: "Scheduled assistant replies not yet delivered.",
	})
)

func init() {
	prometheus.MustRegister(connections, framesIn, deliveries, pendingReplies)
}
