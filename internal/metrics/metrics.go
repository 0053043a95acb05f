// Package metrics exposes Prometheus instrumentation for the signaling
// server.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "signalhub_connections_active",
		Help: "Number of live websocket connections.",
	})

	JoinsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "signalhub_room_joins_total",
		Help: "Successful room joins, including room switches.",
	})

	LeavesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "signalhub_room_leaves_total",
		Help: "Room leaves, explicit or via disconnect.",
	})

	RelayedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "signalhub_relayed_events_total",
		Help: "Events relayed to clients, by event type.",
	}, []string{"event"})

	DroppedSendsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "signalhub_dropped_sends_total",
		Help: "Sends dropped because the client buffer was full or the target was gone.",
	})

	GatewayFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "signalhub_gateway_failures_total",
		Help: "Best-effort gateway calls that failed, by operation.",
	}, []string{"op"})
)

// Handler exposes Prometheus metrics at /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
