// Package metrics holds the Prometheus collectors served on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Commands = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deskpilot_commands_total",
			Help: "Executed commands by action, normalization path and outcome",
		},
		[]string{"action", "path", "success"},
	)

	CommandDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "deskpilot_command_duration_seconds",
			Help:    "Time from request to result",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path"},
	)

	InterpretLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "deskpilot_interpret_latency_seconds",
			Help: "AI interpreter round-trip latency",
		},
		[]string{"backend"},
	)

	InterpretCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deskpilot_interpret_cache_total",
			Help: "Interpreter cache lookups by result",
		},
		[]string{"result"},
	)

	Requests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deskpilot_transport_requests_total",
			Help: "Requests received per transport",
		},
		[]string{"transport"},
	)

	WebSocketClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "deskpilot_websocket_clients",
			Help: "Connected WebSocket clients",
		},
	)

	EventsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "deskpilot_events_dropped_total",
			Help: "Events dropped because a subscriber was full",
		},
	)
)
