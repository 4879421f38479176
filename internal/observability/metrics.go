// Package observability holds the prometheus collectors and tracing setup
// shared by the store, the broadcast pipeline and the HTTP layer.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StoreOperationLatency records document load/save latency by backend.
	StoreOperationLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pepeboard_store_operation_duration_seconds",
		Help:    "Store operation latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"backend", "operation"})

	// StoreErrors counts failed store operations.
	StoreErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pepeboard_store_errors_total",
		Help: "Total number of failed store operations",
	}, []string{"backend", "operation"})

	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pepeboard_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// PostMutations counts committed writes by operation.
	PostMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pepeboard_post_mutations_total",
		Help: "Total number of committed board mutations",
	}, []string{"operation"})

	// WebSocketConnectionsTotal is the gauge of total WebSocket connections.
	WebSocketConnectionsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pepeboard_websocket_connections_total",
		Help: "Total number of active WebSocket connections",
	})

	// BroadcastEvents counts events handed to the broadcaster by type and outcome.
	BroadcastEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pepeboard_broadcast_events_total",
		Help: "Total broadcast events by type and outcome",
	}, []string{"event_type", "outcome"})

	// WebSocketBackpressureDrops counts messages dropped due to backpressure by hub and reason.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pepeboard_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})
)

// TrackStore returns a function that records store latency when called (e.g. defer).
func TrackStore(backend, operation string) func() {
	start := time.Now()
	return func() {
		StoreOperationLatency.WithLabelValues(backend, operation).Observe(time.Since(start).Seconds())
	}
}
