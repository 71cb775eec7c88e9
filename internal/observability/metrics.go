package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis errors by command.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mundotango_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"command"})

	// ActiveWebSockets is the number of open /ws connections.
	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mundotango_websocket_connections",
		Help: "Number of active WebSocket connections",
	})

	// WebSocketEvents counts inbound WebSocket frames by type.
	WebSocketEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mundotango_websocket_events_total",
		Help: "Total inbound WebSocket frames by type",
	}, []string{"type"})

	// WebSocketBackpressureDrops counts messages dropped due to backpressure.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mundotango_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"reason"})

	// SerializationErrors counts resource shaping failures.
	SerializationErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mundotango_resource_serialization_errors_total",
		Help: "Resource serializer failures by resource",
	}, []string{"resource"})

	// UploadedBytes counts bytes accepted by the chunked upload endpoint.
	UploadedBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mundotango_upload_bytes_total",
		Help: "Total bytes received through chunked uploads",
	})

	// LogRecordsFiltered counts log records dropped by FilterHandler.
	LogRecordsFiltered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mundotango_log_records_filtered_total",
		Help: "Log records dropped by the noise filter",
	})
)
