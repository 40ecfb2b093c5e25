package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Redis Operations Metrics
var (
	// RedisOpsTotal tracks total Redis operations by operation type and status
	RedisOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redis_operations_total",
			Help: "Total Redis operations by operation and status",
		},
		[]string{"operation", "status"},
	)

	// RedisOpDuration tracks Redis operation latency in seconds
	RedisOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "redis_operation_duration_seconds",
			Help:    "Redis operation duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation"},
	)

	// RedisConnectionErrors tracks Redis connection errors
	RedisConnectionErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "redis_connection_errors_total",
			Help: "Total Redis connection errors",
		},
	)

	// CircuitBreakerStateChanges tracks circuit breaker state transitions
	CircuitBreakerStateChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_changes_total",
			Help: "Circuit breaker state transitions by component and new state",
		},
		[]string{"component", "state"},
	)

	// CircuitBreakerState tracks current circuit breaker state (0=closed, 1=half-open, 2=open)
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Current circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"component"},
	)
)

// Connection Registry Metrics
var (
	// RegistryActiveKeys tracks subscriber keys with at least one open connection
	RegistryActiveKeys = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "registry_active_keys",
			Help: "Number of subscriber keys with at least one open connection",
		},
	)

	// RegistryConnections tracks open connections by key kind (user, post, feed)
	RegistryConnections = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "registry_connections",
			Help: "Open live-update connections by subscriber key kind",
		},
		[]string{"kind"},
	)

	// RegistryReapedTotal tracks connections removed after a failed send
	RegistryReapedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registry_reaped_connections_total",
			Help: "Connections reaped from the registry after a failed send, by reason",
		},
		[]string{"reason"},
	)

	// RegistryRejectedTotal tracks registrations refused because a key is full
	RegistryRejectedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "registry_rejected_connections_total",
			Help: "Registrations rejected because the per-key connection limit was reached",
		},
	)

	// RegistryCommandChannelDepth tracks current command channel depth
	RegistryCommandChannelDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "registry_command_channel_depth",
			Help: "Current registry command channel depth",
		},
	)

	// RegistryPanicsTotal tracks registry actor panic recoveries
	RegistryPanicsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "registry_panics_total",
			Help: "Total registry panic recoveries",
		},
	)

	// RegistryStopTimeoutsTotal tracks registry stops that exceeded timeout
	RegistryStopTimeoutsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "registry_stop_timeouts_total",
			Help: "Registry stops that exceeded timeout",
		},
	)
)

// Delivery Metrics
var (
	// EnvelopesPublishedTotal tracks envelopes handed to the publisher by type
	EnvelopesPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "delivery_envelopes_published_total",
			Help: "Envelopes published per subscriber key, by envelope type",
		},
		[]string{"type"},
	)

	// DeliveryFanout tracks how many connections one mutation reached
	DeliveryFanout = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "delivery_fanout_connections",
			Help:    "Connections reached by one delivered mutation, by envelope type",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100, 250, 1000},
		},
		[]string{"type"},
	)

	// DeliveryErrorsTotal tracks publish failures by envelope type
	DeliveryErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "delivery_errors_total",
			Help: "Publish failures during fan-out, by envelope type",
		},
		[]string{"type"},
	)

	// ReadMarkedTotal tracks rows flipped to read, by kind (personal, group)
	ReadMarkedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "read_marked_total",
			Help: "Messages marked as read, by chat kind",
		},
		[]string{"kind"},
	)
)

// Relay (Redis Pub/Sub) Metrics
var (
	// RelayPublishedTotal tracks envelopes published to Redis by status
	RelayPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_published_total",
			Help: "Envelopes published to the cross-instance relay, by status",
		},
		[]string{"status"},
	)

	// RelayReceivedTotal tracks relay messages received by status
	RelayReceivedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_received_total",
			Help: "Relay messages received from Redis, by status",
		},
		[]string{"status"},
	)

	// RelayFallbackTotal tracks publishes delivered locally because Redis failed
	RelayFallbackTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_local_fallback_total",
			Help: "Publishes delivered to local connections only because the relay was unavailable",
		},
	)

	// RelaySubscriptionActive is 1 while the relay subscription is running
	RelaySubscriptionActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "relay_subscription_active",
			Help: "Whether the relay subscription is active (1) or not (0)",
		},
	)
)

// WebSocket Metrics
var (
	// WebSocketConnectionsCurrent tracks currently open WebSocket connections
	WebSocketConnectionsCurrent = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections_current",
			Help: "Current number of open WebSocket connections",
		},
	)

	// WebSocketConnectionsTotal tracks accepted connections by channel
	WebSocketConnectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_connections_total",
			Help: "Total WebSocket connections accepted, by channel",
		},
		[]string{"channel"},
	)

	// WebSocketMessageSendDuration tracks a single frame write
	WebSocketMessageSendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "websocket_message_send_duration_seconds",
			Help:    "Time to write one message to a WebSocket",
			Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
		},
	)

	// WebSocketConnectionDuration tracks connection lifetimes
	WebSocketConnectionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "websocket_connection_duration_seconds",
			Help:    "Lifetime of WebSocket connections",
			Buckets: []float64{1, 10, 60, 300, 900, 3600, 14400},
		},
	)

	// WebSocketPingFailures tracks pings that could not be written
	WebSocketPingFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_ping_failures_total",
			Help: "Total WebSocket ping write failures",
		},
	)

	// WebSocketProtocolErrors tracks connections closed for malformed input
	WebSocketProtocolErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_protocol_errors_total",
			Help: "Connections terminated because of malformed inbound frames, by channel",
		},
		[]string{"channel"},
	)

	// WebSocketConnectionsRejected tracks refused upgrades by reason
	WebSocketConnectionsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_connections_rejected_total",
			Help: "WebSocket connections rejected, by reason",
		},
		[]string{"reason"},
	)

	// WebSocketConnectionCapacity tracks global limiter utilization
	WebSocketConnectionCapacity = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connection_capacity_percent",
			Help: "Percentage of the global connection limit in use",
		},
	)
)

// Database Metrics
var (
	// DBQueryDuration tracks query latency by statement kind
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"query"},
	)

	// DBErrorsTotal tracks failed queries by statement kind
	DBErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_errors_total",
			Help: "Total database query errors",
		},
		[]string{"query"},
	)
)

// BuildInfo exposes version information as labels with a constant value of 1
var BuildInfo = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "build_info",
		Help: "Build information",
	},
	[]string{"version", "commit", "go_version"},
)
