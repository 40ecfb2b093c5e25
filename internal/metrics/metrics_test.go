package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRegistration(t *testing.T) {
	// Every collector must carry a valid descriptor; promauto panics on
	// duplicate names at init, so reaching this point proves uniqueness.
	metrics := []prometheus.Collector{
		// Redis metrics
		RedisOpsTotal,
		RedisOpDuration,
		RedisConnectionErrors,
		CircuitBreakerStateChanges,
		CircuitBreakerState,

		// Registry metrics
		RegistryActiveKeys,
		RegistryConnections,
		RegistryReapedTotal,
		RegistryRejectedTotal,
		RegistryCommandChannelDepth,
		RegistryPanicsTotal,
		RegistryStopTimeoutsTotal,

		// Delivery metrics
		EnvelopesPublishedTotal,
		DeliveryFanout,
		DeliveryErrorsTotal,
		ReadMarkedTotal,

		// Relay metrics
		RelayPublishedTotal,
		RelayReceivedTotal,
		RelayFallbackTotal,
		RelaySubscriptionActive,

		// WebSocket metrics
		WebSocketConnectionsCurrent,
		WebSocketConnectionsTotal,
		WebSocketMessageSendDuration,
		WebSocketConnectionDuration,
		WebSocketPingFailures,
		WebSocketProtocolErrors,
		WebSocketConnectionsRejected,
		WebSocketConnectionCapacity,

		// Database metrics
		DBQueryDuration,
		DBErrorsTotal,

		BuildInfo,
	}

	for _, metric := range metrics {
		desc := make(chan *prometheus.Desc, 1)
		metric.Describe(desc)
		close(desc)

		require.NotNil(t, <-desc, "metric should have a valid descriptor")
	}
}

func TestCounterVecMetrics(t *testing.T) {
	tests := []struct {
		name    string
		metric  *prometheus.CounterVec
		labels  prometheus.Labels
		incBy   int
		wantVal float64
	}{
		{
			name:    "redis operations counter",
			metric:  RedisOpsTotal,
			labels:  prometheus.Labels{"operation": "publish", "status": "success"},
			incBy:   5,
			wantVal: 5,
		},
		{
			name:    "published envelopes counter",
			metric:  EnvelopesPublishedTotal,
			labels:  prometheus.Labels{"type": "like"},
			incBy:   3,
			wantVal: 3,
		},
		{
			name:    "reaped connections counter",
			metric:  RegistryReapedTotal,
			labels:  prometheus.Labels{"reason": "slow_consumer"},
			incBy:   2,
			wantVal: 2,
		},
		{
			name:    "read marked counter",
			metric:  ReadMarkedTotal,
			labels:  prometheus.Labels{"kind": "group"},
			incBy:   7,
			wantVal: 7,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.metric.Reset()

			for i := 0; i < tt.incBy; i++ {
				tt.metric.With(tt.labels).Inc()
			}

			assert.Equal(t, tt.wantVal, testutil.ToFloat64(tt.metric.With(tt.labels)))
		})
	}
}

func TestGaugeMetrics(t *testing.T) {
	tests := []struct {
		name     string
		metric   prometheus.Gauge
		setValue float64
	}{
		{name: "registry active keys", metric: RegistryActiveKeys, setValue: 12},
		{name: "websocket connections current", metric: WebSocketConnectionsCurrent, setValue: 75},
		{name: "relay subscription active", metric: RelaySubscriptionActive, setValue: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.metric.Set(tt.setValue)
			assert.Equal(t, tt.setValue, testutil.ToFloat64(tt.metric))
		})
	}
}

func TestGaugeVecMetrics(t *testing.T) {
	RegistryConnections.Reset()

	RegistryConnections.WithLabelValues("user").Set(4)
	RegistryConnections.WithLabelValues("feed").Set(9)

	assert.Equal(t, 4.0, testutil.ToFloat64(RegistryConnections.WithLabelValues("user")))
	assert.Equal(t, 9.0, testutil.ToFloat64(RegistryConnections.WithLabelValues("feed")))
}

func TestHistogramMetrics(t *testing.T) {
	t.Run("delivery fanout", func(t *testing.T) {
		DeliveryFanout.Reset()
		for _, obs := range []float64{0, 1, 3} {
			DeliveryFanout.WithLabelValues("comment").Observe(obs)
		}
		assert.Greater(t, testutil.CollectAndCount(DeliveryFanout), 0)
	})

	t.Run("websocket message send duration", func(t *testing.T) {
		for _, obs := range []float64{0.0001, 0.0002, 0.0003} {
			WebSocketMessageSendDuration.Observe(obs)
		}
		assert.Greater(t, testutil.CollectAndCount(WebSocketMessageSendDuration), 0)
	})
}

func TestMetricNaming(t *testing.T) {
	tests := []struct {
		name         string
		metricName   string
		wantContains string
	}{
		{"counter has _total suffix", "redis_operations_total", "_total"},
		{"duration has _seconds suffix", "redis_operation_duration_seconds", "_seconds"},
		{"reaped counter has _total suffix", "registry_reaped_connections_total", "_total"},
		{"relay fallback has _total suffix", "relay_local_fallback_total", "_total"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, strings.Contains(tt.metricName, tt.wantContains),
				"metric name %s should contain %s", tt.metricName, tt.wantContains)
		})
	}
}

func TestMetricTypes(t *testing.T) {
	t.Run("counters only increase", func(t *testing.T) {
		RelayFallbackTotal.Inc()
		before := testutil.ToFloat64(RelayFallbackTotal)
		RelayFallbackTotal.Inc()
		assert.Greater(t, testutil.ToFloat64(RelayFallbackTotal), before)
	})

	t.Run("gauges can increase and decrease", func(t *testing.T) {
		gauge := RegistryCommandChannelDepth

		gauge.Set(10)
		gauge.Inc()
		assert.Equal(t, 11.0, testutil.ToFloat64(gauge))

		gauge.Dec()
		assert.Equal(t, 10.0, testutil.ToFloat64(gauge))
	})
}
