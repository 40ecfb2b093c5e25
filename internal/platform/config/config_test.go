package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost/moveup")
	t.Setenv("SESSION_SECRET", "test-session-secret")
	t.Setenv("REDIS_URL", "")
}

func TestLoad_AllRequiredVarsSet(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost/moveup", cfg.DatabaseURL)
	assert.Equal(t, "test-session-secret", cfg.SessionSecret)
	assert.False(t, cfg.RelayEnabled())
}

func TestLoad_MissingRequired(t *testing.T) {
	tests := []struct {
		name    string
		skipEnv string
		wantErr string
	}{
		{"missing DATABASE_URL", "DATABASE_URL", "DATABASE_URL is required"},
		{"missing SESSION_SECRET", "SESSION_SECRET", "SESSION_SECRET is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tt.skipEnv, "")

			_, err := Load()
			require.Error(t, err)
			assert.Equal(t, tt.wantErr, err.Error())
		})
	}
}

func TestLoad_DefaultValues(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "moveup:envelopes", cfg.RelayChannel)
	assert.Equal(t, 10000, cfg.MaxWebSocketConnections)
	assert.Equal(t, 0, cfg.MaxConnectionsPerKey)
	assert.InDelta(t, 5.0, cfg.MessageRatePerSecond, 0.0001)
	assert.Equal(t, 10, cfg.MessageBurst)
	assert.Equal(t, 168*time.Hour, cfg.SessionMaxAge)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
}

func TestLoad_RedisEnablesRelay(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("REDIS_URL", "redis://localhost:6379")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.RelayEnabled())
}

func TestLoad_ProductionRequiresLongSecret(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("APP_ENV", "production")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 32 characters")

	t.Setenv("SESSION_SECRET", "0123456789abcdef0123456789abcdef")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "production", cfg.AppEnv)
}

func TestLoad_InvalidLimits(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"zero websocket cap", "MAX_WEBSOCKET_CONNECTIONS", "0"},
		{"negative per-key cap", "MAX_CONNECTIONS_PER_KEY", "-1"},
		{"zero rate", "MESSAGE_RATE_PER_SECOND", "0"},
		{"zero burst", "MESSAGE_BURST", "0"},
		{"zero shutdown timeout", "SHUTDOWN_TIMEOUT", "0s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}
