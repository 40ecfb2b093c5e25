package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

type Config struct {
	AppEnv        string `env:"APP_ENV" default:"development"`
	Port          string `env:"PORT" default:"8080"`
	AppURL        string `env:"APP_URL" default:"http://localhost:8080"`
	DatabaseURL   string `env:"DATABASE_URL"`
	RedisURL      string `env:"REDIS_URL"`
	RelayChannel  string `env:"RELAY_CHANNEL" default:"moveup:envelopes"`
	SessionSecret string `env:"SESSION_SECRET"`
	LogLevel      string `env:"LOG_LEVEL" default:"info"`
	LogFormat     string `env:"LOG_FORMAT" default:"text"`

	MaxWebSocketConnections int `env:"MAX_WEBSOCKET_CONNECTIONS" default:"10000"`
	MaxConnectionsPerKey    int `env:"MAX_CONNECTIONS_PER_KEY" default:"0"`
	MaxConnectionsPerIP     int `env:"MAX_CONNECTIONS_PER_IP" default:"50"`

	ConnectionRatePerSecond float64 `env:"CONNECTION_RATE_PER_SECOND" default:"10"`
	ConnectionBurst         int     `env:"CONNECTION_BURST" default:"20"`

	MessageRatePerSecond float64 `env:"MESSAGE_RATE_PER_SECOND" default:"5"`
	MessageBurst         int     `env:"MESSAGE_BURST" default:"10"`

	SessionMaxAge   time.Duration `env:"SESSION_MAX_AGE" default:"168h"` // 7 days
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// RelayEnabled reports whether envelopes are fanned out across instances.
func (c *Config) RelayEnabled() bool {
	return c.RedisURL != ""
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	if cfg.SessionSecret == "" {
		return errors.New("SESSION_SECRET is required")
	}
	if len(cfg.SessionSecret) < 32 && cfg.AppEnv == "production" {
		return errors.New("SESSION_SECRET must be at least 32 characters in production")
	}
	if cfg.MaxWebSocketConnections <= 0 {
		return errors.New("MAX_WEBSOCKET_CONNECTIONS must be positive")
	}
	if cfg.MaxConnectionsPerIP <= 0 {
		return errors.New("MAX_CONNECTIONS_PER_IP must be positive")
	}
	if cfg.ConnectionRatePerSecond <= 0 || cfg.ConnectionBurst <= 0 {
		return errors.New("CONNECTION_RATE_PER_SECOND and CONNECTION_BURST must be positive")
	}
	if cfg.MaxConnectionsPerKey < 0 {
		return errors.New("MAX_CONNECTIONS_PER_KEY must not be negative")
	}
	if cfg.MessageRatePerSecond <= 0 || cfg.MessageBurst <= 0 {
		return errors.New("MESSAGE_RATE_PER_SECOND and MESSAGE_BURST must be positive")
	}
	if cfg.ShutdownTimeout <= 0 {
		return errors.New("SHUTDOWN_TIMEOUT must be positive")
	}
	return nil
}
