package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MYC-A/MoveUp/internal/app"
	"github.com/MYC-A/MoveUp/internal/database"
	"github.com/MYC-A/MoveUp/internal/delivery"
	"github.com/MYC-A/MoveUp/internal/platform/config"
	"github.com/MYC-A/MoveUp/internal/platform/logging"
	"github.com/MYC-A/MoveUp/internal/platform/retry"
	"github.com/MYC-A/MoveUp/internal/platform/version"
	"github.com/MYC-A/MoveUp/internal/redis"
	"github.com/MYC-A/MoveUp/internal/registry"
	"github.com/MYC-A/MoveUp/internal/server"
	"github.com/MYC-A/MoveUp/internal/unread"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"
)

const startupTimeout = 2 * time.Minute

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupDB(ctx context.Context, cfg *config.Config) *pgxpool.Pool {
	pool, err := database.ConnectWithRetry(ctx, cfg.DatabaseURL, retry.Startup("postgres"))
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := database.RunMigrations(ctx, pool); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	return pool
}

func setupRedis(ctx context.Context, cfg *config.Config) *goredis.Client {
	client, err := retry.Do(ctx, retry.Startup("redis"), func(ctx context.Context) (*goredis.Client, error) {
		return redis.NewClient(ctx, cfg.RedisURL)
	})
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	return client
}

func runGracefulShutdown(cfg *config.Config, srv *server.Server, reg *registry.Registry, stopRelay context.CancelFunc) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		stopRelay()
		reg.Stop()

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	version.Register()
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port, "version", version.Get().Version)

	startCtx, cancelStart := context.WithTimeout(context.Background(), startupTimeout)
	defer cancelStart()

	pool := setupDB(startCtx, cfg)
	defer pool.Close()

	reg := registry.New(clock, cfg.MaxConnectionsPerKey)

	healthChecks := []server.HealthCheck{
		{Name: "postgres", Check: pool.Ping},
	}

	var publisher delivery.Publisher = reg
	relayCtx, stopRelay := context.WithCancel(context.Background())
	defer stopRelay()

	if cfg.RelayEnabled() {
		redisClient := setupRedis(startCtx, cfg)
		defer func() { _ = redisClient.Close() }()

		relay := redis.NewRelay(redisClient, reg, cfg.RelayChannel)
		go func() {
			if err := relay.Run(relayCtx); err != nil {
				slog.Error("Envelope relay stopped", "error", err)
			}
		}()
		publisher = relay

		healthChecks = append(healthChecks, server.HealthCheck{
			Name:  "redis",
			Check: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		})
	} else {
		slog.Info("REDIS_URL not set, delivering to local connections only")
	}

	appSvc := app.NewService(
		database.NewUserRepo(pool),
		database.NewMessageRepo(pool),
		database.NewGroupChatRepo(pool),
		database.NewPostRepo(pool),
		unread.NewReconciler(database.NewReadStateRepo(pool), clock),
		delivery.NewEngine(publisher),
	)

	srv := server.NewServer(cfg, appSvc, reg, clock, healthChecks)

	done := runGracefulShutdown(cfg, srv, reg, stopRelay)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
