package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/example/piggybank/internal/config"
	"github.com/example/piggybank/internal/events"
	"github.com/example/piggybank/internal/security"
	"github.com/example/piggybank/internal/twin"
	"github.com/example/piggybank/pkg/audit"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	if cfg.DatabaseURL == "" {
		logger.Error("missing required environment variables: DATABASE_URL")
		os.Exit(1)
	}

	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create postgres pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	store := twin.NewPostgresStore(pool)
	if err := store.EnsureSchema(context.Background()); err != nil {
		logger.Error("failed to ensure schema", "error", err)
		os.Exit(1)
	}

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()

	bus := events.NewBus(redisClient, logger)

	var registrar twin.Registrar
	if cfg.GatewayURL != "" {
		registrar = twin.NewGatewayClient(cfg.GatewayURL)
	} else {
		logger.Warn("GATEWAY_URL not set, new accounts will not be registered as monitored")
	}

	svc := twin.NewService(store, bus, registrar, logger)

	auditor := audit.NewChainLogger("account-twin")

	var rateLimiter *security.RedisTokenBucket
	if cfg.RateLimitCapacity > 0 {
		rateLimiter = &security.RedisTokenBucket{
			Redis:      redisClient,
			Prefix:     "account_twin",
			Capacity:   cfg.RateLimitCapacity,
			RefillRate: float64(cfg.RateLimitRefillPerSec),
		}
	}

	router, err := twin.NewRouter(twin.Dependencies{
		Logger:       logger,
		Accounts:     svc,
		Transactions: svc,
		Auditor:      auditor,
		RateLimiter:  rateLimiter,
		MaxBodyBytes: cfg.MaxBodyBytes,
	})
	if err != nil {
		logger.Error("failed to build router", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("account-twin listening", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
	logger.Info("account-twin stopped")
}
