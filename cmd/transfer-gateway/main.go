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

	"github.com/redis/go-redis/v9"

	"github.com/example/piggybank/internal/config"
	"github.com/example/piggybank/internal/events"
	"github.com/example/piggybank/internal/gateway"
	"github.com/example/piggybank/internal/security"
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
	if cfg.TwinServiceURL == "" {
		logger.Error("missing required environment variables: TWIN_SERVICE_URL")
		os.Exit(1)
	}

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()

	bus := events.NewBus(redisClient, logger)
	registry := gateway.NewRegistry()
	twinClient := gateway.NewHTTPTwinClient(cfg.TwinServiceURL)
	svc := gateway.NewService(registry, bus, twinClient, logger)

	auditor := audit.NewChainLogger("transfer-gateway")

	var rateLimiter *security.RedisTokenBucket
	if cfg.RateLimitCapacity > 0 {
		rateLimiter = &security.RedisTokenBucket{
			Redis:      redisClient,
			Prefix:     "transfer_gateway",
			Capacity:   cfg.RateLimitCapacity,
			RefillRate: float64(cfg.RateLimitRefillPerSec),
		}
	}

	router, err := gateway.NewRouter(gateway.Dependencies{
		Logger:       logger,
		Registry:     registry,
		Transfers:    svc,
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
		logger.Info("transfer-gateway listening", "addr", cfg.ListenAddr)
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
	logger.Info("transfer-gateway stopped")
}
