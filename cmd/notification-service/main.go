package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/redis/go-redis/v9"

	"github.com/example/piggybank/internal/config"
	"github.com/example/piggybank/internal/events"
	"github.com/example/piggybank/internal/notify"
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

	db, err := sql.Open("sqlite3", cfg.NotificationDB)
	if err != nil {
		logger.Error("failed to open notification database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	store := notify.NewSQLiteStore(db)
	if err := store.EnsureSchema(context.Background()); err != nil {
		logger.Error("failed to ensure schema", "error", err)
		os.Exit(1)
	}

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()

	bus := events.NewBus(redisClient, logger)
	svc := notify.NewService(store, bus, logger)

	consumerCtx, stopConsumer := context.WithCancel(context.Background())
	defer stopConsumer()
	if err := bus.Subscribe(consumerCtx, events.TopicAccountUpdated, svc.HandleAccountUpdated); err != nil {
		logger.Error("failed to subscribe to account updates", "error", err)
		os.Exit(1)
	}

	auditor := audit.NewChainLogger("notification-service")

	var rateLimiter *security.RedisTokenBucket
	if cfg.RateLimitCapacity > 0 {
		rateLimiter = &security.RedisTokenBucket{
			Redis:      redisClient,
			Prefix:     "notification_service",
			Capacity:   cfg.RateLimitCapacity,
			RefillRate: float64(cfg.RateLimitRefillPerSec),
		}
	}

	router, err := notify.NewRouter(notify.Dependencies{
		Logger:        logger,
		Notifications: svc,
		Subscriptions: svc,
		Auditor:       auditor,
		RateLimiter:   rateLimiter,
		MaxBodyBytes:  cfg.MaxBodyBytes,
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
		logger.Info("notification-service listening", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	stopConsumer()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
	logger.Info("notification-service stopped")
}
