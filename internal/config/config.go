package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds the configuration shared by the PiggyBank services. Every
// binary loads the same structure; each main checks the variables it needs
// beyond the common set.
type Config struct {
	Environment string
	ListenAddr  string
	RedisAddr   string

	// DatabaseURL is the account-twin Postgres DSN.
	DatabaseURL string
	// NotificationDB is the notification-service SQLite file path.
	NotificationDB string

	// TwinServiceURL is the base URL the gateway forwards transactions to.
	TwinServiceURL string
	// GatewayURL is the base URL the twin service registers new accounts with.
	GatewayURL string

	MaxBodyBytes          int64
	RateLimitCapacity     int
	RateLimitRefillPerSec int
}

// Load loads configuration from the environment. A .env file is read first
// when present so local development matches the deployed variable names.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Environment:           os.Getenv("APP_ENV"),
		ListenAddr:            getenv("LISTEN_ADDR", ":8080"),
		RedisAddr:             os.Getenv("REDIS_ADDR"),
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		NotificationDB:        getenv("NOTIFICATION_DB", "notifications.db"),
		TwinServiceURL:        os.Getenv("TWIN_SERVICE_URL"),
		GatewayURL:            os.Getenv("GATEWAY_URL"),
		MaxBodyBytes:          int64(getenvInt("MAX_BODY_BYTES", 1<<20)),
		RateLimitCapacity:     getenvInt("RATE_LIMIT_CAPACITY", 0),
		RateLimitRefillPerSec: getenvInt("RATE_LIMIT_REFILL_PER_SEC", 0),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the variables every service needs.
func (c *Config) Validate() error {
	var missing []string

	if c.Environment == "" {
		missing = append(missing, "APP_ENV")
	}
	if c.RedisAddr == "" {
		missing = append(missing, "REDIS_ADDR")
	}

	if len(missing) > 0 {
		return errors.New("missing required environment variables: " + strings.Join(missing, ", "))
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
