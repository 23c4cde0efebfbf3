package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingRequired(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("REDIS_ADDR", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "APP_ENV")
	assert.Contains(t, err.Error(), "REDIS_ADDR")
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("LISTEN_ADDR", "")
	t.Setenv("NOTIFICATION_DB", "")
	t.Setenv("MAX_BODY_BYTES", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "notifications.db", cfg.NotificationDB)
	assert.Equal(t, int64(1<<20), cfg.MaxBodyBytes)
	assert.Equal(t, 0, cfg.RateLimitCapacity)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("LISTEN_ADDR", ":9000")
	t.Setenv("TWIN_SERVICE_URL", "http://twin:8081")
	t.Setenv("RATE_LIMIT_CAPACITY", "20")
	t.Setenv("RATE_LIMIT_REFILL_PER_SEC", "10")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.ListenAddr)
	assert.Equal(t, "http://twin:8081", cfg.TwinServiceURL)
	assert.Equal(t, 20, cfg.RateLimitCapacity)
	assert.Equal(t, 10, cfg.RateLimitRefillPerSec)
}
