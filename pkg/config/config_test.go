package config_test

import (
	"testing"
	"time"

	"github.com/rihla-rentals/backend/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, config.StorageDriverPostgres, cfg.Database.Driver)
	assert.Equal(t, 10, cfg.Recommendation.DefaultLimit)
	assert.Equal(t, 50, cfg.Recommendation.MaxLimit)
	assert.Equal(t, 7*24*time.Hour, cfg.Recommendation.TrendingWindow)
	assert.False(t, cfg.Recommendation.IsolateGenerators)
	assert.False(t, cfg.Recommendation.AsyncPersist)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 120, cfg.RateLimit.TrackPerMinute)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.ServerAddr())
	assert.Empty(t, cfg.Server.TrustedProxies)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("RECOMMEND_DEFAULT_LIMIT", "6")
	t.Setenv("RECOMMEND_TRENDING_WINDOW", "48h")
	t.Setenv("RECOMMEND_ISOLATE_GENERATORS", "true")
	t.Setenv("ALLOWED_ORIGINS", "https://rihla.sa, https://admin.rihla.sa")
	t.Setenv("REDIS_PORT", "not-a-number")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8,127.0.0.1")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, config.StorageDriverMemory, cfg.Database.Driver)
	assert.Equal(t, 6, cfg.Recommendation.DefaultLimit)
	assert.Equal(t, 48*time.Hour, cfg.Recommendation.TrendingWindow)
	assert.True(t, cfg.Recommendation.IsolateGenerators)
	assert.Equal(t, []string{"https://rihla.sa", "https://admin.rihla.sa"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 6379, cfg.Redis.Port)
	assert.Equal(t, "localhost:6379", cfg.Redis.RedisAddr())
	assert.Equal(t, []string{"10.0.0.0/8", "127.0.0.1"}, cfg.Server.TrustedProxies)
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	t.Run("unknown driver", func(t *testing.T) {
		t.Setenv("STORAGE_DRIVER", "sqlite")
		_, err := config.Load()
		assert.Error(t, err)
	})

	t.Run("max below default", func(t *testing.T) {
		t.Setenv("RECOMMEND_MAX_LIMIT", "5")
		_, err := config.Load()
		assert.Error(t, err)
	})

	t.Run("negative rate limit", func(t *testing.T) {
		t.Setenv("TRACK_RATE_LIMIT", "-1")
		_, err := config.Load()
		assert.Error(t, err)
	})
}

func TestDatabaseDSN(t *testing.T) {
	db := config.DatabaseConfig{Host: "db", Port: 5433, User: "u", Password: "p", Database: "rihla", SSLMode: "require"}
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=rihla sslmode=require", db.DatabaseDSN())
}
