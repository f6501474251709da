//go:build integration

package cache_test

import (
	"context"
	"os"
	"strconv"
	"testing"

	"github.com/google/uuid"
	"github.com/rihla-rentals/backend/internal/adapters/cache"
	"github.com/rihla-rentals/backend/internal/domain/providers"
	"github.com/rihla-rentals/backend/internal/infrastructure/clients/redis"
	"github.com/rihla-rentals/backend/pkg/config"
	apperrors "github.com/rihla-rentals/backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) providers.CacheProvider {
	t.Helper()
	host := os.Getenv("TEST_REDIS_HOST")
	if host == "" {
		t.Skip("Skipping integration test: TEST_REDIS_HOST not set")
	}
	port, err := strconv.Atoi(os.Getenv("TEST_REDIS_PORT"))
	if err != nil {
		port = 6379
	}

	client, err := redis.NewClient(context.Background(), &config.RedisConfig{Host: host, Port: port})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return cache.NewRedisAdapter(client)
}

func TestRedisAdapterIntegration(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t)
	prefix := "it:" + uuid.NewString() + ":"

	_, err := c.Get(ctx, prefix+"missing")
	assert.ErrorIs(t, err, providers.ErrCacheMiss)

	require.NoError(t, c.Set(ctx, prefix+"a", []byte("1"), 30))
	require.NoError(t, c.SetMulti(ctx, map[string][]byte{
		prefix + "b": []byte("2"),
		prefix + "c": []byte("3"),
	}, 30))

	values, err := c.GetMulti(ctx, []string{prefix + "a", prefix + "b", prefix + "missing"})
	require.NoError(t, err)
	assert.Equal(t, map[string][]byte{prefix + "a": []byte("1"), prefix + "b": []byte("2")}, values)

	require.NoError(t, c.Delete(ctx, prefix+"a", prefix+"b", prefix+"c"))
	exists, err := c.Exists(ctx, prefix+"c")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRedisAdapterIntegration_ClosedClient(t *testing.T) {
	host := os.Getenv("TEST_REDIS_HOST")
	if host == "" {
		t.Skip("Skipping integration test: TEST_REDIS_HOST not set")
	}
	client, err := redis.NewClient(context.Background(), &config.RedisConfig{Host: host, Port: 6379})
	require.NoError(t, err)
	require.NoError(t, client.Close())

	err = cache.NewRedisAdapter(client).Set(context.Background(), "it:closed", []byte("1"), 30)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrorTypeExternal, apperrors.TypeOf(err))
}
