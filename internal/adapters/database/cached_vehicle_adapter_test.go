package database_test

import (
	"context"
	"sync"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rihla-rentals/backend/internal/adapters/database"
	"github.com/rihla-rentals/backend/internal/adapters/memory"
	"github.com/rihla-rentals/backend/internal/domain/entities"
	"github.com/rihla-rentals/backend/internal/domain/providers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMapCache() *mapCache {
	return &mapCache{data: make(map[string][]byte)}
}

func (c *mapCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.data[key]; ok {
		return v, nil
	}
	return nil, providers.ErrCacheMiss
}

func (c *mapCache) GetMulti(ctx context.Context, keys []string) (map[string][]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string][]byte)
	for _, k := range keys {
		if v, ok := c.data[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func (c *mapCache) Set(ctx context.Context, key string, value []byte, _ int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *mapCache) SetMulti(ctx context.Context, items map[string][]byte, _ int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, v := range items {
		c.data[k] = v
	}
	return nil
}

func (c *mapCache) Delete(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

func (c *mapCache) Exists(ctx context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok, nil
}

func TestCachedVehicleAdapter_GetByID(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	store.PutVehicle(&entities.Vehicle{ID: 1, Name: "Jet Ski"})
	cache := newMapCache()
	adapter := database.NewCachedVehicleAdapter(store.VehicleRepository(), cache, time.Minute, nil)

	vehicle, err := adapter.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Jet Ski", vehicle.Name)

	assert.Eventually(t, func() bool {
		ok, _ := cache.Exists(ctx, providers.VehicleCacheKey(1))
		return ok
	}, time.Second, 10*time.Millisecond)

	// Served from cache once the catalog no longer has it.
	store.DeleteVehicle(1)
	vehicle, err = adapter.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Jet Ski", vehicle.Name)
}

func TestCachedVehicleAdapter_GetByIDs_Mixed(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	store.PutVehicle(&entities.Vehicle{ID: 2, Name: "from store"})
	cache := newMapCache()
	cached, err := json.Marshal(&entities.Vehicle{ID: 1, Name: "from cache"})
	require.NoError(t, err)
	require.NoError(t, cache.Set(ctx, providers.VehicleCacheKey(1), cached, 60))

	adapter := database.NewCachedVehicleAdapter(store.VehicleRepository(), cache, time.Minute, nil)
	vehicles, err := adapter.GetByIDs(ctx, []int64{1, 2, 3})
	require.NoError(t, err)

	names := map[int64]string{}
	for _, v := range vehicles {
		names[v.ID] = v.Name
	}
	assert.Equal(t, map[int64]string{1: "from cache", 2: "from store"}, names)
}
