package database

import (
	"context"
	"errors"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rihla-rentals/backend/internal/domain/entities"
	"github.com/rihla-rentals/backend/internal/domain/providers"
	"github.com/rihla-rentals/backend/internal/domain/repositories"
	"github.com/rihla-rentals/backend/internal/infrastructure/observability"
)

const cacheFamilyVehicle = "vehicle"

// CachedVehicleAdapter wraps a VehicleRepository with a per-vehicle cache.
// List queries always go to the underlying repository.
type CachedVehicleAdapter struct {
	adapter repositories.VehicleRepository
	cache   providers.CacheProvider
	ttl     int
	metrics *observability.Metrics
}

// NewCachedVehicleAdapter creates a new cached vehicle adapter
func NewCachedVehicleAdapter(
	adapter repositories.VehicleRepository,
	cache providers.CacheProvider,
	ttl time.Duration,
	metrics *observability.Metrics,
) repositories.VehicleRepository {
	seconds := int(ttl / time.Second)
	if seconds <= 0 {
		seconds = 300
	}
	return &CachedVehicleAdapter{
		adapter: adapter,
		cache:   cache,
		ttl:     seconds,
		metrics: metrics,
	}
}

// GetByID retrieves a vehicle by ID with caching
func (a *CachedVehicleAdapter) GetByID(ctx context.Context, id int64) (*entities.Vehicle, error) {
	logger := observability.LoggerFromContext(ctx, "vehicle_cache")
	cacheKey := providers.VehicleCacheKey(id)

	cached, err := a.cache.Get(ctx, cacheKey)
	if err == nil {
		var vehicle entities.Vehicle
		if err := json.Unmarshal(cached, &vehicle); err == nil {
			observability.RecordCacheResult(ctx, a.metrics, cacheFamilyVehicle, true)
			return &vehicle, nil
		}
		logger.Warn().Err(err).Int64("vehicle_id", id).Msg("Failed to unmarshal cached vehicle")
	} else if !errors.Is(err, providers.ErrCacheMiss) {
		logger.Warn().Err(err).Int64("vehicle_id", id).Msg("Vehicle cache read failed")
	}
	observability.RecordCacheResult(ctx, a.metrics, cacheFamilyVehicle, false)

	vehicle, err := a.adapter.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	go a.store(vehicle)

	return vehicle, nil
}

// GetByIDs retrieves vehicles with a single cache round trip; misses are
// fetched in one repository call.
func (a *CachedVehicleAdapter) GetByIDs(ctx context.Context, ids []int64) ([]*entities.Vehicle, error) {
	if len(ids) == 0 {
		return []*entities.Vehicle{}, nil
	}

	cacheKeys := make([]string, len(ids))
	for i, id := range ids {
		cacheKeys[i] = providers.VehicleCacheKey(id)
	}

	cached, err := a.cache.GetMulti(ctx, cacheKeys)
	if err != nil {
		observability.LoggerFromContext(ctx, "vehicle_cache").Warn().Err(err).Msg("Vehicle cache batch read failed")
		cached = nil
	}

	vehicles := make([]*entities.Vehicle, 0, len(ids))
	missingIDs := make([]int64, 0)
	for i, id := range ids {
		if data, ok := cached[cacheKeys[i]]; ok {
			var vehicle entities.Vehicle
			if err := json.Unmarshal(data, &vehicle); err == nil {
				vehicles = append(vehicles, &vehicle)
				observability.RecordCacheResult(ctx, a.metrics, cacheFamilyVehicle, true)
				continue
			}
		}
		observability.RecordCacheResult(ctx, a.metrics, cacheFamilyVehicle, false)
		missingIDs = append(missingIDs, id)
	}

	if len(missingIDs) == 0 {
		return vehicles, nil
	}

	fetched, err := a.adapter.GetByIDs(ctx, missingIDs)
	if err != nil {
		return nil, err
	}

	go a.store(fetched...)

	return append(vehicles, fetched...), nil
}

// List is not cached; its filters are too varied to key usefully.
func (a *CachedVehicleAdapter) List(ctx context.Context, filter repositories.VehicleFilter) ([]*entities.Vehicle, error) {
	return a.adapter.List(ctx, filter)
}

func (a *CachedVehicleAdapter) store(vehicles ...*entities.Vehicle) {
	if len(vehicles) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	items := make(map[string][]byte, len(vehicles))
	for _, vehicle := range vehicles {
		if data, err := json.Marshal(vehicle); err == nil {
			items[providers.VehicleCacheKey(vehicle.ID)] = data
		}
	}
	if err := a.cache.SetMulti(ctx, items, a.ttl); err != nil {
		observability.GetLogger().Warn().Err(err).Int("count", len(items)).Msg("Failed to cache vehicles")
	}
}
