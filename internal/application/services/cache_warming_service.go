package services

import (
	"context"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rihla-rentals/backend/internal/domain/entities"
	"github.com/rihla-rentals/backend/internal/domain/providers"
	"github.com/rihla-rentals/backend/internal/domain/repositories"
	"github.com/rihla-rentals/backend/internal/infrastructure/observability"
)

// warmTopVehicles is how many top-rated vehicles each warming pass loads
const warmTopVehicles = 50

// CacheWarmingService preloads the vehicle documents recommendations are most
// likely to be enriched with.
type CacheWarmingService struct {
	vehicles repositories.VehicleRepository
	cache    providers.CacheProvider
	ttl      int
}

// NewCacheWarmingService creates a new cache warming service
func NewCacheWarmingService(
	vehicles repositories.VehicleRepository,
	cache providers.CacheProvider,
	ttl time.Duration,
) *CacheWarmingService {
	seconds := int(ttl / time.Second)
	if seconds <= 0 {
		seconds = 300
	}
	return &CacheWarmingService{
		vehicles: vehicles,
		cache:    cache,
		ttl:      seconds,
	}
}

// WarmCache caches the top-rated available vehicles
func (s *CacheWarmingService) WarmCache(ctx context.Context) (int, error) {
	vehicles, err := s.vehicles.List(ctx, repositories.VehicleFilter{
		OnlyAvailable: true,
		OrderBy:       []repositories.VehicleOrderField{repositories.OrderByRating, repositories.OrderByBookingCount},
		Limit:         warmTopVehicles,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to fetch top vehicles: %w", err)
	}

	if err := s.store(ctx, vehicles); err != nil {
		return 0, err
	}
	return len(vehicles), nil
}

// StartPeriodicWarming warms once and then on every tick until ctx is done
func (s *CacheWarmingService) StartPeriodicWarming(ctx context.Context, interval time.Duration) {
	logger := observability.GetLogger()

	if n, err := s.WarmCache(ctx); err != nil {
		logger.Warn().Err(err).Msg("Initial cache warming failed")
	} else {
		logger.Info().Int("vehicles", n).Msg("Warmed vehicle cache")
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				logger.Info().Msg("Stopping cache warming service")
				return
			case <-ticker.C:
				if _, err := s.WarmCache(ctx); err != nil {
					logger.Warn().Err(err).Msg("Periodic cache warming failed")
				}
			}
		}
	}()
}

func (s *CacheWarmingService) store(ctx context.Context, vehicles []*entities.Vehicle) error {
	items := make(map[string][]byte, len(vehicles))
	for _, vehicle := range vehicles {
		data, err := json.Marshal(vehicle)
		if err != nil {
			return fmt.Errorf("failed to marshal vehicle %d: %w", vehicle.ID, err)
		}
		items[providers.VehicleCacheKey(vehicle.ID)] = data
	}
	if len(items) == 0 {
		return nil
	}
	if err := s.cache.SetMulti(ctx, items, s.ttl); err != nil {
		return fmt.Errorf("failed to cache vehicles: %w", err)
	}
	return nil
}
