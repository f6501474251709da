package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rihla-rentals/backend/internal/domain/entities"
	"github.com/rihla-rentals/backend/internal/domain/providers"
	"github.com/rihla-rentals/backend/internal/infrastructure/observability"
)

// CacheInvalidationService drops cached vehicle documents when the catalog
// owner publishes a change.
type CacheInvalidationService struct {
	cache    providers.CacheProvider
	eventBus providers.EventBus
	ctx      context.Context
	cancel   context.CancelFunc
	started  bool
	done     chan struct{}
}

// NewCacheInvalidationService creates a new cache invalidation service
func NewCacheInvalidationService(cache providers.CacheProvider, eventBus providers.EventBus) *CacheInvalidationService {
	ctx, cancel := context.WithCancel(context.Background())
	return &CacheInvalidationService{
		cache:    cache,
		eventBus: eventBus,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

// Start begins listening for vehicle events
func (s *CacheInvalidationService) Start() error {
	eventChan, err := s.eventBus.Subscribe(s.ctx, providers.EventChannelVehicleUpdates)
	if err != nil {
		return fmt.Errorf("failed to subscribe to vehicle updates: %w", err)
	}

	s.started = true
	go s.processEvents(eventChan)
	observability.GetLogger().Info().Str("channel", providers.EventChannelVehicleUpdates).Msg("Cache invalidation service started")
	return nil
}

// Stop releases the subscription and waits for the listener to exit
func (s *CacheInvalidationService) Stop() {
	if s.started {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := s.eventBus.Unsubscribe(ctx, providers.EventChannelVehicleUpdates); err != nil {
			observability.GetLogger().Warn().Err(err).Msg("Failed to unsubscribe from vehicle updates")
		}
		cancel()
	}
	s.cancel()
	if s.started {
		<-s.done
	}
	observability.GetLogger().Info().Msg("Cache invalidation service stopped")
}

func (s *CacheInvalidationService) processEvents(eventChan <-chan *entities.VehicleEvent) {
	defer close(s.done)
	for {
		select {
		case <-s.ctx.Done():
			return
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			if event == nil {
				continue
			}
			s.handleEvent(event)
		}
	}
}

func (s *CacheInvalidationService) handleEvent(event *entities.VehicleEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger := observability.GetLogger().With().
		Str("event_id", event.ID).
		Int64("vehicle_id", event.VehicleID).
		Str("event_type", string(event.EventType)).
		Logger()

	if err := s.InvalidateVehicle(ctx, event.VehicleID); err != nil {
		logger.Warn().Err(err).Msg("Failed to invalidate vehicle cache")
		return
	}
	logger.Debug().Msg("Invalidated vehicle cache")
}

// InvalidateVehicle removes one vehicle document from the cache
func (s *CacheInvalidationService) InvalidateVehicle(ctx context.Context, vehicleID int64) error {
	if err := s.cache.Delete(ctx, providers.VehicleCacheKey(vehicleID)); err != nil {
		return fmt.Errorf("failed to invalidate vehicle %d: %w", vehicleID, err)
	}
	return nil
}
