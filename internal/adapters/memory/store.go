// Package memory keeps the catalog, signal and recommendation tables in
// process memory. It backs STORAGE_DRIVER=memory and the service tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rihla-rentals/backend/internal/domain/entities"
	"github.com/rihla-rentals/backend/internal/domain/repositories"
	apperrors "github.com/rihla-rentals/backend/pkg/errors"
)

// Store holds every table. All methods are safe for concurrent use.
type Store struct {
	mu              sync.RWMutex
	vehicles        map[int64]*entities.Vehicle
	searches        []*entities.SearchEvent
	interactions    []*entities.InteractionEvent
	recommendations map[string]*entities.RecommendationRecord
	recOrder        []string
	nextSearchID    int64
	nextEventID     int64
	now             func() time.Time
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		vehicles:        make(map[int64]*entities.Vehicle),
		recommendations: make(map[string]*entities.RecommendationRecord),
		now:             time.Now,
	}
}

// SetClock replaces the time source used for default CreatedAt values
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// PutVehicle inserts or replaces a catalog entry
func (s *Store) PutVehicle(v *entities.Vehicle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *v
	s.vehicles[v.ID] = &cp
}

// DeleteVehicle removes a catalog entry
func (s *Store) DeleteVehicle(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.vehicles, id)
}

// Recommendations returns copies of every persisted record in insertion order
func (s *Store) Recommendations() []entities.RecommendationRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]entities.RecommendationRecord, 0, len(s.recOrder))
	for _, id := range s.recOrder {
		out = append(out, *s.recommendations[id])
	}
	return out
}

// Interactions returns copies of every recorded interaction
func (s *Store) Interactions() []entities.InteractionEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]entities.InteractionEvent, 0, len(s.interactions))
	for _, e := range s.interactions {
		out = append(out, *e)
	}
	return out
}

// Searches returns copies of every recorded search
func (s *Store) Searches() []entities.SearchEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]entities.SearchEvent, 0, len(s.searches))
	for _, e := range s.searches {
		out = append(out, *e)
	}
	return out
}

// VehicleRepository returns the catalog view of the store
func (s *Store) VehicleRepository() repositories.VehicleRepository {
	return &vehicleRepository{store: s}
}

// SearchHistoryRepository returns the search history view of the store
func (s *Store) SearchHistoryRepository() repositories.SearchHistoryRepository {
	return &searchHistoryRepository{store: s}
}

// InteractionRepository returns the interaction view of the store
func (s *Store) InteractionRepository() repositories.InteractionRepository {
	return &interactionRepository{store: s}
}

// RecommendationRepository returns the recommendation view of the store
func (s *Store) RecommendationRepository() repositories.RecommendationRepository {
	return &recommendationRepository{store: s}
}

type vehicleRepository struct {
	store *Store
}

func (r *vehicleRepository) GetByID(ctx context.Context, id int64) (*entities.Vehicle, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	v, ok := r.store.vehicles[id]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("vehicle with id %d not found", id))
	}
	cp := *v
	return &cp, nil
}

func (r *vehicleRepository) GetByIDs(ctx context.Context, ids []int64) ([]*entities.Vehicle, error) {
	if len(ids) == 0 {
		return []*entities.Vehicle{}, nil
	}
	return r.List(ctx, repositories.VehicleFilter{IDs: ids})
}

func (r *vehicleRepository) List(ctx context.Context, filter repositories.VehicleFilter) ([]*entities.Vehicle, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	ids := toSet(filter.IDs)
	anyCategory := toSet(filter.AnyCategoryIDs)
	anyRegion := toSet(filter.AnyRegionIDs)

	out := []*entities.Vehicle{}
	for _, v := range r.store.vehicles {
		if len(ids) > 0 && !ids[v.ID] {
			continue
		}
		if filter.CategoryID != nil && v.CategoryID != *filter.CategoryID {
			continue
		}
		if filter.RegionID != nil && v.RegionID != *filter.RegionID {
			continue
		}
		if filter.ExcludeID != nil && v.ID == *filter.ExcludeID {
			continue
		}
		if (len(anyCategory) > 0 || len(anyRegion) > 0) && !anyCategory[v.CategoryID] && !anyRegion[v.RegionID] {
			continue
		}
		if filter.OnlyAvailable && !v.IsAvailable() {
			continue
		}
		cp := *v
		out = append(out, &cp)
	}

	sort.Slice(out, func(i, j int) bool {
		for _, field := range filter.OrderBy {
			a, b := orderValue(out[i], field), orderValue(out[j], field)
			if a != b {
				return a > b
			}
		}
		return out[i].ID < out[j].ID
	})

	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func orderValue(v *entities.Vehicle, field repositories.VehicleOrderField) float64 {
	switch field {
	case repositories.OrderByRating:
		return v.Rating
	case repositories.OrderByTotalReviews:
		return float64(v.TotalReviews)
	case repositories.OrderByBookingCount:
		return float64(v.BookingCount)
	default:
		return 0
	}
}

func toSet(ids []int64) map[int64]bool {
	if len(ids) == 0 {
		return nil
	}
	set := make(map[int64]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
