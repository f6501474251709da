package memory

import (
	"context"
	"sort"
	"time"

	"github.com/rihla-rentals/backend/internal/domain/entities"
)

type searchHistoryRepository struct {
	store *Store
}

func (r *searchHistoryRepository) Create(ctx context.Context, event *entities.SearchEvent) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	r.store.nextSearchID++
	event.ID = r.store.nextSearchID
	if event.CreatedAt.IsZero() {
		event.CreatedAt = r.store.now().UTC()
	}
	if event.ClickedVehicleIDs == nil {
		event.ClickedVehicleIDs = entities.Int64List{}
	}
	cp := *event
	r.store.searches = append(r.store.searches, &cp)
	return nil
}

func (r *searchHistoryRepository) ListRecent(ctx context.Context, identity entities.Identity, limit int) ([]*entities.SearchEvent, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := []*entities.SearchEvent{}
	if identity.IsZero() || limit <= 0 {
		return out, nil
	}

	for _, e := range r.store.searches {
		if identity.CustomerID != nil {
			if e.CustomerID == nil || *e.CustomerID != *identity.CustomerID {
				continue
			}
		} else if e.SessionID != identity.SessionID {
			continue
		}
		cp := *e
		out = append(out, &cp)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})

	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type interactionRepository struct {
	store *Store
}

func (r *interactionRepository) Create(ctx context.Context, event *entities.InteractionEvent) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	r.store.nextEventID++
	event.ID = r.store.nextEventID
	if event.CreatedAt.IsZero() {
		event.CreatedAt = r.store.now().UTC()
	}
	cp := *event
	r.store.interactions = append(r.store.interactions, &cp)
	return nil
}

func (r *interactionRepository) TopViewedSince(ctx context.Context, since time.Time, limit int) ([]entities.VehicleViewCount, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	views := make(map[int64]int)
	for _, e := range r.store.interactions {
		if e.Type != entities.InteractionView || e.CreatedAt.Before(since) {
			continue
		}
		views[e.VehicleID]++
	}

	counts := make([]entities.VehicleViewCount, 0, len(views))
	for id, n := range views {
		counts = append(counts, entities.VehicleViewCount{VehicleID: id, Views: n})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Views != counts[j].Views {
			return counts[i].Views > counts[j].Views
		}
		return counts[i].VehicleID < counts[j].VehicleID
	})

	if limit > 0 && len(counts) > limit {
		counts = counts[:limit]
	}
	return counts, nil
}
