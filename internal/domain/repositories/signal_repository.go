package repositories

import (
	"context"
	"time"

	"github.com/rihla-rentals/backend/internal/domain/entities"
)

// SearchHistoryRepository stores SearchEvents.
type SearchHistoryRepository interface {
	Create(ctx context.Context, event *entities.SearchEvent) error
	// ListRecent returns the newest searches for the identity, newest first.
	// CustomerID is used when set, otherwise SessionID.
	ListRecent(ctx context.Context, identity entities.Identity, limit int) ([]*entities.SearchEvent, error)
}

// InteractionRepository stores InteractionEvents.
type InteractionRepository interface {
	Create(ctx context.Context, event *entities.InteractionEvent) error
	// TopViewedSince counts view interactions created at or after since,
	// grouped by vehicle, ordered by count descending then vehicle id.
	TopViewedSince(ctx context.Context, since time.Time, limit int) ([]entities.VehicleViewCount, error)
}
