package repositories

import (
	"context"

	"github.com/rihla-rentals/backend/internal/domain/entities"
)

// RecommendationRepository stores served recommendations and their feedback flags.
type RecommendationRepository interface {
	InsertBatch(ctx context.Context, records []*entities.RecommendationRecord) error
	// SetShown and SetClicked are one-way false->true updates. Both return a
	// NOT_FOUND AppError for an unknown id.
	SetShown(ctx context.Context, id string) error
	SetClicked(ctx context.Context, id string) error
}
