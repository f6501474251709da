package memory

import (
	"context"
	"fmt"

	"github.com/rihla-rentals/backend/internal/domain/entities"
	apperrors "github.com/rihla-rentals/backend/pkg/errors"
)

type recommendationRepository struct {
	store *Store
}

func (r *recommendationRepository) InsertBatch(ctx context.Context, records []*entities.RecommendationRecord) error {
	if len(records) == 0 {
		return nil
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, rec := range records {
		if _, exists := r.store.recommendations[rec.ID]; exists {
			return apperrors.NewConflictError(fmt.Sprintf("recommendation with id %s already exists", rec.ID))
		}
	}
	for _, rec := range records {
		cp := *rec
		r.store.recommendations[rec.ID] = &cp
		r.store.recOrder = append(r.store.recOrder, rec.ID)
	}
	return nil
}

func (r *recommendationRepository) SetShown(ctx context.Context, id string) error {
	return r.update(id, func(rec *entities.RecommendationRecord) { rec.Shown = true })
}

func (r *recommendationRepository) SetClicked(ctx context.Context, id string) error {
	return r.update(id, func(rec *entities.RecommendationRecord) { rec.Clicked = true })
}

func (r *recommendationRepository) update(id string, apply func(*entities.RecommendationRecord)) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	rec, ok := r.store.recommendations[id]
	if !ok {
		return apperrors.NewNotFoundError(fmt.Sprintf("recommendation with id %s not found", id))
	}
	apply(rec)
	return nil
}
