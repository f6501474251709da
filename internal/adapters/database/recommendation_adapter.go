package database

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/rihla-rentals/backend/internal/domain/entities"
	"github.com/rihla-rentals/backend/internal/domain/repositories"
	"github.com/rihla-rentals/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/rihla-rentals/backend/pkg/errors"
)

// RecommendationAdapter implements RecommendationRepository
type RecommendationAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewRecommendationAdapter creates a new recommendation adapter
func NewRecommendationAdapter(client *postgres.Client) repositories.RecommendationRepository {
	return &RecommendationAdapter{
		client: client,
		db:     newDatabase(client),
	}
}

// InsertBatch writes all records in one statement. An empty batch is a no-op.
func (a *RecommendationAdapter) InsertBatch(ctx context.Context, records []*entities.RecommendationRecord) error {
	if len(records) == 0 {
		return nil
	}

	rows := make([]interface{}, 0, len(records))
	for _, r := range records {
		rows = append(rows, goqu.Record{
			"id":                  r.ID,
			"batch_id":            r.BatchID,
			"session_id":          r.SessionID,
			"customer_id":         nullInt64(r.CustomerID),
			"vehicle_id":          r.VehicleID,
			"recommendation_type": string(r.Type),
			"score":               r.Score,
			"reason":              r.Reason,
			"metadata":            r.Metadata,
			"shown":               r.Shown,
			"clicked":             r.Clicked,
			"created_at":          r.CreatedAt,
			"expires_at":          r.ExpiresAt,
		})
	}

	query, args, err := a.db.Insert(tableRecommendations).
		Rows(rows...).
		Prepared(true).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to save recommendations", err)
	}

	return nil
}

// SetShown marks a recommendation as displayed
func (a *RecommendationAdapter) SetShown(ctx context.Context, id string) error {
	return a.setFlag(ctx, id, "shown")
}

// SetClicked marks a recommendation as clicked
func (a *RecommendationAdapter) SetClicked(ctx context.Context, id string) error {
	return a.setFlag(ctx, id, "clicked")
}

func (a *RecommendationAdapter) setFlag(ctx context.Context, id, column string) error {
	query, args, err := a.db.Update(tableRecommendations).
		Set(goqu.Record{column: true}).
		Where(goqu.Ex{"id": id}).
		Prepared(true).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError(fmt.Sprintf("failed to mark recommendation %s", column), err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}

	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("recommendation with id %s not found", id))
	}

	return nil
}
