package database

import (
	"context"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/rihla-rentals/backend/internal/domain/entities"
	"github.com/rihla-rentals/backend/internal/domain/repositories"
	"github.com/rihla-rentals/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/rihla-rentals/backend/pkg/errors"
)

// InteractionAdapter implements InteractionRepository
type InteractionAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewInteractionAdapter creates a new interaction adapter
func NewInteractionAdapter(client *postgres.Client) repositories.InteractionRepository {
	return &InteractionAdapter{
		client: client,
		db:     newDatabase(client),
	}
}

// Create appends an interaction event and fills in its generated id
func (a *InteractionAdapter) Create(ctx context.Context, event *entities.InteractionEvent) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	record := goqu.Record{
		"session_id":       event.SessionID,
		"customer_id":      nullInt64(event.CustomerID),
		"vehicle_id":       event.VehicleID,
		"interaction_type": string(event.Type),
		"duration":         nullInt(event.DurationMs),
		"source":           nullString(event.Source),
		"metadata":         event.Metadata,
		"created_at":       event.CreatedAt,
	}

	query, args, err := a.db.Insert(tableInteractions).
		Rows(record).
		Returning("id").
		Prepared(true).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if err := a.client.DB().QueryRowContext(ctx, query, args...).Scan(&event.ID); err != nil {
		return apperrors.NewInternalError("failed to record interaction", err)
	}

	return nil
}

// TopViewedSince counts view interactions per vehicle created at or after since
func (a *InteractionAdapter) TopViewedSince(ctx context.Context, since time.Time, limit int) ([]entities.VehicleViewCount, error) {
	ds := a.db.Select(
		goqu.C("vehicle_id"),
		goqu.COUNT("*").As("views"),
	).From(tableInteractions).
		Where(
			goqu.Ex{"interaction_type": string(entities.InteractionView)},
			goqu.C("created_at").Gte(since),
		).
		GroupBy("vehicle_id").
		Order(goqu.I("views").Desc(), goqu.I("vehicle_id").Asc())

	if limit > 0 {
		ds = ds.Limit(uint(limit))
	}

	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to count vehicle views", err)
	}
	defer rows.Close()

	counts := []entities.VehicleViewCount{}
	for rows.Next() {
		var c entities.VehicleViewCount
		if err := rows.Scan(&c.VehicleID, &c.Views); err != nil {
			return nil, apperrors.NewInternalError("failed to scan view count", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate view counts", err)
	}

	return counts, nil
}
