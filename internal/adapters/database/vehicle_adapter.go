package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/rihla-rentals/backend/internal/domain/entities"
	"github.com/rihla-rentals/backend/internal/domain/repositories"
	"github.com/rihla-rentals/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/rihla-rentals/backend/pkg/errors"
)

var vehicleColumns = []interface{}{
	"id", "partner_id", "category_id", "region_id", "name", "name_ar",
	"price_per_day", "location", "capacity", "is_active", "is_approved",
	"rating", "total_reviews", "view_count", "booking_count", "created_at",
}

// VehicleAdapter reads the vehicle catalog owned by the listings service.
type VehicleAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewVehicleAdapter creates a new vehicle adapter
func NewVehicleAdapter(client *postgres.Client) repositories.VehicleRepository {
	return &VehicleAdapter{
		client: client,
		db:     newDatabase(client),
	}
}

// GetByID retrieves a vehicle regardless of its active or approved flags
func (a *VehicleAdapter) GetByID(ctx context.Context, id int64) (*entities.Vehicle, error) {
	query, args, err := a.db.Select(vehicleColumns...).
		From(tableVehicles).
		Where(goqu.Ex{"id": id}).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	vehicle, err := scanVehicle(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("vehicle with id %d not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get vehicle", err)
	}

	return vehicle, nil
}

// GetByIDs retrieves the vehicles that exist among ids
func (a *VehicleAdapter) GetByIDs(ctx context.Context, ids []int64) ([]*entities.Vehicle, error) {
	if len(ids) == 0 {
		return []*entities.Vehicle{}, nil
	}
	return a.List(ctx, repositories.VehicleFilter{IDs: ids})
}

// List retrieves vehicles matching the filter
func (a *VehicleAdapter) List(ctx context.Context, filter repositories.VehicleFilter) ([]*entities.Vehicle, error) {
	ds := a.db.Select(vehicleColumns...).From(tableVehicles)

	if len(filter.IDs) > 0 {
		ds = ds.Where(goqu.Ex{"id": filter.IDs})
	}
	if filter.CategoryID != nil {
		ds = ds.Where(goqu.Ex{"category_id": *filter.CategoryID})
	}
	if filter.RegionID != nil {
		ds = ds.Where(goqu.Ex{"region_id": *filter.RegionID})
	}
	if filter.ExcludeID != nil {
		ds = ds.Where(goqu.C("id").Neq(*filter.ExcludeID))
	}

	var anyOf []exp.Expression
	if len(filter.AnyCategoryIDs) > 0 {
		anyOf = append(anyOf, goqu.Ex{"category_id": filter.AnyCategoryIDs})
	}
	if len(filter.AnyRegionIDs) > 0 {
		anyOf = append(anyOf, goqu.Ex{"region_id": filter.AnyRegionIDs})
	}
	if len(anyOf) > 0 {
		ds = ds.Where(goqu.Or(anyOf...))
	}

	if filter.OnlyAvailable {
		ds = ds.Where(goqu.Ex{"is_active": true, "is_approved": true})
	}

	for _, field := range filter.OrderBy {
		ds = ds.OrderAppend(goqu.I(string(field)).Desc())
	}
	ds = ds.OrderAppend(goqu.I("id").Asc())

	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
	}

	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list vehicles", err)
	}
	defer rows.Close()

	vehicles := []*entities.Vehicle{}
	for rows.Next() {
		vehicle, err := scanVehicle(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan vehicle", err)
		}
		vehicles = append(vehicles, vehicle)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate vehicles", err)
	}

	return vehicles, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanVehicle(row rowScanner) (*entities.Vehicle, error) {
	v := &entities.Vehicle{}
	var nameAr, location sql.NullString

	err := row.Scan(
		&v.ID,
		&v.PartnerID,
		&v.CategoryID,
		&v.RegionID,
		&v.Name,
		&nameAr,
		&v.PricePerDay,
		&location,
		&v.Capacity,
		&v.IsActive,
		&v.IsApproved,
		&v.Rating,
		&v.TotalReviews,
		&v.ViewCount,
		&v.BookingCount,
		&v.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	v.NameAr = nameAr.String
	v.Location = location.String
	return v, nil
}
