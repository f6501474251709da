package database_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/rihla-rentals/backend/internal/adapters/database"
	"github.com/rihla-rentals/backend/internal/domain/repositories"
	"github.com/rihla-rentals/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/rihla-rentals/backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var vehicleRowColumns = []string{
	"id", "partner_id", "category_id", "region_id", "name", "name_ar",
	"price_per_day", "location", "capacity", "is_active", "is_approved",
	"rating", "total_reviews", "view_count", "booking_count", "created_at",
}

func newMockClient(t *testing.T) (*postgres.Client, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return postgres.NewClientFromDB(db), mock
}

func addVehicleRow(rows *sqlmock.Rows, id, categoryID, regionID int64, rating float64) *sqlmock.Rows {
	return rows.AddRow(
		id, int64(1), categoryID, regionID, "Desert Cruiser", nil,
		350.0, "Riyadh", 4, true, true,
		rating, 12, 40, 3, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	)
}

func TestVehicleAdapter_GetByID(t *testing.T) {
	client, mock := newMockClient(t)
	adapter := database.NewVehicleAdapter(client)

	mock.ExpectQuery(`SELECT (.+) FROM "vehicles" WHERE \("id" = \$1\)`).
		WillReturnRows(addVehicleRow(sqlmock.NewRows(vehicleRowColumns), 7, 1, 2, 4.5))

	vehicle, err := adapter.GetByID(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), vehicle.ID)
	assert.Equal(t, int64(1), vehicle.CategoryID)
	assert.Equal(t, "", vehicle.NameAr)
	assert.Equal(t, 4.5, vehicle.Rating)
	assert.True(t, vehicle.IsAvailable())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVehicleAdapter_GetByID_NotFound(t *testing.T) {
	client, mock := newMockClient(t)
	adapter := database.NewVehicleAdapter(client)

	mock.ExpectQuery(`FROM "vehicles"`).WillReturnRows(sqlmock.NewRows(vehicleRowColumns))

	vehicle, err := adapter.GetByID(context.Background(), 99)
	assert.Nil(t, vehicle)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestVehicleAdapter_GetByID_StoreFailure(t *testing.T) {
	client, mock := newMockClient(t)
	adapter := database.NewVehicleAdapter(client)

	mock.ExpectQuery(`FROM "vehicles"`).WillReturnError(errors.New("connection refused"))

	_, err := adapter.GetByID(context.Background(), 1)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrorTypeInternal, apperrors.TypeOf(err))
}

func TestVehicleAdapter_GetByIDs_Empty(t *testing.T) {
	client, mock := newMockClient(t)
	adapter := database.NewVehicleAdapter(client)

	vehicles, err := adapter.GetByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vehicles)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVehicleAdapter_List_SimilarFilter(t *testing.T) {
	client, mock := newMockClient(t)
	adapter := database.NewVehicleAdapter(client)

	categoryID, regionID, excludeID := int64(1), int64(2), int64(7)
	rows := sqlmock.NewRows(vehicleRowColumns)
	addVehicleRow(rows, 3, 1, 2, 4.9)
	addVehicleRow(rows, 4, 1, 2, 4.5)

	mock.ExpectQuery(`SELECT (.+) FROM "vehicles" WHERE \(\("category_id" = \$1\) AND \("region_id" = \$2\) AND \("id" != \$3\) AND \(\("is_active" IS TRUE\) AND \("is_approved" IS TRUE\)\)\) ORDER BY "rating" DESC, "id" ASC LIMIT \$4`).
		WithArgs(categoryID, regionID, excludeID, int64(5)).
		WillReturnRows(rows)

	vehicles, err := adapter.List(context.Background(), repositories.VehicleFilter{
		CategoryID:    &categoryID,
		RegionID:      &regionID,
		ExcludeID:     &excludeID,
		OnlyAvailable: true,
		OrderBy:       []repositories.VehicleOrderField{repositories.OrderByRating},
		Limit:         5,
	})
	require.NoError(t, err)
	require.Len(t, vehicles, 2)
	assert.Equal(t, int64(3), vehicles[0].ID)
	assert.Equal(t, int64(4), vehicles[1].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVehicleAdapter_List_AnyOf(t *testing.T) {
	client, mock := newMockClient(t)
	adapter := database.NewVehicleAdapter(client)

	mock.ExpectQuery(`FROM "vehicles" WHERE .*\("category_id" IN .*OR.*\("region_id" IN .*ORDER BY "rating" DESC, "total_reviews" DESC, "id" ASC`).
		WillReturnRows(sqlmock.NewRows(vehicleRowColumns))

	vehicles, err := adapter.List(context.Background(), repositories.VehicleFilter{
		AnyCategoryIDs: []int64{5, 6},
		AnyRegionIDs:   []int64{9},
		OnlyAvailable:  true,
		OrderBy:        []repositories.VehicleOrderField{repositories.OrderByRating, repositories.OrderByTotalReviews},
		Limit:          6,
	})
	require.NoError(t, err)
	assert.Empty(t, vehicles)
	require.NoError(t, mock.ExpectationsWereMet())
}
