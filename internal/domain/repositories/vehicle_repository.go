package repositories

import (
	"context"

	"github.com/rihla-rentals/backend/internal/domain/entities"
)

// VehicleRepository is the read-only view of the vehicle catalog.
type VehicleRepository interface {
	// GetByID returns a NOT_FOUND AppError when no vehicle has the id.
	GetByID(ctx context.Context, id int64) (*entities.Vehicle, error)
	// GetByIDs returns the vehicles that exist, in no particular order.
	GetByIDs(ctx context.Context, ids []int64) ([]*entities.Vehicle, error)
	List(ctx context.Context, filter VehicleFilter) ([]*entities.Vehicle, error)
}

// VehicleOrderField is a sortable vehicle column
type VehicleOrderField string

const (
	OrderByRating       VehicleOrderField = "rating"
	OrderByTotalReviews VehicleOrderField = "total_reviews"
	OrderByBookingCount VehicleOrderField = "booking_count"
)

// VehicleFilter narrows a catalog query. All set fields are ANDed together,
// except AnyCategoryIDs and AnyRegionIDs which match when either set contains
// the vehicle's value.
type VehicleFilter struct {
	IDs        []int64
	CategoryID *int64
	RegionID   *int64
	ExcludeID  *int64

	AnyCategoryIDs []int64
	AnyRegionIDs   []int64

	// OnlyAvailable keeps active and approved vehicles.
	OnlyAvailable bool

	// OrderBy fields are applied in order, each descending.
	OrderBy []VehicleOrderField
	Limit   int
}
