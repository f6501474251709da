package entities

import "time"

// Vehicle is a rentable vehicle or adventure listing owned by a partner.
// The recommendation core only reads it.
type Vehicle struct {
	ID           int64     `json:"id" db:"id"`
	PartnerID    int64     `json:"partner_id" db:"partner_id"`
	CategoryID   int64     `json:"category_id" db:"category_id"`
	RegionID     int64     `json:"region_id" db:"region_id"`
	Name         string    `json:"name" db:"name"`
	NameAr       string    `json:"name_ar" db:"name_ar"`
	PricePerDay  float64   `json:"price_per_day" db:"price_per_day"`
	Location     string    `json:"location" db:"location"`
	Capacity     int       `json:"capacity" db:"capacity"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	IsApproved   bool      `json:"is_approved" db:"is_approved"`
	Rating       float64   `json:"rating" db:"rating"`
	TotalReviews int       `json:"total_reviews" db:"total_reviews"`
	ViewCount    int       `json:"view_count" db:"view_count"`
	BookingCount int       `json:"booking_count" db:"booking_count"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// IsAvailable reports whether the vehicle may be shown to customers.
func (v *Vehicle) IsAvailable() bool {
	return v.IsActive && v.IsApproved
}
