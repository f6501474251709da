package entities

import (
	"time"
)

// SearchEvent is one recorded search. Append-only.
type SearchEvent struct {
	ID                int64       `json:"id" db:"id"`
	SessionID         string      `json:"session_id" db:"session_id"`
	CustomerID        *int64      `json:"customer_id,omitempty" db:"customer_id"`
	Query             string      `json:"search_query" db:"search_query"`
	CategoryID        *int64      `json:"category_id,omitempty" db:"category_id"`
	RegionID          *int64      `json:"region_id,omitempty" db:"region_id"`
	PriceRange        *PriceRange `json:"price_range,omitempty" db:"price_range"`
	Filters           Metadata    `json:"filters,omitempty" db:"filters"`
	ResultsCount      int         `json:"results_count" db:"results_count"`
	ClickedVehicleIDs Int64List   `json:"clicked_vehicle_ids" db:"clicked_vehicle_ids"`
	UserAgent         string      `json:"user_agent,omitempty" db:"user_agent"`
	IPAddress         string      `json:"ip_address,omitempty" db:"ip_address"`
	CreatedAt         time.Time   `json:"created_at" db:"created_at"`
}

// Identity selects whose search history to read. A customer id wins over
// the session id; the two are never combined.
type Identity struct {
	SessionID  string
	CustomerID *int64
}

// IsZero reports whether neither key is set.
func (i Identity) IsZero() bool {
	return i.CustomerID == nil && i.SessionID == ""
}
