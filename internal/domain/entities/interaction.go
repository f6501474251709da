package entities

import "time"

// InteractionType is the kind of user action on a vehicle. Unknown values are
// stored verbatim; only InteractionView feeds the trending generator.
type InteractionType string

const (
	InteractionView  InteractionType = "view"
	InteractionClick InteractionType = "click"
	InteractionSave  InteractionType = "save"
	InteractionShare InteractionType = "share"
	InteractionBook  InteractionType = "book"
)

// InteractionTypes lists the recognised interaction kinds.
var InteractionTypes = []InteractionType{
	InteractionView,
	InteractionClick,
	InteractionSave,
	InteractionShare,
	InteractionBook,
}

// InteractionEvent is one recorded user interaction with a vehicle. Append-only.
type InteractionEvent struct {
	ID         int64           `json:"id" db:"id"`
	SessionID  string          `json:"session_id" db:"session_id"`
	CustomerID *int64          `json:"customer_id,omitempty" db:"customer_id"`
	VehicleID  int64           `json:"vehicle_id" db:"vehicle_id"`
	Type       InteractionType `json:"interaction_type" db:"interaction_type"`
	DurationMs *int            `json:"duration,omitempty" db:"duration"`
	Source     string          `json:"source" db:"source"`
	Metadata   Metadata        `json:"metadata,omitempty" db:"metadata"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
}

// VehicleViewCount is the number of view interactions a vehicle received
// inside a time window.
type VehicleViewCount struct {
	VehicleID int64 `json:"vehicle_id" db:"vehicle_id"`
	Views     int   `json:"views" db:"views"`
}
