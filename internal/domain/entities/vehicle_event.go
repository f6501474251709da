package entities

import (
	"time"

	"github.com/google/uuid"
)

// VehicleEventType represents the type of catalog change
type VehicleEventType string

const (
	VehicleEventUpdated     VehicleEventType = "updated"
	VehicleEventApproved    VehicleEventType = "approved"
	VehicleEventDeactivated VehicleEventType = "deactivated"
	VehicleEventDeleted     VehicleEventType = "deleted"
)

// VehicleEvent is published by the catalog owner when a vehicle changes.
type VehicleEvent struct {
	ID        string           `json:"id"`
	VehicleID int64            `json:"vehicle_id"`
	EventType VehicleEventType `json:"event_type"`
	Timestamp time.Time        `json:"timestamp"`
}

// NewVehicleEvent creates a new vehicle event
func NewVehicleEvent(vehicleID int64, eventType VehicleEventType) *VehicleEvent {
	return &VehicleEvent{
		ID:        uuid.NewString(),
		VehicleID: vehicleID,
		EventType: eventType,
		Timestamp: time.Now().UTC(),
	}
}
