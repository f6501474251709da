package handlers

import (
	"context"
	"net/http"

	"github.com/rihla-rentals/backend/internal/api/middleware"
	"github.com/rihla-rentals/backend/internal/api/validation"
	"github.com/rihla-rentals/backend/internal/domain/entities"
)

// defaultWebSource is recorded when the client does not say where an
// interaction came from.
const defaultWebSource = "web"

// SignalTracker records browsing signal.
type SignalTracker interface {
	TrackSearch(ctx context.Context, event *entities.SearchEvent) error
	TrackInteraction(ctx context.Context, event *entities.InteractionEvent) error
}

// TrackingHandler accepts search and interaction events from clients.
type TrackingHandler struct {
	tracker SignalTracker
}

// NewTrackingHandler creates a new tracking handler
func NewTrackingHandler(tracker SignalTracker) *TrackingHandler {
	return &TrackingHandler{tracker: tracker}
}

type trackInteractionRequest struct {
	VehicleID       int64             `json:"vehicleId" validate:"required,gt=0"`
	InteractionType string            `json:"interactionType" validate:"required,interaction_type"`
	Duration        *int              `json:"duration" validate:"omitempty,min=0"`
	Source          string            `json:"source" validate:"max=50"`
	Metadata        entities.Metadata `json:"metadata"`
}

type trackSearchRequest struct {
	SearchQuery       string               `json:"searchQuery" validate:"max=500"`
	CategoryID        *int64               `json:"categoryId" validate:"omitempty,gt=0"`
	RegionID          *int64               `json:"regionId" validate:"omitempty,gt=0"`
	PriceRange        *entities.PriceRange `json:"priceRange"`
	Filters           entities.Metadata    `json:"filters"`
	ResultsCount      int                  `json:"resultsCount" validate:"min=0"`
	ClickedVehicleIDs []int64              `json:"clickedVehicleIds" validate:"omitempty,dive,gt=0"`
}

// TrackInteraction handles POST /api/interactions/track
func (h *TrackingHandler) TrackInteraction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var payload trackInteractionRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		respondWithAppError(ctx, w, err, "failed to track interaction")
		return
	}
	if err := validation.ValidateStruct(&payload); err != nil {
		respondWithAppError(ctx, w, err, "failed to track interaction")
		return
	}

	source := payload.Source
	if source == "" {
		source = defaultWebSource
	}

	event := &entities.InteractionEvent{
		SessionID:  middleware.SessionID(ctx),
		CustomerID: middleware.CustomerID(ctx),
		VehicleID:  payload.VehicleID,
		Type:       entities.InteractionType(payload.InteractionType),
		DurationMs: payload.Duration,
		Source:     source,
		Metadata:   payload.Metadata,
	}
	if err := h.tracker.TrackInteraction(ctx, event); err != nil {
		respondWithAppError(ctx, w, err, "failed to track interaction")
		return
	}

	respondWithJSON(w, http.StatusOK, successResponse{Success: true})
}

// TrackSearch handles POST /api/search/track
func (h *TrackingHandler) TrackSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var payload trackSearchRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		respondWithAppError(ctx, w, err, "failed to track search")
		return
	}
	if err := validation.ValidateStruct(&payload); err != nil {
		respondWithAppError(ctx, w, err, "failed to track search")
		return
	}

	event := &entities.SearchEvent{
		SessionID:         middleware.SessionID(ctx),
		CustomerID:        middleware.CustomerID(ctx),
		Query:             payload.SearchQuery,
		CategoryID:        payload.CategoryID,
		RegionID:          payload.RegionID,
		PriceRange:        payload.PriceRange,
		Filters:           payload.Filters,
		ResultsCount:      payload.ResultsCount,
		ClickedVehicleIDs: payload.ClickedVehicleIDs,
		UserAgent:         r.UserAgent(),
		IPAddress:         middleware.ClientIP(r),
	}
	if err := h.tracker.TrackSearch(ctx, event); err != nil {
		respondWithAppError(ctx, w, err, "failed to track search")
		return
	}

	respondWithJSON(w, http.StatusOK, successResponse{Success: true})
}
