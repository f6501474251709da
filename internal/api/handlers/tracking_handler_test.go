package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rihla-rentals/backend/internal/api/handlers"
	"github.com/rihla-rentals/backend/internal/domain/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTracker struct {
	searches     []*entities.SearchEvent
	interactions []*entities.InteractionEvent
	err          error
}

func (s *stubTracker) TrackSearch(ctx context.Context, event *entities.SearchEvent) error {
	s.searches = append(s.searches, event)
	return s.err
}

func (s *stubTracker) TrackInteraction(ctx context.Context, event *entities.InteractionEvent) error {
	s.interactions = append(s.interactions, event)
	return s.err
}

func TestTrackingHandler_TrackInteraction(t *testing.T) {
	tracker := &stubTracker{}
	handler := handlers.NewTrackingHandler(tracker)

	body := `{"vehicleId":9,"interactionType":"view","duration":3200,"metadata":{"position":2}}`
	req := httptest.NewRequest(http.MethodPost, "/api/interactions/track", strings.NewReader(body))
	req = withIdentity(req, "sess-9", nil)
	w := httptest.NewRecorder()

	handler.TrackInteraction(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true}`, w.Body.String())
	require.Len(t, tracker.interactions, 1)
	event := tracker.interactions[0]
	assert.Equal(t, "sess-9", event.SessionID)
	assert.Nil(t, event.CustomerID)
	assert.Equal(t, int64(9), event.VehicleID)
	assert.Equal(t, entities.InteractionView, event.Type)
	assert.Equal(t, "web", event.Source)
	require.NotNil(t, event.DurationMs)
	assert.Equal(t, 3200, *event.DurationMs)
	assert.EqualValues(t, 2, event.Metadata["position"])
}

func TestTrackingHandler_TrackInteraction_Invalid(t *testing.T) {
	cases := map[string]string{
		"not json":         `{"vehicleId":`,
		"missing vehicle":  `{"interactionType":"view"}`,
		"unknown type":     `{"vehicleId":1,"interactionType":"wishlist"}`,
		"negative elapsed": `{"vehicleId":1,"interactionType":"view","duration":-5}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			tracker := &stubTracker{}
			handler := handlers.NewTrackingHandler(tracker)
			req := httptest.NewRequest(http.MethodPost, "/api/interactions/track", strings.NewReader(body))
			w := httptest.NewRecorder()

			handler.TrackInteraction(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Empty(t, tracker.interactions)
		})
	}
}

func TestTrackingHandler_TrackSearch(t *testing.T) {
	tracker := &stubTracker{}
	handler := handlers.NewTrackingHandler(tracker)

	body := `{"searchQuery":"jet ski","categoryId":2,"priceRange":{"min":100},"filters":{"capacity":4},"resultsCount":12}`
	req := httptest.NewRequest(http.MethodPost, "/api/search/track", strings.NewReader(body))
	req.Header.Set("User-Agent", "rihla-ios/3.1")
	req.RemoteAddr = "203.0.113.9:4321"
	customer := int64(5)
	req = withIdentity(req, "sess-2", &customer)
	w := httptest.NewRecorder()

	handler.TrackSearch(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, tracker.searches, 1)
	event := tracker.searches[0]
	assert.Equal(t, "jet ski", event.Query)
	assert.Equal(t, int64(2), *event.CategoryID)
	assert.Nil(t, event.RegionID)
	require.NotNil(t, event.PriceRange)
	assert.Equal(t, 100.0, *event.PriceRange.Min)
	assert.Nil(t, event.PriceRange.Max)
	assert.Equal(t, 12, event.ResultsCount)
	assert.Equal(t, "rihla-ios/3.1", event.UserAgent)
	assert.Equal(t, "203.0.113.9", event.IPAddress)
	assert.Equal(t, &customer, event.CustomerID)
}

func TestTrackingHandler_TrackSearch_EmptyBody(t *testing.T) {
	tracker := &stubTracker{}
	handler := handlers.NewTrackingHandler(tracker)
	req := httptest.NewRequest(http.MethodPost, "/api/search/track", strings.NewReader(`{}`))
	w := httptest.NewRecorder()

	handler.TrackSearch(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, tracker.searches, 1)
	assert.Empty(t, tracker.searches[0].Query)
}

func TestTrackingHandler_StoreFailure(t *testing.T) {
	tracker := &stubTracker{err: errors.New("connection reset")}
	handler := handlers.NewTrackingHandler(tracker)
	req := httptest.NewRequest(http.MethodPost, "/api/search/track", strings.NewReader(`{"searchQuery":"atv"}`))
	w := httptest.NewRecorder()

	handler.TrackSearch(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"failed to track search"}`, w.Body.String())
}
