package routes_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rihla-rentals/backend/internal/adapters/memory"
	"github.com/rihla-rentals/backend/internal/api/handlers"
	"github.com/rihla-rentals/backend/internal/api/middleware"
	"github.com/rihla-rentals/backend/internal/api/routes"
	"github.com/rihla-rentals/backend/internal/application/services"
	"github.com/rihla-rentals/backend/internal/domain/entities"
	"github.com/rihla-rentals/backend/internal/recommend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, trackLimit int) (*httptest.Server, *memory.Store) {
	t.Helper()

	store := memory.NewStore()
	store.PutVehicle(&entities.Vehicle{ID: 1, CategoryID: 1, RegionID: 1, Name: "Dune Buggy", IsActive: true, IsApproved: true, Rating: 4.5, BookingCount: 9})
	store.PutVehicle(&entities.Vehicle{ID: 2, CategoryID: 1, RegionID: 1, Name: "Sand Rail", IsActive: true, IsApproved: true, Rating: 4.1, BookingCount: 4})

	vehicles := store.VehicleRepository()
	generators := recommend.NewGenerators(vehicles, store.SearchHistoryRepository(), store.InteractionRepository(), recommend.DefaultTrendingWindow, time.Now)
	recService := services.NewRecommendationService(generators, vehicles, store.RecommendationRepository(), services.RecommendationOptions{}, nil)
	tracking := services.NewTrackingService(store.SearchHistoryRepository(), store.InteractionRepository(), store.RecommendationRepository(), nil)

	router := routes.NewRouter(
		handlers.NewRecommendationHandler(recService, tracking),
		handlers.NewTrackingHandler(tracking),
		middleware.NewRateLimiter("track", trackLimit, time.Minute, nil),
		nil,
		[]string{"*"},
		nil,
	)
	server := httptest.NewServer(router.SetupRoutes())
	t.Cleanup(server.Close)
	return server, store
}

func TestRouter_Health(t *testing.T) {
	server, _ := newTestServer(t, 0)

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRouter_RecommendationsRoundTrip(t *testing.T) {
	server, store := newTestServer(t, 0)

	req, err := http.NewRequest(http.MethodGet, server.URL+"/api/recommendations?categoryId=1", nil)
	require.NoError(t, err)
	req.Header.Set(middleware.SessionHeader, "sess-router")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "private, no-store", resp.Header.Get("Cache-Control"))

	records := store.Recommendations()
	require.NotEmpty(t, records)
	assert.Equal(t, "sess-router", records[0].SessionID)

	resp, err = http.Post(server.URL+"/api/recommendations/"+records[0].ID+"/clicked", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	for _, rec := range store.Recommendations() {
		if rec.ID == records[0].ID {
			assert.True(t, rec.Clicked)
			assert.False(t, rec.Shown)
		}
	}
}

func TestRouter_TrackingIsRateLimited(t *testing.T) {
	server, store := newTestServer(t, 1)

	post := func() int {
		resp, err := http.Post(server.URL+"/api/interactions/track", "application/json",
			strings.NewReader(`{"vehicleId":1,"interactionType":"view"}`))
		require.NoError(t, err)
		resp.Body.Close()
		return resp.StatusCode
	}

	assert.Equal(t, http.StatusOK, post())
	assert.Equal(t, http.StatusTooManyRequests, post())
	assert.Len(t, store.Interactions(), 1)
}

func TestRouter_UnknownRoute(t *testing.T) {
	server, _ := newTestServer(t, 0)

	resp, err := http.Get(server.URL + "/api/facilities")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
