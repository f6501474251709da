package routes

import (
	"net/http"
	"net/netip"

	"github.com/rihla-rentals/backend/internal/api/handlers"
	"github.com/rihla-rentals/backend/internal/api/middleware"
	"github.com/rihla-rentals/backend/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	recommendationHandler *handlers.RecommendationHandler
	trackingHandler       *handlers.TrackingHandler

	trackLimiter   *middleware.RateLimiter
	trustedProxies []netip.Prefix
	allowedOrigins []string
	metrics        *observability.Metrics
}

// NewRouter creates a new router. trackLimiter may be nil; forwarding headers
// are only read from peers inside trustedProxies.
func NewRouter(
	recommendationHandler *handlers.RecommendationHandler,
	trackingHandler *handlers.TrackingHandler,
	trackLimiter *middleware.RateLimiter,
	trustedProxies []netip.Prefix,
	allowedOrigins []string,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:                   http.NewServeMux(),
		recommendationHandler: recommendationHandler,
		trackingHandler:       trackingHandler,
		trackLimiter:          trackLimiter,
		trustedProxies:        trustedProxies,
		allowedOrigins:        allowedOrigins,
		metrics:               metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Recommendations
	r.mux.HandleFunc("GET /api/recommendations", r.recommendationHandler.GetRecommendations)
	r.mux.HandleFunc("POST /api/recommendations/{id}/shown", r.recommendationHandler.MarkShown)
	r.mux.HandleFunc("POST /api/recommendations/{id}/clicked", r.recommendationHandler.MarkClicked)

	// Signal tracking
	r.mux.HandleFunc("POST /api/interactions/track", r.trackLimiter.Wrap(r.trackingHandler.TrackInteraction))
	r.mux.HandleFunc("POST /api/search/track", r.trackLimiter.Wrap(r.trackingHandler.TrackSearch))

	// Outermost last. Session runs before observability so spans know the caller.
	var handler http.Handler = r.mux
	handler = middleware.Compression(handler)
	handler = middleware.NoStore(handler)
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.Session(handler)
	handler = middleware.CORSMiddleware(r.allowedOrigins)(handler)
	handler = middleware.RealIP(r.trustedProxies)(handler)

	return handler
}
