package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rihla-rentals/backend/internal/adapters/cache"
	"github.com/rihla-rentals/backend/internal/adapters/database"
	"github.com/rihla-rentals/backend/internal/adapters/events"
	"github.com/rihla-rentals/backend/internal/adapters/memory"
	"github.com/rihla-rentals/backend/internal/api/handlers"
	"github.com/rihla-rentals/backend/internal/api/middleware"
	"github.com/rihla-rentals/backend/internal/api/routes"
	"github.com/rihla-rentals/backend/internal/application/services"
	"github.com/rihla-rentals/backend/internal/domain/providers"
	"github.com/rihla-rentals/backend/internal/domain/repositories"
	"github.com/rihla-rentals/backend/internal/infrastructure/clients/postgres"
	"github.com/rihla-rentals/backend/internal/infrastructure/clients/redis"
	"github.com/rihla-rentals/backend/internal/infrastructure/observability"
	"github.com/rihla-rentals/backend/internal/recommend"
	"github.com/rihla-rentals/backend/pkg/config"
	"github.com/rs/zerolog/log"
)

// storage bundles the repositories the service runs on.
type storage struct {
	vehicles        repositories.VehicleRepository
	searches        repositories.SearchHistoryRepository
	interactions    repositories.InteractionRepository
	recommendations repositories.RecommendationRepository
	close           func() error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Env, os.Getenv("LOG_LEVEL"))
	logger := observability.GetLogger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					logger.Error().Err(err).Msg("Error shutting down OpenTelemetry")
				}
			}()
			logger.Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize metrics")
	}

	store, err := openStorage(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize storage")
	}
	defer store.close()

	// Redis is optional: without it vehicles are read uncached and the
	// tracking rate limit is kept per process.
	var cacheProvider providers.CacheProvider
	var eventBus providers.EventBus
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Warn().Err(err).Msg("Redis unavailable, running without cache")
		} else {
			defer redisClient.Close()
			cacheProvider = cache.NewRedisAdapter(redisClient)
			eventBus = events.NewRedisEventBus(redisClient)
			logger.Info().Str("addr", cfg.Redis.RedisAddr()).Msg("Redis client initialized")
		}
	}

	vehicles := store.vehicles
	if cacheProvider != nil {
		vehicles = database.NewCachedVehicleAdapter(store.vehicles, cacheProvider, cfg.Cache.VehicleTTL, metrics)

		warmingService := services.NewCacheWarmingService(store.vehicles, cacheProvider, cfg.Cache.VehicleTTL)
		go warmingService.StartPeriodicWarming(ctx, cfg.Cache.WarmInterval)
	}

	var invalidationService *services.CacheInvalidationService
	if cacheProvider != nil && eventBus != nil {
		invalidationService = services.NewCacheInvalidationService(cacheProvider, eventBus)
		if err := invalidationService.Start(); err != nil {
			logger.Warn().Err(err).Msg("Failed to start cache invalidation service")
		}
	}

	generators := recommend.NewGenerators(
		vehicles,
		store.searches,
		store.interactions,
		cfg.Recommendation.TrendingWindow,
		time.Now,
	)
	recommendationService := services.NewRecommendationService(
		generators,
		vehicles,
		store.recommendations,
		services.RecommendationOptionsFromConfig(cfg.Recommendation),
		metrics,
	)
	trackingService := services.NewTrackingService(store.searches, store.interactions, store.recommendations, metrics)

	trustedProxies, err := middleware.ParseTrustedProxies(cfg.Server.TrustedProxies)
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid TRUSTED_PROXIES")
	}

	router := routes.NewRouter(
		handlers.NewRecommendationHandler(recommendationService, trackingService),
		handlers.NewTrackingHandler(trackingService),
		middleware.NewRateLimiter("track", cfg.RateLimit.TrackPerMinute, time.Minute, cacheProvider),
		trustedProxies,
		cfg.CORS.AllowedOrigins,
		metrics,
	)

	server := &http.Server{
		Addr:         cfg.Server.ServerAddr(),
		Handler:      router.SetupRoutes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", server.Addr).Str("storage", cfg.Database.Driver).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Server shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Error during server shutdown")
	}

	// Let background recommendation writes finish before the store closes.
	recommendationService.Wait()

	if invalidationService != nil {
		invalidationService.Stop()
	}
	if eventBus != nil {
		if err := eventBus.Close(); err != nil {
			logger.Error().Err(err).Msg("Error closing event bus")
		}
	}

	logger.Info().Msg("Server stopped")
}

func openStorage(ctx context.Context, cfg *config.Config) (*storage, error) {
	if cfg.Database.Driver == config.StorageDriverMemory {
		store := memory.NewStore()
		observability.GetLogger().Warn().Msg("Using in-memory storage; data is lost on restart")
		return &storage{
			vehicles:        store.VehicleRepository(),
			searches:        store.SearchHistoryRepository(),
			interactions:    store.InteractionRepository(),
			recommendations: store.RecommendationRepository(),
			close:           func() error { return nil },
		}, nil
	}

	pgClient, err := postgres.NewClient(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}
	return &storage{
		vehicles:        database.NewVehicleAdapter(pgClient),
		searches:        database.NewSearchHistoryAdapter(pgClient),
		interactions:    database.NewInteractionAdapter(pgClient),
		recommendations: database.NewRecommendationAdapter(pgClient),
		close:           pgClient.Close,
	}, nil
}
