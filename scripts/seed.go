package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rihla-rentals/backend/internal/adapters/database"
	"github.com/rihla-rentals/backend/internal/application/services"
	"github.com/rihla-rentals/backend/internal/domain/entities"
	"github.com/rihla-rentals/backend/internal/domain/repositories"
	"github.com/rihla-rentals/backend/internal/infrastructure/clients/postgres"
	"github.com/rihla-rentals/backend/internal/infrastructure/observability"
	"github.com/rihla-rentals/backend/pkg/config"
)

var sampleQueries = []string{
	"jet ski", "desert safari", "quad bike", "yacht", "4x4", "dune buggy", "",
}

var sourceChannels = []string{"web", "ios", "android"}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	observability.InitLogger("rihla-seed", "development", "info")
	logger := observability.GetLogger()

	ctx := context.Background()
	pgClient, err := postgres.NewClient(ctx, &cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to DB")
	}
	defer pgClient.Close()

	if os.Getenv("RESET_DB") == "true" {
		logger.Warn().Msg("RESET_DB=true detected, truncating signal tables before seeding")
		_, err := pgClient.DB().ExecContext(ctx, `
			TRUNCATE TABLE search_history, user_interactions, recommendations RESTART IDENTITY
		`)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to reset tables")
		}
	}

	vehicles, err := database.NewVehicleAdapter(pgClient).List(ctx, repositories.VehicleFilter{OnlyAvailable: true})
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to list vehicles")
	}
	if len(vehicles) == 0 {
		logger.Fatal().Msg("No available vehicles to seed signal for; load the catalog first")
	}

	tracking := services.NewTrackingService(
		database.NewSearchHistoryAdapter(pgClient),
		database.NewInteractionAdapter(pgClient),
		database.NewRecommendationAdapter(pgClient),
		nil,
	)

	sessions := envInt("SEED_SESSIONS", 50)
	rng := rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 42))

	var searches, views int
	for i := 0; i < sessions; i++ {
		sessionID := uuid.NewString()
		var customerID *int64
		if rng.IntN(3) == 0 {
			id := int64(1000 + i)
			customerID = &id
		}

		focus := vehicles[rng.IntN(len(vehicles))]
		categoryID := focus.CategoryID
		regionID := focus.RegionID

		for s := 0; s < 1+rng.IntN(3); s++ {
			event := &entities.SearchEvent{
				SessionID:    sessionID,
				CustomerID:   customerID,
				Query:        sampleQueries[rng.IntN(len(sampleQueries))],
				CategoryID:   &categoryID,
				RegionID:     &regionID,
				ResultsCount: rng.IntN(40),
				UserAgent:    "rihla-seed",
				IPAddress:    "127.0.0.1",
				CreatedAt:    time.Now().Add(-time.Duration(rng.IntN(72)) * time.Hour),
			}
			if err := tracking.TrackSearch(ctx, event); err != nil {
				logger.Error().Err(err).Msg("Failed to track search")
				continue
			}
			searches++
		}

		for v := 0; v < 2+rng.IntN(6); v++ {
			vehicle := vehicles[rng.IntN(len(vehicles))]
			duration := 1000 + rng.IntN(60000)
			event := &entities.InteractionEvent{
				SessionID:  sessionID,
				CustomerID: customerID,
				VehicleID:  vehicle.ID,
				Type:       entities.InteractionView,
				DurationMs: &duration,
				Source:     sourceChannels[rng.IntN(len(sourceChannels))],
				CreatedAt:  time.Now().Add(-time.Duration(rng.IntN(7*24)) * time.Hour),
			}
			if err := tracking.TrackInteraction(ctx, event); err != nil {
				logger.Error().Err(err).Msg("Failed to track interaction")
				continue
			}
			views++
		}
	}

	logger.Info().
		Int("sessions", sessions).
		Int("searches", searches).
		Int("views", views).
		Int("vehicles", len(vehicles)).
		Msg("Seeding complete")
}

func envInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil && v > 0 {
		return v
	}
	return fallback
}
