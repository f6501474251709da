package recommend

import (
	"context"
	"time"

	"github.com/rihla-rentals/backend/internal/domain/entities"
	"github.com/rihla-rentals/backend/internal/domain/repositories"
)

const (
	trendingLimit  = 5
	trendingReason = "Trending this week"

	// DefaultTrendingWindow is how far back view interactions are counted
	DefaultTrendingWindow = 7 * 24 * time.Hour
)

var trendingLadder = ladder{start: 0.8, step: 0.05}

// TrendingGenerator suggests the most viewed vehicles of the trailing window.
type TrendingGenerator struct {
	interactions repositories.InteractionRepository
	vehicles     repositories.VehicleRepository
	window       time.Duration
	now          func() time.Time
}

// NewTrendingGenerator creates a trending generator. A non-positive window
// falls back to DefaultTrendingWindow and a nil clock to time.Now.
func NewTrendingGenerator(
	interactions repositories.InteractionRepository,
	vehicles repositories.VehicleRepository,
	window time.Duration,
	now func() time.Time,
) *TrendingGenerator {
	if window <= 0 {
		window = DefaultTrendingWindow
	}
	if now == nil {
		now = time.Now
	}
	return &TrendingGenerator{
		interactions: interactions,
		vehicles:     vehicles,
		window:       window,
		now:          now,
	}
}

// Type implements Generator
func (g *TrendingGenerator) Type() entities.RecommendationType {
	return entities.RecommendationTrending
}

// Generate implements Generator. The top vehicles are picked by view count
// first and only then filtered to available ones, so a deactivated vehicle
// shrinks the list instead of letting the sixth most viewed in.
func (g *TrendingGenerator) Generate(ctx context.Context, _ *entities.RecommendationRequest) ([]entities.RecommendationCandidate, error) {
	counts, err := g.interactions.TopViewedSince(ctx, g.now().Add(-g.window), trendingLimit)
	if err != nil {
		return nil, err
	}
	if len(counts) == 0 {
		return nil, nil
	}

	ids := make([]int64, len(counts))
	for i, c := range counts {
		ids[i] = c.VehicleID
	}

	vehicles, err := g.vehicles.List(ctx, repositories.VehicleFilter{
		IDs:           ids,
		OnlyAvailable: true,
	})
	if err != nil {
		return nil, err
	}

	available := make(map[int64]bool, len(vehicles))
	for _, v := range vehicles {
		available[v.ID] = true
	}

	candidates := make([]entities.RecommendationCandidate, 0, len(vehicles))
	for _, c := range counts {
		if !available[c.VehicleID] {
			continue
		}
		candidates = append(candidates, entities.RecommendationCandidate{
			VehicleID: c.VehicleID,
			Score:     trendingLadder.score(len(candidates)),
			Type:      entities.RecommendationTrending,
			Reason:    trendingReason,
			Metadata:  entities.Metadata{"views": c.Views},
		})
	}
	return candidates, nil
}
