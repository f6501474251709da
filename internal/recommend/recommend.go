// Package recommend holds the candidate generators and the ranker that
// merges their output. Every generator is a fixed, explainable heuristic:
// candidates are scored by their rank in the generator's own ordering, not
// by the magnitude of the underlying signal.
package recommend

import (
	"context"
	"math"
	"time"

	"github.com/rihla-rentals/backend/internal/domain/entities"
	"github.com/rihla-rentals/backend/internal/domain/repositories"
)

// DefaultLimit is used when a request does not ask for a size
const DefaultLimit = 10

// Generator produces scored candidates for one strategy. An absent input the
// strategy depends on yields an empty list, never an error.
type Generator interface {
	Type() entities.RecommendationType
	Generate(ctx context.Context, req *entities.RecommendationRequest) ([]entities.RecommendationCandidate, error)
}

// ladder scores rank i as start - i*step, rounded to the four decimals the
// recommendations table keeps.
type ladder struct {
	start float64
	step  float64
}

func (l ladder) score(rank int) float64 {
	return math.Round((l.start-float64(rank)*l.step)*1e4) / 1e4
}

// NewGenerators returns the four strategies in their fixed merge order:
// similar, trending, personalized, popular. Rank breaks score ties by this
// order.
func NewGenerators(
	vehicles repositories.VehicleRepository,
	searches repositories.SearchHistoryRepository,
	interactions repositories.InteractionRepository,
	trendingWindow time.Duration,
	now func() time.Time,
) []Generator {
	return []Generator{
		NewSimilarGenerator(vehicles),
		NewTrendingGenerator(interactions, vehicles, trendingWindow, now),
		NewPersonalizedGenerator(searches, vehicles),
		NewPopularGenerator(vehicles),
	}
}
