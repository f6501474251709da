package recommend

import (
	"context"

	"github.com/rihla-rentals/backend/internal/domain/entities"
	"github.com/rihla-rentals/backend/internal/domain/repositories"
	apperrors "github.com/rihla-rentals/backend/pkg/errors"
)

const (
	similarLimit  = 5
	similarReason = "Similar vehicle in the same category and region"
)

var similarLadder = ladder{start: 0.9, step: 0.1}

// SimilarGenerator suggests other vehicles sharing the category and region of
// the vehicle being viewed.
type SimilarGenerator struct {
	vehicles repositories.VehicleRepository
}

// NewSimilarGenerator creates a similar-item generator
func NewSimilarGenerator(vehicles repositories.VehicleRepository) *SimilarGenerator {
	return &SimilarGenerator{vehicles: vehicles}
}

// Type implements Generator
func (g *SimilarGenerator) Type() entities.RecommendationType {
	return entities.RecommendationSimilar
}

// Generate implements Generator. An unknown reference vehicle is an empty
// result.
func (g *SimilarGenerator) Generate(ctx context.Context, req *entities.RecommendationRequest) ([]entities.RecommendationCandidate, error) {
	if req.CurrentVehicleID == nil {
		return nil, nil
	}

	reference, err := g.vehicles.GetByID(ctx, *req.CurrentVehicleID)
	if apperrors.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	vehicles, err := g.vehicles.List(ctx, repositories.VehicleFilter{
		CategoryID:    &reference.CategoryID,
		RegionID:      &reference.RegionID,
		ExcludeID:     &reference.ID,
		OnlyAvailable: true,
		OrderBy:       []repositories.VehicleOrderField{repositories.OrderByRating},
		Limit:         similarLimit,
	})
	if err != nil {
		return nil, err
	}

	candidates := make([]entities.RecommendationCandidate, 0, len(vehicles))
	for _, v := range vehicles {
		// Self-exclusion holds even for a reader that ignores ExcludeID.
		if v.ID == reference.ID {
			continue
		}
		candidates = append(candidates, entities.RecommendationCandidate{
			VehicleID: v.ID,
			Score:     similarLadder.score(len(candidates)),
			Type:      entities.RecommendationSimilar,
			Reason:    similarReason,
			Metadata: entities.Metadata{
				"category_id": reference.CategoryID,
				"region_id":   reference.RegionID,
				"based_on":    reference.ID,
			},
		})
	}
	return candidates, nil
}
