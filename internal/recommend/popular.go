package recommend

import (
	"context"

	"github.com/rihla-rentals/backend/internal/domain/entities"
	"github.com/rihla-rentals/backend/internal/domain/repositories"
)

const (
	popularLimit  = 4
	popularReason = "Most booked in this category"
)

var popularLadder = ladder{start: 0.75, step: 0.1}

// PopularGenerator suggests the most booked vehicles of a category.
type PopularGenerator struct {
	vehicles repositories.VehicleRepository
}

// NewPopularGenerator creates a popular-in-category generator
func NewPopularGenerator(vehicles repositories.VehicleRepository) *PopularGenerator {
	return &PopularGenerator{vehicles: vehicles}
}

// Type implements Generator
func (g *PopularGenerator) Type() entities.RecommendationType {
	return entities.RecommendationPopular
}

// Generate implements Generator
func (g *PopularGenerator) Generate(ctx context.Context, req *entities.RecommendationRequest) ([]entities.RecommendationCandidate, error) {
	if req.CategoryID == nil {
		return nil, nil
	}

	vehicles, err := g.vehicles.List(ctx, repositories.VehicleFilter{
		CategoryID:    req.CategoryID,
		OnlyAvailable: true,
		OrderBy:       []repositories.VehicleOrderField{repositories.OrderByBookingCount, repositories.OrderByRating},
		Limit:         popularLimit,
	})
	if err != nil {
		return nil, err
	}

	candidates := make([]entities.RecommendationCandidate, 0, len(vehicles))
	for i, v := range vehicles {
		candidates = append(candidates, entities.RecommendationCandidate{
			VehicleID: v.ID,
			Score:     popularLadder.score(i),
			Type:      entities.RecommendationPopular,
			Reason:    popularReason,
			Metadata: entities.Metadata{
				"booking_count": v.BookingCount,
				"rating":        v.Rating,
			},
		})
	}
	return candidates, nil
}
