package recommend

import (
	"context"

	"github.com/rihla-rentals/backend/internal/domain/entities"
	"github.com/rihla-rentals/backend/internal/domain/repositories"
)

const (
	personalizedHistory = 5
	personalizedLimit   = 6
	personalizedReason  = "Based on your recent search activity"
)

var personalizedLadder = ladder{start: 0.85, step: 0.08}

// PersonalizedGenerator suggests vehicles in the categories or regions the
// visitor searched for recently.
type PersonalizedGenerator struct {
	searches repositories.SearchHistoryRepository
	vehicles repositories.VehicleRepository
}

// NewPersonalizedGenerator creates a personalized generator
func NewPersonalizedGenerator(searches repositories.SearchHistoryRepository, vehicles repositories.VehicleRepository) *PersonalizedGenerator {
	return &PersonalizedGenerator{searches: searches, vehicles: vehicles}
}

// Type implements Generator
func (g *PersonalizedGenerator) Type() entities.RecommendationType {
	return entities.RecommendationPersonalized
}

// Generate implements Generator
func (g *PersonalizedGenerator) Generate(ctx context.Context, req *entities.RecommendationRequest) ([]entities.RecommendationCandidate, error) {
	identity := req.Identity()
	if identity.IsZero() {
		return nil, nil
	}

	searches, err := g.searches.ListRecent(ctx, identity, personalizedHistory)
	if err != nil {
		return nil, err
	}

	categories := newIDSet()
	regions := newIDSet()
	for _, s := range searches {
		if s.CategoryID != nil {
			categories.add(*s.CategoryID)
		}
		if s.RegionID != nil {
			regions.add(*s.RegionID)
		}
	}
	if categories.empty() && regions.empty() {
		return nil, nil
	}

	vehicles, err := g.vehicles.List(ctx, repositories.VehicleFilter{
		AnyCategoryIDs: categories.ids,
		AnyRegionIDs:   regions.ids,
		OnlyAvailable:  true,
		OrderBy:        []repositories.VehicleOrderField{repositories.OrderByRating, repositories.OrderByTotalReviews},
		Limit:          personalizedLimit,
	})
	if err != nil {
		return nil, err
	}

	candidates := make([]entities.RecommendationCandidate, 0, len(vehicles))
	for i, v := range vehicles {
		candidates = append(candidates, entities.RecommendationCandidate{
			VehicleID: v.ID,
			Score:     personalizedLadder.score(i),
			Type:      entities.RecommendationPersonalized,
			Reason:    personalizedReason,
			Metadata: entities.Metadata{
				"matched_category": categories.has(v.CategoryID),
				"matched_region":   regions.has(v.RegionID),
			},
		})
	}
	return candidates, nil
}

// idSet keeps first-seen order so the generated query is stable.
type idSet struct {
	ids  []int64
	seen map[int64]struct{}
}

func newIDSet() *idSet {
	return &idSet{seen: make(map[int64]struct{})}
}

func (s *idSet) add(id int64) {
	if _, ok := s.seen[id]; ok {
		return
	}
	s.seen[id] = struct{}{}
	s.ids = append(s.ids, id)
}

func (s *idSet) has(id int64) bool {
	_, ok := s.seen[id]
	return ok
}

func (s *idSet) empty() bool {
	return len(s.ids) == 0
}
