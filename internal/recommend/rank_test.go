package recommend_test

import (
	"testing"

	"github.com/rihla-rentals/backend/internal/domain/entities"
	"github.com/rihla-rentals/backend/internal/recommend"
	"github.com/stretchr/testify/assert"
)

func candidate(vehicleID int64, score float64, kind entities.RecommendationType) entities.RecommendationCandidate {
	return entities.RecommendationCandidate{VehicleID: vehicleID, Score: score, Type: kind}
}

func TestRank(t *testing.T) {
	tests := []struct {
		name       string
		candidates []entities.RecommendationCandidate
		limit      int
		wantIDs    []int64
		wantScores []float64
		wantTypes  []entities.RecommendationType
	}{
		{
			name: "keeps the highest score per vehicle",
			candidates: []entities.RecommendationCandidate{
				candidate(1, 0.7, entities.RecommendationSimilar),
				candidate(2, 0.8, entities.RecommendationTrending),
				candidate(1, 0.9, entities.RecommendationPopular),
			},
			wantIDs:    []int64{1, 2},
			wantScores: []float64{0.9, 0.8},
			wantTypes:  []entities.RecommendationType{entities.RecommendationPopular, entities.RecommendationTrending},
		},
		{
			name: "equal score keeps the first candidate",
			candidates: []entities.RecommendationCandidate{
				candidate(1, 0.8, entities.RecommendationSimilar),
				candidate(1, 0.8, entities.RecommendationTrending),
			},
			wantIDs:    []int64{1},
			wantScores: []float64{0.8},
			wantTypes:  []entities.RecommendationType{entities.RecommendationSimilar},
		},
		{
			name: "ties keep insertion order",
			candidates: []entities.RecommendationCandidate{
				candidate(3, 0.75, entities.RecommendationTrending),
				candidate(1, 0.9, entities.RecommendationSimilar),
				candidate(2, 0.75, entities.RecommendationPopular),
			},
			wantIDs:    []int64{1, 3, 2},
			wantScores: []float64{0.9, 0.75, 0.75},
		},
		{
			name: "truncates to limit",
			candidates: []entities.RecommendationCandidate{
				candidate(1, 0.9, entities.RecommendationSimilar),
				candidate(2, 0.85, entities.RecommendationPersonalized),
				candidate(3, 0.8, entities.RecommendationTrending),
				candidate(4, 0.75, entities.RecommendationPopular),
			},
			limit:      2,
			wantIDs:    []int64{1, 2},
			wantScores: []float64{0.9, 0.85},
		},
		{
			name:       "empty input",
			candidates: nil,
			wantIDs:    []int64{},
			wantScores: []float64{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := recommend.Rank(tt.candidates, tt.limit)
			assert.Equal(t, tt.wantIDs, vehicleIDs(got))
			assert.Equal(t, tt.wantScores, scores(got))
			if tt.wantTypes != nil {
				types := make([]entities.RecommendationType, len(got))
				for i, c := range got {
					types[i] = c.Type
				}
				assert.Equal(t, tt.wantTypes, types)
			}
		})
	}
}

func TestRank_DefaultLimit(t *testing.T) {
	var candidates []entities.RecommendationCandidate
	for id := int64(1); id <= 15; id++ {
		candidates = append(candidates, candidate(id, 1/float64(id), entities.RecommendationTrending))
	}

	got := recommend.Rank(candidates, 0)
	assert.Len(t, got, recommend.DefaultLimit)
}

func TestRank_Properties(t *testing.T) {
	var candidates []entities.RecommendationCandidate
	for i := 0; i < 40; i++ {
		candidates = append(candidates, candidate(int64(i%7), float64((i*37)%100+1)/100, entities.RecommendationPersonalized))
	}

	got := recommend.Rank(candidates, 50)

	seen := map[int64]bool{}
	for i, c := range got {
		assert.False(t, seen[c.VehicleID], "duplicate vehicle %d", c.VehicleID)
		seen[c.VehicleID] = true
		if i > 0 {
			assert.GreaterOrEqual(t, got[i-1].Score, c.Score)
		}
	}
	assert.Len(t, got, 7)
}
