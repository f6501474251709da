package recommend

import (
	"sort"

	"github.com/rihla-rentals/backend/internal/domain/entities"
)

// Rank merges candidate lists into the served set. Each vehicle keeps only
// its highest scoring candidate; on equal scores the first one seen wins.
// The result is ordered by score descending, ties in first-seen order, and
// cut to limit (DefaultLimit when limit is not positive).
//
// The losing candidates' type, reason and metadata are discarded, not merged.
func Rank(candidates []entities.RecommendationCandidate, limit int) []entities.RecommendationCandidate {
	if limit <= 0 {
		limit = DefaultLimit
	}

	position := make(map[int64]int, len(candidates))
	merged := make([]entities.RecommendationCandidate, 0, len(candidates))
	for _, c := range candidates {
		if i, ok := position[c.VehicleID]; ok {
			if c.Score > merged[i].Score {
				merged[i] = c
			}
			continue
		}
		position[c.VehicleID] = len(merged)
		merged = append(merged, c)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Score > merged[j].Score
	})

	if len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}
