package entities

import (
	"strconv"
	"time"
)

// RecommendationType identifies the generator that produced a candidate.
type RecommendationType string

const (
	RecommendationSimilar      RecommendationType = "similar"
	RecommendationTrending     RecommendationType = "trending"
	RecommendationPersonalized RecommendationType = "personalized"
	RecommendationPopular      RecommendationType = "popular"
)

// RecommendationRequest carries everything a generation call may use.
// Session and customer are resolved by the caller; the core never reads
// ambient session state.
type RecommendationRequest struct {
	SessionID        string
	CustomerID       *int64
	CurrentVehicleID *int64
	CategoryID       *int64
	RegionID         *int64
	Limit            int
}

// Identity returns the search-history lookup key of the request.
func (r *RecommendationRequest) Identity() Identity {
	return Identity{SessionID: r.SessionID, CustomerID: r.CustomerID}
}

// RecommendationCandidate is a transient, scored suggestion from one generator.
type RecommendationCandidate struct {
	VehicleID int64              `json:"vehicle_id"`
	Score     float64            `json:"score"`
	Type      RecommendationType `json:"type"`
	Reason    string             `json:"reason"`
	Metadata  Metadata           `json:"metadata,omitempty"`
}

// RecommendationTTL is how long a persisted recommendation stays valid.
const RecommendationTTL = 24 * time.Hour

// RecommendationRecord is the persisted, expiring form of a served candidate.
type RecommendationRecord struct {
	ID         string             `json:"id" db:"id"`
	BatchID    string             `json:"batch_id" db:"batch_id"`
	SessionID  string             `json:"session_id" db:"session_id"`
	CustomerID *int64             `json:"customer_id,omitempty" db:"customer_id"`
	VehicleID  int64              `json:"vehicle_id" db:"vehicle_id"`
	Type       RecommendationType `json:"recommendation_type" db:"recommendation_type"`
	Score      string             `json:"score" db:"score"`
	Reason     string             `json:"reason" db:"reason"`
	Metadata   Metadata           `json:"metadata,omitempty" db:"metadata"`
	Shown      bool               `json:"shown" db:"shown"`
	Clicked    bool               `json:"clicked" db:"clicked"`
	CreatedAt  time.Time          `json:"created_at" db:"created_at"`
	ExpiresAt  time.Time          `json:"expires_at" db:"expires_at"`
}


// FormatScore renders a score with the four fractional digits the
// recommendations table stores.
func FormatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', 4, 64)
}

// Recommendation is a served recommendation enriched with its vehicle.
type Recommendation struct {
	ID        string             `json:"id"`
	VehicleID int64              `json:"vehicle_id"`
	Score     float64            `json:"score"`
	Type      RecommendationType `json:"type"`
	Reason    string             `json:"reason"`
	Metadata  Metadata           `json:"metadata,omitempty"`
	Vehicle   *Vehicle           `json:"vehicle"`
}
