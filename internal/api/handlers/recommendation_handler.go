package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/rihla-rentals/backend/internal/api/middleware"
	"github.com/rihla-rentals/backend/internal/api/validation"
	"github.com/rihla-rentals/backend/internal/domain/entities"
	apperrors "github.com/rihla-rentals/backend/pkg/errors"
)

// RecommendationGenerator produces recommendations for one caller.
type RecommendationGenerator interface {
	Generate(ctx context.Context, req *entities.RecommendationRequest) ([]*entities.Recommendation, error)
}

// RecommendationFeedback records what the client did with a recommendation.
type RecommendationFeedback interface {
	MarkShown(ctx context.Context, recommendationID string) error
	MarkClicked(ctx context.Context, recommendationID string) error
}

// RecommendationHandler serves recommendations and their feedback flags.
type RecommendationHandler struct {
	generator RecommendationGenerator
	feedback  RecommendationFeedback
}

// NewRecommendationHandler creates a new recommendation handler
func NewRecommendationHandler(generator RecommendationGenerator, feedback RecommendationFeedback) *RecommendationHandler {
	return &RecommendationHandler{
		generator: generator,
		feedback:  feedback,
	}
}

type recommendationQuery struct {
	VehicleID  *int64 `json:"vehicleId" validate:"omitempty,gt=0"`
	CategoryID *int64 `json:"categoryId" validate:"omitempty,gt=0"`
	RegionID   *int64 `json:"regionId" validate:"omitempty,gt=0"`
	Limit      int    `json:"limit" validate:"omitempty,min=1"`
}

type recommendationIDParam struct {
	ID string `json:"id" validate:"required,uuid"`
}

// GetRecommendations handles GET /api/recommendations
func (h *RecommendationHandler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	query, err := parseRecommendationQuery(r)
	if err != nil {
		respondWithAppError(ctx, w, err, "failed to get recommendations")
		return
	}

	req := &entities.RecommendationRequest{
		SessionID:        middleware.SessionID(ctx),
		CustomerID:       middleware.CustomerID(ctx),
		CurrentVehicleID: query.VehicleID,
		CategoryID:       query.CategoryID,
		RegionID:         query.RegionID,
		Limit:            query.Limit,
	}

	recommendations, err := h.generator.Generate(ctx, req)
	if err != nil {
		respondWithAppError(ctx, w, err, "failed to get recommendations")
		return
	}
	if recommendations == nil {
		recommendations = []*entities.Recommendation{}
	}

	respondWithJSON(w, http.StatusOK, recommendations)
}

// MarkShown handles POST /api/recommendations/{id}/shown
func (h *RecommendationHandler) MarkShown(w http.ResponseWriter, r *http.Request) {
	h.markFeedback(w, r, h.feedback.MarkShown, "failed to mark recommendation as shown")
}

// MarkClicked handles POST /api/recommendations/{id}/clicked
func (h *RecommendationHandler) MarkClicked(w http.ResponseWriter, r *http.Request) {
	h.markFeedback(w, r, h.feedback.MarkClicked, "failed to mark recommendation as clicked")
}

func (h *RecommendationHandler) markFeedback(
	w http.ResponseWriter,
	r *http.Request,
	mark func(context.Context, string) error,
	failure string,
) {
	ctx := r.Context()
	param := recommendationIDParam{ID: r.PathValue("id")}
	if err := validation.ValidateStruct(&param); err != nil {
		respondWithAppError(ctx, w, err, failure)
		return
	}

	if err := mark(ctx, param.ID); err != nil {
		respondWithAppError(ctx, w, err, failure)
		return
	}

	respondWithJSON(w, http.StatusOK, successResponse{Success: true})
}

func parseRecommendationQuery(r *http.Request) (*recommendationQuery, error) {
	values := r.URL.Query()
	query := &recommendationQuery{}

	var err error
	if query.VehicleID, err = optionalID(values.Get("vehicleId"), "vehicleId"); err != nil {
		return nil, err
	}
	if query.CategoryID, err = optionalID(values.Get("categoryId"), "categoryId"); err != nil {
		return nil, err
	}
	if query.RegionID, err = optionalID(values.Get("regionId"), "regionId"); err != nil {
		return nil, err
	}
	if raw := values.Get("limit"); raw != "" {
		if query.Limit, err = strconv.Atoi(raw); err != nil {
			return nil, apperrors.NewValidationError("limit must be an integer")
		}
	}

	if err := validation.ValidateStruct(query); err != nil {
		return nil, err
	}
	return query, nil
}

func optionalID(raw, name string) (*int64, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, apperrors.NewValidationError(name + " must be an integer")
	}
	return &id, nil
}
