package services

import (
	"context"

	"github.com/rihla-rentals/backend/internal/domain/entities"
	"github.com/rihla-rentals/backend/internal/domain/repositories"
	"github.com/rihla-rentals/backend/internal/infrastructure/observability"
	"go.opentelemetry.io/otel/attribute"
)

// DefaultInteractionSource is stored when the caller does not name one
const DefaultInteractionSource = "unknown"

// Feedback kinds recorded on the recommend.feedback.count metric
const (
	feedbackSearch      = "search"
	feedbackInteraction = "interaction"
	feedbackShown       = "shown"
	feedbackClicked     = "clicked"
)

// TrackingService records browsing signal and feedback on served
// recommendations. Every write goes straight to the store and any store
// failure is returned to the caller.
type TrackingService struct {
	searches        repositories.SearchHistoryRepository
	interactions    repositories.InteractionRepository
	recommendations repositories.RecommendationRepository
	metrics         *observability.Metrics
}

// NewTrackingService creates a new tracking service
func NewTrackingService(
	searches repositories.SearchHistoryRepository,
	interactions repositories.InteractionRepository,
	recommendations repositories.RecommendationRepository,
	metrics *observability.Metrics,
) *TrackingService {
	return &TrackingService{
		searches:        searches,
		interactions:    interactions,
		recommendations: recommendations,
		metrics:         metrics,
	}
}

// TrackSearch appends a search event as given. An empty query is fine.
func (s *TrackingService) TrackSearch(ctx context.Context, event *entities.SearchEvent) error {
	ctx, span := observability.StartSpan(ctx, "TrackingService.TrackSearch")
	defer span.End()

	if event.ClickedVehicleIDs == nil {
		event.ClickedVehicleIDs = entities.Int64List{}
	}

	if err := s.searches.Create(ctx, event); err != nil {
		observability.RecordError(span, err)
		return err
	}
	observability.RecordFeedback(ctx, s.metrics, feedbackSearch)
	return nil
}

// TrackInteraction appends an interaction event. The interaction type is
// stored verbatim; rejecting unknown kinds is up to the caller.
func (s *TrackingService) TrackInteraction(ctx context.Context, event *entities.InteractionEvent) error {
	ctx, span := observability.StartSpan(ctx, "TrackingService.TrackInteraction")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("vehicle.id", event.VehicleID),
		attribute.String("interaction.type", string(event.Type)),
	)

	if event.Source == "" {
		event.Source = DefaultInteractionSource
	}

	if err := s.interactions.Create(ctx, event); err != nil {
		observability.RecordError(span, err)
		return err
	}
	observability.RecordFeedback(ctx, s.metrics, feedbackInteraction)
	return nil
}

// MarkShown flags a served recommendation as displayed. Repeating the call is
// harmless.
func (s *TrackingService) MarkShown(ctx context.Context, recommendationID string) error {
	if err := s.recommendations.SetShown(ctx, recommendationID); err != nil {
		return err
	}
	observability.RecordFeedback(ctx, s.metrics, feedbackShown)
	return nil
}

// MarkClicked flags a served recommendation as clicked. It does not require
// MarkShown to have been called first.
func (s *TrackingService) MarkClicked(ctx context.Context, recommendationID string) error {
	if err := s.recommendations.SetClicked(ctx, recommendationID); err != nil {
		return err
	}
	observability.RecordFeedback(ctx, s.metrics, feedbackClicked)
	return nil
}
