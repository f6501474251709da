package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rihla-rentals/backend/internal/domain/entities"
	"github.com/rihla-rentals/backend/internal/domain/repositories"
	"github.com/rihla-rentals/backend/internal/infrastructure/observability"
	"github.com/rihla-rentals/backend/internal/recommend"
	"github.com/rihla-rentals/backend/pkg/config"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// RecommendationOptions tunes RecommendationService
type RecommendationOptions struct {
	DefaultLimit      int
	MaxLimit          int
	IsolateGenerators bool
	AsyncPersist      bool
	PersistTimeout    time.Duration
	Now               func() time.Time
}

// RecommendationOptionsFromConfig maps the environment configuration
func RecommendationOptionsFromConfig(cfg config.RecommendationConfig) RecommendationOptions {
	return RecommendationOptions{
		DefaultLimit:      cfg.DefaultLimit,
		MaxLimit:          cfg.MaxLimit,
		IsolateGenerators: cfg.IsolateGenerators,
		AsyncPersist:      cfg.AsyncPersist,
		PersistTimeout:    cfg.PersistTimeout,
	}
}

func (o RecommendationOptions) withDefaults() RecommendationOptions {
	if o.DefaultLimit <= 0 {
		o.DefaultLimit = recommend.DefaultLimit
	}
	if o.MaxLimit < o.DefaultLimit {
		o.MaxLimit = o.DefaultLimit
	}
	if o.PersistTimeout <= 0 {
		o.PersistTimeout = 5 * time.Second
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// RecommendationService runs the generators, ranks their output, records
// what was served and enriches it with vehicle details.
type RecommendationService struct {
	generators []recommend.Generator
	vehicles   repositories.VehicleRepository
	records    repositories.RecommendationRepository
	opts       RecommendationOptions
	metrics    *observability.Metrics
	pending    sync.WaitGroup
}

// NewRecommendationService creates a new recommendation service
func NewRecommendationService(
	generators []recommend.Generator,
	vehicles repositories.VehicleRepository,
	records repositories.RecommendationRepository,
	opts RecommendationOptions,
	metrics *observability.Metrics,
) *RecommendationService {
	return &RecommendationService{
		generators: generators,
		vehicles:   vehicles,
		records:    records,
		opts:       opts.withDefaults(),
		metrics:    metrics,
	}
}

// Generate returns the ranked recommendations for req. An empty result is
// valid. A generator failure aborts the call unless generators are
// isolated; a persistence failure never does.
func (s *RecommendationService) Generate(ctx context.Context, req *entities.RecommendationRequest) ([]*entities.Recommendation, error) {
	ctx, span := observability.StartSpan(ctx, "RecommendationService.Generate")
	defer span.End()

	limit := s.clampLimit(req.Limit)
	observability.SetSpanAttributes(span,
		attribute.Int("recommend.limit", limit),
		attribute.Bool("recommend.has_customer", req.CustomerID != nil),
	)

	candidates, err := s.collect(ctx, req)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	ranked := recommend.Rank(candidates, limit)
	records := s.buildRecords(req, ranked)
	s.persist(ctx, records)

	recommendations, err := s.enrich(ctx, ranked, records)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	observability.RecordRecommendations(ctx, s.metrics, len(recommendations))
	span.SetAttributes(attribute.Int("recommend.count", len(recommendations)))
	return recommendations, nil
}

// Wait blocks until background persistence started by Generate has finished
func (s *RecommendationService) Wait() {
	s.pending.Wait()
}

func (s *RecommendationService) clampLimit(limit int) int {
	if limit <= 0 {
		return s.opts.DefaultLimit
	}
	if limit > s.opts.MaxLimit {
		return s.opts.MaxLimit
	}
	return limit
}

// collect runs every generator concurrently and concatenates their output in
// generator order once all of them have returned.
func (s *RecommendationService) collect(ctx context.Context, req *entities.RecommendationRequest) ([]entities.RecommendationCandidate, error) {
	results := make([][]entities.RecommendationCandidate, len(s.generators))
	g, gctx := errgroup.WithContext(ctx)

	for i, gen := range s.generators {
		g.Go(func() error {
			genCtx, span := observability.StartSpan(gctx, fmt.Sprintf("recommend.%s", gen.Type()))
			defer span.End()

			start := time.Now()
			candidates, err := gen.Generate(genCtx, req)
			observability.RecordGenerator(genCtx, s.metrics, string(gen.Type()), time.Since(start), err)
			if err != nil {
				observability.RecordError(span, err)
				if s.opts.IsolateGenerators {
					observability.LoggerFromContext(genCtx, "recommendations").Warn().Err(err).
						Str("generator", string(gen.Type())).
						Msg("Generator failed, continuing without it")
					return nil
				}
				return fmt.Errorf("%s generator: %w", gen.Type(), err)
			}
			results[i] = candidates
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []entities.RecommendationCandidate
	for _, r := range results {
		all = append(all, r...)
	}
	return all, nil
}

func (s *RecommendationService) buildRecords(req *entities.RecommendationRequest, ranked []entities.RecommendationCandidate) []*entities.RecommendationRecord {
	if len(ranked) == 0 {
		return nil
	}

	batchID := uuid.NewString()
	createdAt := s.opts.Now().UTC()
	expiresAt := createdAt.Add(entities.RecommendationTTL)

	records := make([]*entities.RecommendationRecord, 0, len(ranked))
	for _, c := range ranked {
		records = append(records, &entities.RecommendationRecord{
			ID:         uuid.NewString(),
			BatchID:    batchID,
			SessionID:  req.SessionID,
			CustomerID: req.CustomerID,
			VehicleID:  c.VehicleID,
			Type:       c.Type,
			Score:      entities.FormatScore(c.Score),
			Reason:     c.Reason,
			Metadata:   c.Metadata,
			CreatedAt:  createdAt,
			ExpiresAt:  expiresAt,
		})
	}
	return records
}

// persist writes the served batch. Failures are logged and dropped: the
// records exist for analytics, not for the response.
func (s *RecommendationService) persist(ctx context.Context, records []*entities.RecommendationRecord) {
	if len(records) == 0 {
		return
	}

	write := func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, s.opts.PersistTimeout)
		defer cancel()

		if err := s.records.InsertBatch(ctx, records); err != nil {
			observability.LoggerFromContext(ctx, "recommendations").Error().Err(err).
				Str("batch_id", records[0].BatchID).
				Int("count", len(records)).
				Msg("Failed to save recommendations")
		}
	}

	if !s.opts.AsyncPersist {
		write(ctx)
		return
	}

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		// The request context may be cancelled once the response is written.
		write(context.WithoutCancel(ctx))
	}()
}

// enrich attaches vehicle details. Records whose vehicle is gone are dropped
// from the response but stay persisted.
func (s *RecommendationService) enrich(
	ctx context.Context,
	ranked []entities.RecommendationCandidate,
	records []*entities.RecommendationRecord,
) ([]*entities.Recommendation, error) {
	out := make([]*entities.Recommendation, 0, len(records))
	if len(records) == 0 {
		return out, nil
	}

	ids := make([]int64, len(records))
	for i, r := range records {
		ids[i] = r.VehicleID
	}

	vehicles, err := s.vehicles.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]*entities.Vehicle, len(vehicles))
	for _, v := range vehicles {
		byID[v.ID] = v
	}

	for i, r := range records {
		vehicle, ok := byID[r.VehicleID]
		if !ok {
			continue
		}
		out = append(out, &entities.Recommendation{
			ID:        r.ID,
			VehicleID: r.VehicleID,
			Score:     ranked[i].Score,
			Type:      r.Type,
			Reason:    r.Reason,
			Metadata:  r.Metadata,
			Vehicle:   vehicle,
		})
	}
	return out, nil
}
