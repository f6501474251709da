package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/rihla-rentals/backend/internal/domain/entities"
	"github.com/rihla-rentals/backend/internal/domain/repositories"
	"github.com/rihla-rentals/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/rihla-rentals/backend/pkg/errors"
)

// SearchHistoryAdapter implements SearchHistoryRepository
type SearchHistoryAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewSearchHistoryAdapter creates a new search history adapter
func NewSearchHistoryAdapter(client *postgres.Client) repositories.SearchHistoryRepository {
	return &SearchHistoryAdapter{
		client: client,
		db:     newDatabase(client),
	}
}

// Create appends a search event and fills in its generated id
func (a *SearchHistoryAdapter) Create(ctx context.Context, event *entities.SearchEvent) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	record := goqu.Record{
		"session_id":          event.SessionID,
		"customer_id":         nullInt64(event.CustomerID),
		"search_query":        nullString(event.Query),
		"category_id":         nullInt64(event.CategoryID),
		"region_id":           nullInt64(event.RegionID),
		"price_range":         event.PriceRange,
		"filters":             event.Filters,
		"results_count":       event.ResultsCount,
		"clicked_vehicle_ids": event.ClickedVehicleIDs,
		"user_agent":          nullString(event.UserAgent),
		"ip_address":          nullString(event.IPAddress),
		"created_at":          event.CreatedAt,
	}

	query, args, err := a.db.Insert(tableSearchHistory).
		Rows(record).
		Returning("id").
		Prepared(true).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if err := a.client.DB().QueryRowContext(ctx, query, args...).Scan(&event.ID); err != nil {
		return apperrors.NewInternalError("failed to record search", err)
	}

	return nil
}

// ListRecent returns the newest searches for the identity
func (a *SearchHistoryAdapter) ListRecent(ctx context.Context, identity entities.Identity, limit int) ([]*entities.SearchEvent, error) {
	if identity.IsZero() || limit <= 0 {
		return []*entities.SearchEvent{}, nil
	}

	ds := a.db.Select(
		"id", "session_id", "customer_id", "search_query", "category_id", "region_id",
		"price_range", "filters", "results_count", "clicked_vehicle_ids",
		"user_agent", "ip_address", "created_at",
	).From(tableSearchHistory)

	if identity.CustomerID != nil {
		ds = ds.Where(goqu.Ex{"customer_id": *identity.CustomerID})
	} else {
		ds = ds.Where(goqu.Ex{"session_id": identity.SessionID})
	}

	query, args, err := ds.
		Order(goqu.I("created_at").Desc(), goqu.I("id").Desc()).
		Limit(uint(limit)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list recent searches", err)
	}
	defer rows.Close()

	events := []*entities.SearchEvent{}
	for rows.Next() {
		e := &entities.SearchEvent{}
		var customerID, categoryID, regionID sql.NullInt64
		var searchQuery, userAgent, ipAddress sql.NullString
		var priceRange entities.PriceRange
		var priceRangeRaw []byte

		err := rows.Scan(
			&e.ID,
			&e.SessionID,
			&customerID,
			&searchQuery,
			&categoryID,
			&regionID,
			&priceRangeRaw,
			&e.Filters,
			&e.ResultsCount,
			&e.ClickedVehicleIDs,
			&userAgent,
			&ipAddress,
			&e.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan search event", err)
		}

		if len(priceRangeRaw) > 0 {
			if err := priceRange.Scan(priceRangeRaw); err != nil {
				return nil, apperrors.NewInternalError("failed to decode price range", err)
			}
			e.PriceRange = &priceRange
		}
		e.CustomerID = int64Ptr(customerID)
		e.CategoryID = int64Ptr(categoryID)
		e.RegionID = int64Ptr(regionID)
		e.Query = searchQuery.String
		e.UserAgent = userAgent.String
		e.IPAddress = ipAddress.String

		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate search events", err)
	}

	return events, nil
}
