package database

import (
	"database/sql"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/rihla-rentals/backend/internal/infrastructure/clients/postgres"
)

const (
	tableVehicles        = "vehicles"
	tableSearchHistory   = "search_history"
	tableInteractions    = "user_interactions"
	tableRecommendations = "recommendations"
)

func newDatabase(client *postgres.Client) *goqu.Database {
	return goqu.New("postgres", client.DB())
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func int64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	out := v.Int64
	return &out
}
