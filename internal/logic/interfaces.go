package logic

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/matchsight/analysis-api/internal/models"
)

// PgPool defines the interface for a PostgreSQL connection pool.
type PgPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Store is the persistence contract for match records. Runners and handlers
// depend on this rather than on the pgx-backed implementation.
type Store interface {
	Get(ctx context.Context, matchID string) (models.MatchRecord, error)
	Create(ctx context.Context, rec models.MatchRecord) error
	Upsert(ctx context.Context, rec models.MatchRecord) error
	Query(ctx context.Context, f MatchFilter) ([]models.MatchRecord, error)
	ListEligibleForPrediction(ctx context.Context, date string, force bool, limit int) ([]models.MatchRecord, error)
	ListForPostMatch(ctx context.Context, date string, force bool, limit int) ([]models.MatchRecord, error)
}
