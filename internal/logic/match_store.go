package logic

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/matchsight/analysis-api/internal/models"
)

const matchSchema = `
CREATE TABLE IF NOT EXISTS matches (
	match_id           TEXT PRIMARY KEY,
	match_date         DATE NOT NULL,
	kickoff_time       TEXT NOT NULL DEFAULT '',
	home_team          TEXT NOT NULL,
	away_team          TEXT NOT NULL,
	competition        TEXT NOT NULL,
	stats_link         TEXT NOT NULL DEFAULT '',
	prediction_content TEXT NOT NULL DEFAULT '',
	post_match_content TEXT NOT NULL DEFAULT '',
	failure_phase      TEXT NOT NULL DEFAULT '',
	failure_reason     TEXT NOT NULL DEFAULT '',
	created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_matches_date ON matches (match_date, match_id);
`

// MatchStore persists match records in Postgres. All writes are durable
// before the call returns; there is no buffered write path.
type MatchStore struct {
	pg PgPool
}

func NewMatchStore(pg PgPool) *MatchStore {
	return &MatchStore{pg: pg}
}

// EnsureSchema creates the matches table when missing.
func (s *MatchStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pg.Exec(ctx, matchSchema); err != nil {
		return fmt.Errorf("%w: create matches schema: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func scanMatch(row pgx.Row) (models.MatchRecord, error) {
	var rec models.MatchRecord
	var phase, reason string
	err := row.Scan(
		&rec.MatchID, &rec.MatchDate, &rec.KickoffTime,
		&rec.HomeTeam, &rec.AwayTeam, &rec.Competition, &rec.StatsLink,
		&rec.PredictionContent, &rec.PostMatchContent,
		&phase, &reason,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	rec.FailurePhase = models.Phase(phase)
	rec.FailureReason = models.FailureReason(reason)
	return rec, err
}

// Get fetches a single record by match_id.
func (s *MatchStore) Get(ctx context.Context, matchID string) (models.MatchRecord, error) {
	row := s.pg.QueryRow(ctx,
		"SELECT "+matchColumns+" FROM matches WHERE match_id = $1", matchID)
	rec, err := scanMatch(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.MatchRecord{}, ErrNotFound
		}
		return models.MatchRecord{}, fmt.Errorf("%w: get match: %v", ErrStoreUnavailable, err)
	}
	return rec, nil
}

// Create inserts a new record. Returns ErrConflict when the match_id exists.
func (s *MatchStore) Create(ctx context.Context, rec models.MatchRecord) error {
	_, err := s.pg.Exec(ctx, `
		INSERT INTO matches (
			match_id, match_date, kickoff_time, home_team, away_team, competition, stats_link,
			prediction_content, post_match_content, failure_phase, failure_reason
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, rec.MatchID, rec.MatchDate, rec.KickoffTime, rec.HomeTeam, rec.AwayTeam,
		rec.Competition, rec.StatsLink, rec.PredictionContent, rec.PostMatchContent,
		string(rec.FailurePhase), string(rec.FailureReason))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return fmt.Errorf("%w: insert match: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Upsert writes a record: insert when new, otherwise update the mutable
// analysis fields. An upsert that would change identity fields of an existing
// record fails with ErrInvariant.
func (s *MatchStore) Upsert(ctx context.Context, rec models.MatchRecord) error {
	existing, err := s.Get(ctx, rec.MatchID)
	if errors.Is(err, ErrNotFound) {
		return s.Create(ctx, rec)
	}
	if err != nil {
		return err
	}

	if !existing.MatchDate.Equal(rec.MatchDate) ||
		existing.HomeTeam != rec.HomeTeam ||
		existing.AwayTeam != rec.AwayTeam ||
		existing.Competition != rec.Competition {
		return fmt.Errorf("%w: identity fields of match %s are immutable", ErrInvariant, rec.MatchID)
	}

	_, err = s.pg.Exec(ctx, `
		UPDATE matches SET
			prediction_content = $2,
			post_match_content = $3,
			failure_phase = $4,
			failure_reason = $5,
			updated_at = NOW()
		WHERE match_id = $1
	`, rec.MatchID, rec.PredictionContent, rec.PostMatchContent,
		string(rec.FailurePhase), string(rec.FailureReason))
	if err != nil {
		return fmt.Errorf("%w: update match: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Query runs a filtered, paginated read. Filter errors surface immediately
// with no partial results.
func (s *MatchStore) Query(ctx context.Context, f MatchFilter) ([]models.MatchRecord, error) {
	sql, args, err := BuildMatchQuery(f)
	if err != nil {
		return nil, err
	}
	rows, err := s.pg.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: query matches: %v", ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var out []models.MatchRecord
	for rows.Next() {
		rec, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan match: %v", ErrStoreUnavailable, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: read matches: %v", ErrStoreUnavailable, err)
	}
	return out, nil
}

// ListEligibleForPrediction selects the matches a prediction batch should
// process: status pending or analysis_failed, optionally scoped to a date.
// With force every match in scope is selected, including completed ones.
func (s *MatchStore) ListEligibleForPrediction(ctx context.Context, date string, force bool, limit int) ([]models.MatchRecord, error) {
	query := "SELECT " + matchColumns + " FROM matches WHERE 1=1"
	var args []any

	if date != "" {
		d, err := time.Parse(models.DateLayout, date)
		if err != nil {
			return nil, fmt.Errorf("%w: date %q must be %s", ErrInvalidFilter, date, models.DateLayout)
		}
		args = append(args, d)
		query += fmt.Sprintf(" AND match_date = $%d", len(args))
	}
	if !force {
		query += " AND (" + statusExpr + ") IN ('pending', 'analysis_failed')"
	}
	query += fmt.Sprintf(" ORDER BY match_date ASC, match_id ASC LIMIT %d", limit)

	return s.list(ctx, query, args)
}

// ListForPostMatch selects the matches of a date whose post-match analysis is
// incomplete. The date batch deliberately ignores pre-match state: a match
// without a prediction is still analyzed after the fact. With force every
// match of the date is selected, completed analyses included.
func (s *MatchStore) ListForPostMatch(ctx context.Context, date string, force bool, limit int) ([]models.MatchRecord, error) {
	d, err := time.Parse(models.DateLayout, date)
	if err != nil {
		return nil, fmt.Errorf("%w: date %q must be %s", ErrInvalidFilter, date, models.DateLayout)
	}
	query := "SELECT " + matchColumns + " FROM matches WHERE match_date = $1"
	if !force {
		query += " AND post_match_content = ''"
	}
	query += fmt.Sprintf(" ORDER BY match_date ASC, match_id ASC LIMIT %d", limit)
	return s.list(ctx, query, []any{d})
}

func (s *MatchStore) list(ctx context.Context, query string, args []any) ([]models.MatchRecord, error) {
	rows, err := s.pg.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: list matches: %v", ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var out []models.MatchRecord
	for rows.Next() {
		rec, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan match: %v", ErrStoreUnavailable, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: read matches: %v", ErrStoreUnavailable, err)
	}
	return out, nil
}
