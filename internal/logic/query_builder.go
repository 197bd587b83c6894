package logic

import (
	"fmt"
	"time"

	"github.com/matchsight/analysis-api/internal/models"
)

// statusExpr derives the coarse status from the stored facts in SQL. It must
// stay equivalent to models.DeriveStatus; the pair is pinned by tests.
const statusExpr = `CASE
	WHEN failure_phase = 'post' AND failure_reason = 'max_tokens' THEN 'post_analysis_max_tokens'
	WHEN failure_phase = 'post' AND failure_reason = 'fetch_failed' THEN 'post_analysis_fetch_failed'
	WHEN failure_phase = 'post' THEN 'post_analysis_failed'
	WHEN failure_phase = 'predict' AND failure_reason = 'max_tokens' THEN 'predict_max_tokens'
	WHEN failure_phase = 'predict' THEN 'analysis_failed'
	WHEN post_match_content <> '' THEN 'post_analysis_complete'
	WHEN prediction_content <> '' THEN 'predict_complete'
	ELSE 'pending'
END`

const matchColumns = `match_id, match_date, kickoff_time, home_team, away_team, competition, stats_link,
	prediction_content, post_match_content, failure_phase, failure_reason, created_at, updated_at`

const (
	DefaultLimit = 100
	MaxLimit     = 500
)

// MatchFilter holds the optional query parameters for the read endpoints.
// All present filters combine with logical AND. Pointer booleans distinguish
// "absent" from "filter on false".
type MatchFilter struct {
	TargetDate      string // models.DateLayout; empty = no constraint
	MatchID         string
	HomeTeam        string
	AwayTeam        string
	Competition     string
	Status          string
	PredictStatus   *bool
	PostMatchStatus *bool
	Limit           int
	Skip            int
}

// BuildMatchQuery translates a filter into a SELECT over the matches table.
// Ordering is match_date ascending then match_id for deterministic pages.
// Malformed input fails with ErrInvalidFilter rather than being dropped.
func BuildMatchQuery(f MatchFilter) (string, []any, error) {
	query := "SELECT " + matchColumns + " FROM matches WHERE 1=1"
	var args []any

	next := func() string { return fmt.Sprintf("$%d", len(args)) }

	if f.TargetDate != "" {
		d, err := time.Parse(models.DateLayout, f.TargetDate)
		if err != nil {
			return "", nil, fmt.Errorf("%w: target_date %q must be %s", ErrInvalidFilter, f.TargetDate, models.DateLayout)
		}
		args = append(args, d)
		query += " AND match_date = " + next()
	}
	if f.MatchID != "" {
		args = append(args, f.MatchID)
		query += " AND match_id = " + next()
	}
	if f.HomeTeam != "" {
		args = append(args, f.HomeTeam)
		query += " AND home_team = " + next()
	}
	if f.AwayTeam != "" {
		args = append(args, f.AwayTeam)
		query += " AND away_team = " + next()
	}
	if f.Competition != "" {
		args = append(args, f.Competition)
		query += " AND competition = " + next()
	}
	if f.Status != "" {
		if !models.KnownStatus(models.Status(f.Status)) {
			return "", nil, fmt.Errorf("%w: unknown status %q", ErrInvalidFilter, f.Status)
		}
		args = append(args, f.Status)
		query += " AND (" + statusExpr + ") = " + next()
	}
	if f.PredictStatus != nil {
		args = append(args, *f.PredictStatus)
		query += " AND (prediction_content <> '') = " + next()
	}
	if f.PostMatchStatus != nil {
		args = append(args, *f.PostMatchStatus)
		query += " AND (post_match_content <> '') = " + next()
	}

	query += " ORDER BY match_date ASC, match_id ASC"

	limit := f.Limit
	if limit == 0 {
		limit = DefaultLimit
	}
	if limit < 0 {
		return "", nil, fmt.Errorf("%w: limit must be > 0", ErrInvalidFilter)
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if f.Skip < 0 {
		return "", nil, fmt.Errorf("%w: skip must be >= 0", ErrInvalidFilter)
	}
	query += fmt.Sprintf(" LIMIT %d OFFSET %d", limit, f.Skip)

	return query, args, nil
}
