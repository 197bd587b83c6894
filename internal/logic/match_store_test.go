package logic

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/matchsight/analysis-api/internal/models"
)

type MockPgPool struct {
	QueryFunc    func(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRowFunc func(ctx context.Context, sql string, args ...any) pgx.Row
	ExecFunc     func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func (m *MockPgPool) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if m.QueryFunc != nil {
		return m.QueryFunc(ctx, sql, args...)
	}
	return &MockPgRows{}, nil
}

func (m *MockPgPool) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if m.QueryRowFunc != nil {
		return m.QueryRowFunc(ctx, sql, args...)
	}
	return &noRow{}
}

func (m *MockPgPool) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if m.ExecFunc != nil {
		return m.ExecFunc(ctx, sql, args...)
	}
	return pgconn.CommandTag{}, nil
}

// noRow reports no rows for any QueryRow.
type noRow struct{}

func (r *noRow) Scan(dest ...any) error { return pgx.ErrNoRows }

// matchRow scans one fixed record.
type matchRow struct {
	rec models.MatchRecord
}

func (r *matchRow) Scan(dest ...any) error {
	*(dest[0].(*string)) = r.rec.MatchID
	*(dest[1].(*time.Time)) = r.rec.MatchDate
	*(dest[2].(*string)) = r.rec.KickoffTime
	*(dest[3].(*string)) = r.rec.HomeTeam
	*(dest[4].(*string)) = r.rec.AwayTeam
	*(dest[5].(*string)) = r.rec.Competition
	*(dest[6].(*string)) = r.rec.StatsLink
	*(dest[7].(*string)) = r.rec.PredictionContent
	*(dest[8].(*string)) = r.rec.PostMatchContent
	*(dest[9].(*string)) = string(r.rec.FailurePhase)
	*(dest[10].(*string)) = string(r.rec.FailureReason)
	*(dest[11].(*time.Time)) = r.rec.CreatedAt
	*(dest[12].(*time.Time)) = r.rec.UpdatedAt
	return nil
}

type MockPgRows struct {
	rows []models.MatchRecord
	curr int
}

func (r *MockPgRows) Close()                                       {}
func (r *MockPgRows) Err() error                                   { return nil }
func (r *MockPgRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *MockPgRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *MockPgRows) Conn() *pgx.Conn                              { return nil }
func (r *MockPgRows) Values() ([]any, error)                       { return nil, nil }
func (r *MockPgRows) RawValues() [][]byte                          { return nil }

func (r *MockPgRows) Next() bool {
	r.curr++
	return r.curr <= len(r.rows)
}

func (r *MockPgRows) Scan(dest ...any) error {
	row := matchRow{rec: r.rows[r.curr-1]}
	return row.Scan(dest...)
}

func storedMatch() models.MatchRecord {
	return models.MatchRecord{
		MatchID:     "match-1",
		MatchDate:   time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		HomeTeam:    "Arsenal",
		AwayTeam:    "Chelsea",
		Competition: "Premier League",
		CreatedAt:   time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt:   time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestMatchStoreGetNotFound(t *testing.T) {
	store := NewMatchStore(&MockPgPool{})

	_, err := store.Get(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestMatchStoreCreateConflict(t *testing.T) {
	store := NewMatchStore(&MockPgPool{
		ExecFunc: func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
			return pgconn.CommandTag{}, &pgconn.PgError{Code: "23505"}
		},
	})

	err := store.Create(context.Background(), storedMatch())
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
}

func TestMatchStoreUpsert(t *testing.T) {
	existing := storedMatch()

	tests := []struct {
		name      string
		stored    *models.MatchRecord // nil = not present
		incoming  func() models.MatchRecord
		wantErr   error
		wantWrite string // substring of the SQL that must run
	}{
		{
			name:      "Insert When New",
			incoming:  storedMatch,
			wantWrite: "INSERT INTO matches",
		},
		{
			name:   "Update Mutable Fields",
			stored: &existing,
			incoming: func() models.MatchRecord {
				rec := storedMatch()
				rec.PredictionContent = "home win"
				return rec
			},
			wantWrite: "UPDATE matches",
		},
		{
			name:   "Identity Change Rejected",
			stored: &existing,
			incoming: func() models.MatchRecord {
				rec := storedMatch()
				rec.HomeTeam = "Spurs"
				return rec
			},
			wantErr: ErrInvariant,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var executed string
			pool := &MockPgPool{
				QueryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
					if tt.stored == nil {
						return &noRow{}
					}
					return &matchRow{rec: *tt.stored}
				},
				ExecFunc: func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
					executed = sql
					return pgconn.CommandTag{}, nil
				},
			}
			store := NewMatchStore(pool)

			err := store.Upsert(context.Background(), tt.incoming())
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				if executed != "" {
					t.Errorf("rejected upsert still wrote: %s", executed)
				}
				return
			}
			if err != nil {
				t.Fatalf("Upsert: %v", err)
			}
			if !strings.Contains(executed, tt.wantWrite) {
				t.Errorf("executed %q, want %q", executed, tt.wantWrite)
			}
		})
	}
}

func TestListEligibleForPrediction(t *testing.T) {
	tests := []struct {
		name       string
		date       string
		force      bool
		wantErr    error
		wantGate   bool // the retry-eligible status gate must be present
		wantDateEq bool
	}{
		{name: "Default Gates On Status", wantGate: true},
		{name: "Force Selects Everything", force: true, wantGate: false},
		{name: "Date Scoped", date: "2025-03-01", wantGate: true, wantDateEq: true},
		{name: "Malformed Date", date: "01/03/2025", wantErr: ErrInvalidFilter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var captured string
			store := NewMatchStore(&MockPgPool{
				QueryFunc: func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
					captured = sql
					return &MockPgRows{}, nil
				},
			})

			_, err := store.ListEligibleForPrediction(context.Background(), tt.date, tt.force, 200)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ListEligibleForPrediction: %v", err)
			}

			hasGate := strings.Contains(captured, "'pending', 'analysis_failed'")
			if hasGate != tt.wantGate {
				t.Errorf("status gate present = %v, want %v in %q", hasGate, tt.wantGate, captured)
			}
			if tt.wantDateEq != strings.Contains(captured, "match_date = $1") {
				t.Errorf("date predicate mismatch in %q", captured)
			}
		})
	}
}

func TestListForPostMatch(t *testing.T) {
	var captured string
	store := NewMatchStore(&MockPgPool{
		QueryFunc: func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
			captured = sql
			return &MockPgRows{}, nil
		},
	})

	if _, err := store.ListForPostMatch(context.Background(), "2025-03-01", false, 200); err != nil {
		t.Fatalf("ListForPostMatch: %v", err)
	}
	// The date batch selects on analysis completeness only, never on the
	// prediction columns: post-match analysis does not presuppose a prediction.
	_, where, found := strings.Cut(captured, "WHERE")
	if !found || !strings.Contains(where, "post_match_content = ''") {
		t.Errorf("missing completeness predicate in %q", captured)
	}
	if strings.Contains(where, "prediction_content") {
		t.Errorf("unexpected prediction predicate in %q", captured)
	}

	// A forced batch drops the completeness predicate and reruns everything.
	if _, err := store.ListForPostMatch(context.Background(), "2025-03-01", true, 200); err != nil {
		t.Fatalf("ListForPostMatch force: %v", err)
	}
	_, where, _ = strings.Cut(captured, "WHERE")
	if strings.Contains(where, "post_match_content") {
		t.Errorf("forced batch still filters on completeness in %q", captured)
	}

	if _, err := store.ListForPostMatch(context.Background(), "bad-date", false, 200); !errors.Is(err, ErrInvalidFilter) {
		t.Errorf("malformed date: err = %v, want ErrInvalidFilter", err)
	}
}

func TestQuerySurfacesFilterErrors(t *testing.T) {
	store := NewMatchStore(&MockPgPool{})

	_, err := store.Query(context.Background(), MatchFilter{Status: "bogus"})
	if !errors.Is(err, ErrInvalidFilter) {
		t.Fatalf("err = %v, want ErrInvalidFilter", err)
	}
}

func TestQueryScansRecords(t *testing.T) {
	rec := storedMatch()
	rec.FailurePhase = models.PhasePredict
	rec.FailureReason = models.FailureMaxTokens

	store := NewMatchStore(&MockPgPool{
		QueryFunc: func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
			return &MockPgRows{rows: []models.MatchRecord{rec}}, nil
		},
	})

	out, err := store.Query(context.Background(), MatchFilter{})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("rows = %d, want 1", len(out))
	}
	if out[0].Status() != models.StatusPredictMaxTok {
		t.Errorf("status = %s, want %s", out[0].Status(), models.StatusPredictMaxTok)
	}
}
