package runner

import (
	"context"
	"sync"

	"github.com/matchsight/analysis-api/internal/analyzer"
	"github.com/matchsight/analysis-api/internal/logic"
	"github.com/matchsight/analysis-api/internal/models"
)

// MemStore is an in-memory logic.Store for runner tests.
type MemStore struct {
	mu      sync.Mutex
	records map[string]models.MatchRecord

	// Injectable failures
	UpsertErr error
	ListErr   error
}

func NewMemStore(recs ...models.MatchRecord) *MemStore {
	s := &MemStore{records: make(map[string]models.MatchRecord)}
	for _, r := range recs {
		s.records[r.MatchID] = r
	}
	return s
}

func (s *MemStore) Get(ctx context.Context, matchID string) (models.MatchRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[matchID]
	if !ok {
		return models.MatchRecord{}, logic.ErrNotFound
	}
	return rec, nil
}

func (s *MemStore) Create(ctx context.Context, rec models.MatchRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[rec.MatchID]; ok {
		return logic.ErrConflict
	}
	s.records[rec.MatchID] = rec
	return nil
}

func (s *MemStore) Upsert(ctx context.Context, rec models.MatchRecord) error {
	if s.UpsertErr != nil {
		return s.UpsertErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.MatchID] = rec
	return nil
}

func (s *MemStore) Query(ctx context.Context, f logic.MatchFilter) ([]models.MatchRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.MatchRecord
	for _, r := range s.records {
		out = append(out, r)
	}
	return out, nil
}

func (s *MemStore) ListEligibleForPrediction(ctx context.Context, date string, force bool, limit int) ([]models.MatchRecord, error) {
	if s.ListErr != nil {
		return nil, s.ListErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.MatchRecord
	for _, r := range s.records {
		if date != "" && r.MatchDate.Format(models.DateLayout) != date {
			continue
		}
		if !force {
			st := r.Status()
			if st != models.StatusPending && st != models.StatusAnalysisFailed {
				continue
			}
		}
		if len(out) < limit {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *MemStore) ListForPostMatch(ctx context.Context, date string, force bool, limit int) ([]models.MatchRecord, error) {
	if s.ListErr != nil {
		return nil, s.ListErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.MatchRecord
	for _, r := range s.records {
		if r.MatchDate.Format(models.DateLayout) != date {
			continue
		}
		if !force && r.PostMatchDone() {
			continue
		}
		if len(out) < limit {
			out = append(out, r)
		}
	}
	return out, nil
}

// MockAnalyzer returns canned results keyed on the prompt, or a default.
type MockAnalyzer struct {
	mu      sync.Mutex
	calls   int
	Results []analyzerResult // consumed per call when set
	Default analyzerResult
	Func    func(ctx context.Context, prompt string) (*analyzer.Result, error)
}

type analyzerResult struct {
	res *analyzer.Result
	err error
}

func (m *MockAnalyzer) Analyze(ctx context.Context, prompt string) (*analyzer.Result, error) {
	if m.Func != nil {
		return m.Func(ctx, prompt)
	}
	m.mu.Lock()
	idx := m.calls
	m.calls++
	m.mu.Unlock()
	if idx < len(m.Results) {
		return m.Results[idx].res, m.Results[idx].err
	}
	if m.Default.res != nil || m.Default.err != nil {
		return m.Default.res, m.Default.err
	}
	return &analyzer.Result{Content: "analysis text", FinishReason: models.FinishComplete}, nil
}

func (m *MockAnalyzer) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// MockAudit collects attempt events.
type MockAudit struct {
	mu     sync.Mutex
	events []models.AttemptEvent
}

func (m *MockAudit) Enqueue(ev models.AttemptEvent) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return true
}

func (m *MockAudit) Events() []models.AttemptEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.AttemptEvent, len(m.events))
	copy(out, m.events)
	return out
}

// MockCoordinator tracks lock state in memory.
type MockCoordinator struct {
	mu       sync.Mutex
	locked   map[string]bool
	releases int
	clears   int

	Deny       bool  // refuse all lock acquisitions
	AcquireErr error // returned from AcquireLock when set
}

func NewMockCoordinator() *MockCoordinator {
	return &MockCoordinator{locked: make(map[string]bool)}
}

func (c *MockCoordinator) AcquireLock(ctx context.Context, kind string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.AcquireErr != nil {
		return false, c.AcquireErr
	}
	if c.Deny || c.locked[kind] {
		return false, nil
	}
	c.locked[kind] = true
	return true, nil
}

func (c *MockCoordinator) ReleaseLock(ctx context.Context, kind string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.locked[kind] = false
	c.releases++
}

func (c *MockCoordinator) SetProgress(ctx context.Context, kind string, done, total int) {}

func (c *MockCoordinator) ClearProgress(ctx context.Context, kind string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clears++
}

func (c *MockCoordinator) Releases() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.releases + c.clears
}
