package handlers

import (
	"context"

	"github.com/matchsight/analysis-api/internal/logic"
	"github.com/matchsight/analysis-api/internal/models"
	"github.com/matchsight/analysis-api/internal/runner"
)

// MockStore
type MockStore struct {
	GetFunc    func(ctx context.Context, matchID string) (models.MatchRecord, error)
	CreateFunc func(ctx context.Context, rec models.MatchRecord) error
	UpsertFunc func(ctx context.Context, rec models.MatchRecord) error
	QueryFunc  func(ctx context.Context, f logic.MatchFilter) ([]models.MatchRecord, error)
}

func (m *MockStore) Get(ctx context.Context, matchID string) (models.MatchRecord, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, matchID)
	}
	return models.MatchRecord{}, logic.ErrNotFound
}

func (m *MockStore) Create(ctx context.Context, rec models.MatchRecord) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, rec)
	}
	return nil
}

func (m *MockStore) Upsert(ctx context.Context, rec models.MatchRecord) error {
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, rec)
	}
	return nil
}

func (m *MockStore) Query(ctx context.Context, f logic.MatchFilter) ([]models.MatchRecord, error) {
	if m.QueryFunc != nil {
		return m.QueryFunc(ctx, f)
	}
	return nil, nil
}

func (m *MockStore) ListEligibleForPrediction(ctx context.Context, date string, force bool, limit int) ([]models.MatchRecord, error) {
	return nil, nil
}

func (m *MockStore) ListForPostMatch(ctx context.Context, date string, force bool, limit int) ([]models.MatchRecord, error) {
	return nil, nil
}

// MockBatchRunner
type MockBatchRunner struct {
	RunPredictionsFunc       func(ctx context.Context, opts runner.PredictionOptions) (models.RunSummary, error)
	RunPostMatchFunc         func(ctx context.Context, date string, force bool) (models.RunSummary, error)
	RunPostMatchForMatchFunc func(ctx context.Context, matchID string, force bool) (models.RunSummary, error)
}

func (m *MockBatchRunner) RunPredictions(ctx context.Context, opts runner.PredictionOptions) (models.RunSummary, error) {
	if m.RunPredictionsFunc != nil {
		return m.RunPredictionsFunc(ctx, opts)
	}
	return models.RunSummary{}, nil
}

func (m *MockBatchRunner) RunPostMatch(ctx context.Context, date string, force bool) (models.RunSummary, error) {
	if m.RunPostMatchFunc != nil {
		return m.RunPostMatchFunc(ctx, date, force)
	}
	return models.RunSummary{}, nil
}

func (m *MockBatchRunner) RunPostMatchForMatch(ctx context.Context, matchID string, force bool) (models.RunSummary, error) {
	if m.RunPostMatchForMatchFunc != nil {
		return m.RunPostMatchForMatchFunc(ctx, matchID, force)
	}
	return models.RunSummary{}, nil
}

// MockAttemptStatsService
type MockAttemptStatsService struct {
	GetAttemptBucketsFunc func(ctx context.Context, days int) ([]models.AttemptBucket, error)
}

func (m *MockAttemptStatsService) GetAttemptBuckets(ctx context.Context, days int) ([]models.AttemptBucket, error) {
	if m.GetAttemptBucketsFunc != nil {
		return m.GetAttemptBucketsFunc(ctx, days)
	}
	return nil, nil
}

// MockAuditQueue
type MockAuditQueue struct {
	Depth int
}

func (m *MockAuditQueue) QueueDepth() int { return m.Depth }
