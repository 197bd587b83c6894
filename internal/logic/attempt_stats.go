package logic

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/matchsight/analysis-api/internal/models"
)

// AttemptStatsService summarizes the analysis attempt audit log.
type AttemptStatsService interface {
	GetAttemptBuckets(ctx context.Context, days int) ([]models.AttemptBucket, error)
}

type attemptStatsService struct {
	ch driver.Conn
}

func NewAttemptStatsService(ch driver.Conn) AttemptStatsService {
	return &attemptStatsService{ch: ch}
}

// GetAttemptBuckets returns per-day attempt counts grouped by phase and
// outcome for the last N days.
func (s *attemptStatsService) GetAttemptBuckets(ctx context.Context, days int) ([]models.AttemptBucket, error) {
	if days <= 0 || days > 90 {
		days = 7
	}

	rows, err := s.ch.Query(ctx, `
		SELECT
			toString(toDate(ts)) as day,
			phase,
			outcome,
			count() as attempts
		FROM football.analysis_attempts
		WHERE ts >= now() - INTERVAL ? DAY
		GROUP BY day, phase, outcome
		ORDER BY day DESC, phase, outcome
	`, days)
	if err != nil {
		return nil, fmt.Errorf("attempt buckets: %w", err)
	}
	defer rows.Close()

	var out []models.AttemptBucket
	for rows.Next() {
		var b models.AttemptBucket
		if err := rows.Scan(&b.Day, &b.Phase, &b.Outcome, &b.Count); err != nil {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}
