package handlers

import (
	"context"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/matchsight/analysis-api/internal/logic"
	"github.com/matchsight/analysis-api/internal/models"
	"github.com/matchsight/analysis-api/internal/runner"
)

// MaxBodySize limits the size of request bodies to 1MB
const MaxBodySize = 1048576

// BatchRunner drives the two analysis phases. Satisfied by *runner.Runner.
type BatchRunner interface {
	RunPredictions(ctx context.Context, opts runner.PredictionOptions) (models.RunSummary, error)
	RunPostMatch(ctx context.Context, date string, force bool) (models.RunSummary, error)
	RunPostMatchForMatch(ctx context.Context, matchID string, force bool) (models.RunSummary, error)
}

// AuditQueue exposes the depth of the attempt audit pool for readiness checks.
type AuditQueue interface {
	QueueDepth() int
}

type Config struct {
	Postgres   *pgxpool.Pool
	ClickHouse driver.Conn
	Redis      *redis.Client
	Logger     *zap.Logger
	// Services
	Store        logic.Store
	Runner       BatchRunner
	AttemptStats logic.AttemptStatsService
	Audit        AuditQueue
}

type Handler struct {
	pg           *pgxpool.Pool
	ch           driver.Conn
	redis        *redis.Client
	logger       *zap.SugaredLogger
	validator    *validator.Validate
	store        logic.Store
	runner       BatchRunner
	attemptStats logic.AttemptStatsService
	audit        AuditQueue
}

func New(cfg Config) *Handler {
	return &Handler{
		pg:           cfg.Postgres,
		ch:           cfg.ClickHouse,
		redis:        cfg.Redis,
		logger:       cfg.Logger.Sugar(),
		validator:    validator.New(),
		store:        cfg.Store,
		runner:       cfg.Runner,
		attemptStats: cfg.AttemptStats,
		audit:        cfg.Audit,
	}
}
