package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/matchsight/analysis-api/internal/analyzer"
	"github.com/matchsight/analysis-api/internal/config"
	"github.com/matchsight/analysis-api/internal/handlers"
	"github.com/matchsight/analysis-api/internal/logic"
	"github.com/matchsight/analysis-api/internal/runner"
	"github.com/matchsight/analysis-api/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	var logger *zap.Logger
	if cfg.Env == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Postgres
	pg, err := pgxpool.New(ctx, cfg.PostgresURL)
	if err != nil {
		sugar.Fatalw("Failed to create Postgres pool", "error", err)
	}
	defer pg.Close()

	// ClickHouse
	chOpts, err := clickhouse.ParseDSN(cfg.ClickHouseURL)
	if err != nil {
		sugar.Fatalw("Invalid ClickHouse URL", "error", err)
	}
	ch, err := clickhouse.Open(chOpts)
	if err != nil {
		sugar.Fatalw("Failed to connect to ClickHouse", "error", err)
	}
	defer ch.Close()

	// Redis
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		sugar.Fatalw("Invalid Redis URL", "error", err)
	}
	rdb := redis.NewClient(redisOpts)
	defer rdb.Close()

	store := logic.NewMatchStore(pg)
	if err := store.EnsureSchema(ctx); err != nil {
		sugar.Fatalw("Failed to ensure Postgres schema", "error", err)
	}

	audit := worker.NewAuditPool(worker.AuditConfig{
		QueueSize:     cfg.AuditQueueSize,
		BatchSize:     cfg.AuditBatchSize,
		FlushInterval: cfg.AuditFlushInterval,
		ClickHouse:    ch,
		Logger:        logger,
	})
	if err := audit.EnsureSchema(ctx); err != nil {
		sugar.Fatalw("Failed to ensure ClickHouse schema", "error", err)
	}
	audit.Start(ctx)

	gemini := analyzer.NewGeminiClient(analyzer.GeminiConfig{
		BaseURL:         cfg.AnalyzerBaseURL,
		APIKey:          cfg.AnalyzerAPIKey,
		Model:           cfg.AnalyzerModel,
		MaxOutputTokens: cfg.AnalyzerMaxTokens,
		Temperature:     cfg.AnalyzerTemp,
		Timeout:         cfg.AnalyzerTimeout,
		Logger:          logger,
	})

	batchRunner := runner.New(runner.Config{
		Store:       store,
		Analyzer:    gemini,
		Audit:       audit,
		Coordinator: runner.NewRedisCoordinator(rdb, cfg.RunLockTTL, logger),
		Logger:      logger,
		Concurrency: cfg.RunnerConcurrency,
		MaxBatch:    cfg.RunnerMaxBatch,
		CallTimeout: cfg.AnalyzerTimeout,
	})

	h := handlers.New(handlers.Config{
		Postgres:     pg,
		ClickHouse:   ch,
		Redis:        rdb,
		Logger:       logger,
		Store:        store,
		Runner:       batchRunner,
		AttemptStats: logic.NewAttemptStatsService(ch),
		Audit:        audit,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h.Routes(cfg.AllowedOrigins),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		sugar.Infow("Server starting", "port", cfg.Port, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sugar.Fatalw("Server failed", "error", err)
		}
	}()

	<-ctx.Done()
	sugar.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		sugar.Errorw("Server shutdown failed", "error", err)
	}

	// Drain pending audit events before closing connections.
	audit.Stop()
	sugar.Info("Shutdown complete")
}
