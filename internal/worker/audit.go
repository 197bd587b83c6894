// Package worker implements the buffered audit pool for analysis attempts.
// Recording an attempt is decoupled from the runner's hot path: events are
// queued, batched, and flushed to ClickHouse on size or interval, with a
// graceful drain on shutdown. Audit is best-effort and never fails a run.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/matchsight/analysis-api/internal/models"
)

// Prometheus metrics
var (
	attemptsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "football_analysis_attempts_total",
		Help: "Total analysis attempts by phase and outcome",
	}, []string{"phase", "outcome"})

	attemptDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "football_analysis_duration_seconds",
		Help:    "Duration of external analysis calls",
		Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
	}, []string{"phase"})

	auditQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "football_audit_queue_depth",
		Help: "Current depth of the audit event queue",
	})

	auditBatchesFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "football_audit_batches_failed_total",
		Help: "Audit batches that failed to flush to ClickHouse",
	})
)

const auditSchema = `
CREATE TABLE IF NOT EXISTS football.analysis_attempts (
	ts            DateTime64(3),
	match_id      String,
	phase         LowCardinality(String),
	outcome       LowCardinality(String),
	finish_reason LowCardinality(String),
	duration_ms   Int64,
	err_text      String
) ENGINE = MergeTree()
ORDER BY (ts, match_id)
`

// AuditConfig configures the audit pool.
type AuditConfig struct {
	QueueSize     int
	BatchSize     int
	FlushInterval time.Duration
	ClickHouse    driver.Conn
	Logger        *zap.Logger
}

// AuditPool batches attempt events into ClickHouse.
type AuditPool struct {
	config AuditConfig
	queue  chan models.AttemptEvent
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	logger *zap.SugaredLogger
}

func NewAuditPool(cfg AuditConfig) *AuditPool {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1000
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = time.Second
	}
	return &AuditPool{
		config: cfg,
		queue:  make(chan models.AttemptEvent, cfg.QueueSize),
		logger: cfg.Logger.Sugar(),
	}
}

// EnsureSchema creates the audit table when missing.
func (p *AuditPool) EnsureSchema(ctx context.Context) error {
	if err := p.config.ClickHouse.Exec(ctx, "CREATE DATABASE IF NOT EXISTS football"); err != nil {
		return err
	}
	return p.config.ClickHouse.Exec(ctx, auditSchema)
}

// Start launches the flush worker and the queue depth reporter.
func (p *AuditPool) Start(ctx context.Context) {
	p.ctx, p.cancel = context.WithCancel(ctx)

	p.wg.Add(1)
	go p.worker()
	go p.reportQueueDepth()

	p.logger.Infow("Audit pool started",
		"queueSize", p.config.QueueSize,
		"batchSize", p.config.BatchSize,
	)
}

// Stop drains the queue and flushes the final batch.
func (p *AuditPool) Stop() {
	p.logger.Info("Stopping audit pool...")
	p.cancel()
	close(p.queue)
	p.wg.Wait()
	p.logger.Info("Audit pool stopped")
}

// Enqueue records an attempt. Metrics are updated immediately; the ClickHouse
// row is written asynchronously. Returns false when the event was dropped.
func (p *AuditPool) Enqueue(ev models.AttemptEvent) bool {
	attemptsRecorded.WithLabelValues(string(ev.Phase), ev.Outcome).Inc()
	attemptDuration.WithLabelValues(string(ev.Phase)).Observe(float64(ev.DurationMS) / 1000)

	// Protect against sending on a closed channel during shutdown
	defer func() {
		if r := recover(); r != nil {
			p.logger.Warnw("Failed to enqueue audit event (pool stopped)", "error", r)
		}
	}()

	select {
	case p.queue <- ev:
		return true
	default:
		p.logger.Warnw("Audit queue full, dropping event", "matchId", ev.MatchID)
		return false
	}
}

// QueueDepth returns the current queue size.
func (p *AuditPool) QueueDepth() int {
	return len(p.queue)
}

func (p *AuditPool) worker() {
	defer p.wg.Done()

	batch := make([]models.AttemptEvent, 0, p.config.BatchSize)
	ticker := time.NewTicker(p.config.FlushInterval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := p.flushBatch(batch); err != nil {
			p.logger.Errorw("Audit batch flush failed", "batchSize", len(batch), "error", err)
			auditBatchesFailed.Inc()
		}
		batch = batch[:0]
	}

	// Cancellation precedes queue close during shutdown; after it fires once
	// the case is disarmed so the loop blocks on the queue instead of spinning
	// on the permanently-ready done channel.
	done := p.ctx.Done()
	for {
		select {
		case ev, ok := <-p.queue:
			if !ok {
				flush()
				return
			}
			batch = append(batch, ev)
			if len(batch) >= p.config.BatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-done:
			done = nil
		}
	}
}

func (p *AuditPool) flushBatch(batch []models.AttemptEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	chBatch, err := p.config.ClickHouse.PrepareBatch(ctx, `
		INSERT INTO football.analysis_attempts (
			ts, match_id, phase, outcome, finish_reason, duration_ms, err_text
		)
	`)
	if err != nil {
		return err
	}

	for _, ev := range batch {
		err := chBatch.Append(
			ev.Timestamp,
			ev.MatchID,
			string(ev.Phase),
			ev.Outcome,
			string(ev.FinishReason),
			ev.DurationMS,
			ev.ErrText,
		)
		if err != nil {
			p.logger.Warnw("Failed to append audit event to batch", "error", err, "matchId", ev.MatchID)
			continue
		}
	}

	return chBatch.Send()
}

func (p *AuditPool) reportQueueDepth() {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			auditQueueDepth.Set(float64(len(p.queue)))
		case <-p.ctx.Done():
			return
		}
	}
}
