// Package runner drives the two analysis phases over the match store. Batch
// runs process matches under bounded concurrency against the external
// capability; per-match failures are recorded into the records and counted in
// the summary, never raised. Only a store-level failure aborts a batch.
package runner

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/matchsight/analysis-api/internal/analyzer"
	"github.com/matchsight/analysis-api/internal/logic"
	"github.com/matchsight/analysis-api/internal/models"
)

var (
	// ErrRunActive means another batch run of the same kind holds the lock.
	ErrRunActive = errors.New("batch run already active")

	// ErrPredictionRequired means a single-match post-match run was requested
	// for a match without a completed prediction and without force.
	ErrPredictionRequired = errors.New("pre-match prediction required")
)

const (
	lockPredictions = "predictions"
	lockPostMatch   = "post_match"
)

// AuditSink receives one event per analysis attempt.
type AuditSink interface {
	Enqueue(ev models.AttemptEvent) bool
}

// Coordinator serializes batch runs of the same kind and mirrors live
// progress for observers. Implementations are best-effort on progress.
type Coordinator interface {
	AcquireLock(ctx context.Context, kind string) (bool, error)
	ReleaseLock(ctx context.Context, kind string)
	SetProgress(ctx context.Context, kind string, done, total int)
	ClearProgress(ctx context.Context, kind string)
}

// Config wires a Runner.
type Config struct {
	Store       logic.Store
	Analyzer    analyzer.Analyzer
	Audit       AuditSink
	Coordinator Coordinator
	Logger      *zap.Logger
	Concurrency int
	MaxBatch    int
	CallTimeout time.Duration
}

// Runner executes prediction and post-match batches. It holds no state
// between invocations; scheduling is the caller's concern.
type Runner struct {
	store       logic.Store
	analyzer    analyzer.Analyzer
	audit       AuditSink
	coord       Coordinator
	logger      *zap.SugaredLogger
	concurrency int
	maxBatch    int
	callTimeout time.Duration
}

func New(cfg Config) *Runner {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 3
	}
	if cfg.MaxBatch <= 0 {
		cfg.MaxBatch = 200
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 90 * time.Second
	}
	return &Runner{
		store:       cfg.Store,
		analyzer:    cfg.Analyzer,
		audit:       cfg.Audit,
		coord:       cfg.Coordinator,
		logger:      cfg.Logger.Sugar(),
		concurrency: cfg.Concurrency,
		maxBatch:    cfg.MaxBatch,
		callTimeout: cfg.CallTimeout,
	}
}

// PredictionOptions scope a prediction batch.
type PredictionOptions struct {
	Date  string // models.DateLayout; empty = all eligible matches
	Force bool   // rerun completed matches, overwriting stored content
}

// RunPredictions drives the pre-match phase over all eligible matches.
// Default policy is SKIP: matches already in predict_complete are not
// selected, so an LLM result is never overwritten without Force.
func (r *Runner) RunPredictions(ctx context.Context, opts PredictionOptions) (models.RunSummary, error) {
	matches, err := r.store.ListEligibleForPrediction(ctx, opts.Date, opts.Force, r.maxBatch)
	if err != nil {
		return models.RunSummary{}, err
	}
	return r.runBatch(ctx, lockPredictions, matches, r.processPrediction)
}

// RunPostMatch drives the post-match phase for every match of the date whose
// analysis is incomplete, or for every match of the date when forced (an
// existing analysis is rerun and overwritten). The date batch deliberately
// does not require a completed prediction; that gate applies only to
// single-match runs.
func (r *Runner) RunPostMatch(ctx context.Context, date string, force bool) (models.RunSummary, error) {
	matches, err := r.store.ListForPostMatch(ctx, date, force, r.maxBatch)
	if err != nil {
		return models.RunSummary{}, err
	}
	return r.runBatch(ctx, lockPostMatch, matches, r.processPostMatch)
}

// RunPostMatchForMatch analyzes a single match. Without force the match must
// have a completed prediction; with force it is analyzed regardless, and an
// existing analysis is overwritten.
func (r *Runner) RunPostMatchForMatch(ctx context.Context, matchID string, force bool) (models.RunSummary, error) {
	rec, err := r.store.Get(ctx, matchID)
	if err != nil {
		return models.RunSummary{}, err
	}
	if rec.PostMatchDone() && !force {
		return models.RunSummary{Skipped: 1}, nil
	}
	if !rec.PredictDone() && !force {
		return models.RunSummary{}, ErrPredictionRequired
	}

	summary := models.RunSummary{Attempted: 1}
	if err := r.processPostMatch(ctx, rec, &summary, &sync.Mutex{}); err != nil {
		return summary, err
	}
	return summary, nil
}

type processFn func(ctx context.Context, rec models.MatchRecord, summary *models.RunSummary, mu *sync.Mutex) error

func (r *Runner) runBatch(ctx context.Context, kind string, matches []models.MatchRecord, process processFn) (models.RunSummary, error) {
	locked := false
	ok, err := r.coord.AcquireLock(ctx, kind)
	if err != nil {
		r.logger.Warnw("Lock acquisition failed, proceeding unlocked", "kind", kind, "error", err)
	} else if !ok {
		return models.RunSummary{}, ErrRunActive
	} else {
		locked = true
	}
	// An unlocked run must not touch the coordinator keys on the way out: a
	// concurrent run may have taken the lock once Redis recovered.
	defer func() {
		if locked {
			r.coord.ReleaseLock(context.Background(), kind)
			r.coord.ClearProgress(context.Background(), kind)
		}
	}()

	total := len(matches)
	r.logger.Infow("Batch run starting", "kind", kind, "matches", total, "concurrency", r.concurrency)
	if total == 0 {
		return models.RunSummary{}, nil
	}

	summary := models.RunSummary{Attempted: total}
	var mu sync.Mutex
	done := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for _, rec := range matches {
		rec := rec
		g.Go(func() error {
			err := process(gctx, rec, &summary, &mu)

			mu.Lock()
			done++
			d := done
			mu.Unlock()
			if locked {
				r.coord.SetProgress(ctx, kind, d, total)
			}

			// Only infrastructure failures propagate; they cancel the batch.
			return err
		})
	}

	if err := g.Wait(); err != nil {
		r.logger.Errorw("Batch run aborted", "kind", kind, "error", err)
		return summary, err
	}

	r.logger.Infow("Batch run complete", "kind", kind,
		"attempted", summary.Attempted, "succeeded", summary.Succeeded,
		"failed", summary.Failed, "skipped", summary.Skipped)
	return summary, nil
}

func (r *Runner) processPrediction(ctx context.Context, rec models.MatchRecord, summary *models.RunSummary, mu *sync.Mutex) error {
	outcome := r.analyze(ctx, rec, analyzer.BuildPredictionPrompt(rec), models.PhasePredict)
	next := logic.ApplyPrediction(rec, outcome, time.Now().UTC())

	if err := r.store.Upsert(ctx, next); err != nil {
		return err
	}

	mu.Lock()
	if next.PredictDone() {
		summary.Succeeded++
	} else {
		summary.Failed++
	}
	mu.Unlock()
	return nil
}

func (r *Runner) processPostMatch(ctx context.Context, rec models.MatchRecord, summary *models.RunSummary, mu *sync.Mutex) error {
	outcome := r.analyze(ctx, rec, analyzer.BuildPostMatchPrompt(rec), models.PhasePost)
	next := logic.ApplyPostMatch(rec, outcome, time.Now().UTC())

	if err := r.store.Upsert(ctx, next); err != nil {
		return err
	}

	mu.Lock()
	if next.PostMatchDone() {
		summary.Succeeded++
	} else {
		summary.Failed++
	}
	mu.Unlock()
	return nil
}

// analyze performs one bounded external call and reports it to the audit log.
func (r *Runner) analyze(ctx context.Context, rec models.MatchRecord, prompt string, phase models.Phase) logic.Outcome {
	callCtx, cancel := context.WithTimeout(ctx, r.callTimeout)
	defer cancel()

	start := time.Now()
	res, err := r.analyzer.Analyze(callCtx, prompt)
	duration := time.Since(start)

	var outcome logic.Outcome
	if err != nil {
		outcome = logic.Outcome{Err: err}
		r.logger.Warnw("Analysis call failed", "matchId", rec.MatchID, "phase", phase, "error", err)
	} else {
		outcome = logic.Outcome{Content: res.Content, FinishReason: res.FinishReason}
	}

	ev := models.AttemptEvent{
		Timestamp:  start,
		MatchID:    rec.MatchID,
		Phase:      phase,
		DurationMS: duration.Milliseconds(),
	}
	if reason := logic.Classify(outcome); reason != models.FailureNone {
		ev.Outcome = string(reason)
	} else {
		ev.Outcome = "succeeded"
	}
	if err != nil {
		ev.FinishReason = models.FinishError
		ev.ErrText = err.Error()
	} else {
		ev.FinishReason = res.FinishReason
	}
	r.audit.Enqueue(ev)

	return outcome
}
