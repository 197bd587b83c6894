// Package analyzer wraps the external text-analysis capability. The rest of
// the service depends only on the Analyzer interface and its tri-state finish
// signal, never on the provider's wire schema.
package analyzer

import (
	"context"

	"github.com/matchsight/analysis-api/internal/models"
)

// Result is what one analysis call produced. Content may be non-empty even
// when FinishReason is max_tokens; callers must treat truncated output as
// incomplete rather than storing it.
type Result struct {
	Content      string
	FinishReason models.FinishReason
}

// Analyzer generates analysis text for a prompt. Implementations must honor
// ctx cancellation and deadlines; a deadline hit surfaces as an error, which
// the status machine records as fetch_failed.
type Analyzer interface {
	Analyze(ctx context.Context, prompt string) (*Result, error)
}
