package logic

import (
	"strings"
	"time"

	"github.com/matchsight/analysis-api/internal/models"
)

// Outcome is the result of one external analysis call for one match.
// Err is set when the call failed before any content was returned
// (network, timeout, service error); otherwise Content and FinishReason
// carry what the capability produced.
type Outcome struct {
	Content      string
	FinishReason models.FinishReason
	Err          error
}

// Classify maps an outcome to a failure reason, or FailureNone on success.
// Content that is present but blank counts as invalid: a phase boolean must
// never become true without real content behind it.
func Classify(out Outcome) models.FailureReason {
	if out.Err != nil {
		return models.FailureFetchFailed
	}
	if out.FinishReason == models.FinishMaxTokens {
		return models.FailureMaxTokens
	}
	if out.FinishReason == models.FinishError {
		return models.FailureFetchFailed
	}
	if strings.TrimSpace(out.Content) == "" {
		return models.FailureInvalidContent
	}
	return models.FailureNone
}

// ApplyPrediction feeds a pre-match outcome through the status machine and
// returns the record with its mutable fields updated. Pure: no I/O, identity
// fields untouched.
func ApplyPrediction(rec models.MatchRecord, out Outcome, now time.Time) models.MatchRecord {
	reason := Classify(out)
	if reason == models.FailureNone {
		rec.PredictionContent = out.Content
		rec.FailurePhase = models.PhaseNone
		rec.FailureReason = models.FailureNone
	} else {
		rec.PredictionContent = ""
		rec.FailurePhase = models.PhasePredict
		rec.FailureReason = reason
	}
	rec.UpdatedAt = now
	return rec
}

// ApplyPostMatch is the post-phase counterpart of ApplyPrediction. A failed
// post attempt leaves any prediction content in place; the prediction boolean
// keeps reflecting its own phase.
func ApplyPostMatch(rec models.MatchRecord, out Outcome, now time.Time) models.MatchRecord {
	reason := Classify(out)
	if reason == models.FailureNone {
		rec.PostMatchContent = out.Content
		rec.FailurePhase = models.PhaseNone
		rec.FailureReason = models.FailureNone
	} else {
		rec.PostMatchContent = ""
		rec.FailurePhase = models.PhasePost
		rec.FailureReason = reason
	}
	rec.UpdatedAt = now
	return rec
}
