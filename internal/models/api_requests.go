package models

import "time"

// FinishReason is the tri-state stop signal from the external analysis
// capability. The core depends only on this, not on any provider schema.
type FinishReason string

const (
	FinishComplete  FinishReason = "complete"
	FinishMaxTokens FinishReason = "max_tokens"
	FinishError     FinishReason = "error"
)

// CreateMatchRequest is the payload for registering a fixture.
type CreateMatchRequest struct {
	MatchDate   string `json:"match_date" validate:"required"`
	KickoffTime string `json:"kickoff_time"`
	HomeTeam    string `json:"home_team" validate:"required,min=1,max=128"`
	AwayTeam    string `json:"away_team" validate:"required,min=1,max=128"`
	Competition string `json:"competition" validate:"required,min=1,max=128"`
	StatsLink   string `json:"stats_link" validate:"omitempty,url"`
}

// RunSummary aggregates one batch invocation. Per-match failures are recorded
// into the records themselves and counted here; they never abort the batch.
type RunSummary struct {
	Attempted int `json:"attempted"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}

// AttemptEvent is one analysis attempt, recorded to the audit log.
type AttemptEvent struct {
	Timestamp    time.Time
	MatchID      string
	Phase        Phase
	Outcome      string // "succeeded" or a FailureReason value
	FinishReason FinishReason
	DurationMS   int64
	ErrText      string
}

// AttemptBucket is a per-day aggregate of audit events.
type AttemptBucket struct {
	Day     string `json:"day"`
	Phase   string `json:"phase"`
	Outcome string `json:"outcome"`
	Count   uint64 `json:"count"`
}
