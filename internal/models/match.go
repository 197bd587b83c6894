package models

import (
	"time"

	"github.com/google/uuid"
)

// DateLayout is the single textual date format accepted and emitted by every
// endpoint and stored in match_date.
const DateLayout = "2006-01-02"

// Phase identifies which analysis phase an outcome or failure belongs to.
type Phase string

const (
	PhaseNone    Phase = ""
	PhasePredict Phase = "predict"
	PhasePost    Phase = "post"
)

// FailureReason classifies the most recent failed attempt for a phase.
type FailureReason string

const (
	FailureNone           FailureReason = ""
	FailureFetchFailed    FailureReason = "fetch_failed"
	FailureMaxTokens      FailureReason = "max_tokens"
	FailureInvalidContent FailureReason = "invalid_content"
)

// Status is the coarse lifecycle tag used for filtering. It is never stored
// on its own: it is always derived from the raw outcome facts via DeriveStatus.
type Status string

const (
	StatusPending         Status = "pending"
	StatusPredictComplete Status = "predict_complete"
	StatusAnalysisFailed  Status = "analysis_failed"
	StatusPredictMaxTok   Status = "predict_max_tokens"
	StatusPostComplete    Status = "post_analysis_complete"
	StatusPostFailed      Status = "post_analysis_failed"
	StatusPostFetchFailed Status = "post_analysis_fetch_failed"
	StatusPostMaxTok      Status = "post_analysis_max_tokens"
)

// KnownStatus reports whether s is one of the lifecycle states. Used by the
// query filter builder to reject unknown status filters.
func KnownStatus(s Status) bool {
	switch s {
	case StatusPending, StatusPredictComplete, StatusAnalysisFailed, StatusPredictMaxTok,
		StatusPostComplete, StatusPostFailed, StatusPostFetchFailed, StatusPostMaxTok:
		return true
	}
	return false
}

// DeriveStatus computes the coarse status from the stored facts. The SQL layer
// carries an equivalent CASE expression; the two must agree (see status tests).
//
// The failure phase always wins over completion flags. A forced prediction
// rerun that fails on an already-analyzed match therefore reports
// analysis_failed even though post_match_content is still present: the status
// reflects the most recent attempt, and the stored analysis remains queryable.
func DeriveStatus(predictDone, postDone bool, phase Phase, reason FailureReason) Status {
	switch phase {
	case PhasePost:
		switch reason {
		case FailureMaxTokens:
			return StatusPostMaxTok
		case FailureFetchFailed:
			return StatusPostFetchFailed
		default:
			return StatusPostFailed
		}
	case PhasePredict:
		if reason == FailureMaxTokens {
			return StatusPredictMaxTok
		}
		return StatusAnalysisFailed
	}
	if postDone {
		return StatusPostComplete
	}
	if predictDone {
		return StatusPredictComplete
	}
	return StatusPending
}

// MatchRecord is one tracked match. Identity fields (MatchID, MatchDate,
// HomeTeam, AwayTeam, Competition) are immutable once created; only the
// analysis outcome fields mutate, and only through the status machine.
type MatchRecord struct {
	MatchID     string
	MatchDate   time.Time
	KickoffTime string
	HomeTeam    string
	AwayTeam    string
	Competition string
	StatsLink   string

	PredictionContent string
	PostMatchContent  string
	FailurePhase      Phase
	FailureReason     FailureReason

	CreatedAt time.Time
	UpdatedAt time.Time
}

// PredictDone reports whether the pre-match prediction succeeded. The boolean
// is a pure view of the stored content: a predict-phase failure never stores
// content, so the flag and the failure facts cannot drift.
func (r MatchRecord) PredictDone() bool { return r.PredictionContent != "" }

// PostMatchDone reports whether the post-match analysis succeeded.
func (r MatchRecord) PostMatchDone() bool { return r.PostMatchContent != "" }

// Status derives the coarse lifecycle tag for this record.
func (r MatchRecord) Status() Status {
	return DeriveStatus(r.PredictDone(), r.PostMatchDone(), r.FailurePhase, r.FailureReason)
}

// matchIDNamespace seeds deterministic match IDs so the same fixture ingested
// twice maps to the same record.
var matchIDNamespace = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

// NewMatchID derives the deterministic identifier for a fixture.
func NewMatchID(matchDate time.Time, homeTeam, awayTeam string) string {
	key := matchDate.Format(DateLayout) + "|" + homeTeam + "|" + awayTeam
	return uuid.NewSHA1(matchIDNamespace, []byte(key)).String()
}

// MatchView is the JSON projection returned by read endpoints. The derived
// fields are computed here so no stored column can disagree with them.
type MatchView struct {
	MatchID           string        `json:"match_id"`
	MatchDate         string        `json:"match_date"`
	KickoffTime       string        `json:"kickoff_time,omitempty"`
	HomeTeam          string        `json:"home_team"`
	AwayTeam          string        `json:"away_team"`
	Competition       string        `json:"competition"`
	StatsLink         string        `json:"stats_link,omitempty"`
	PredictStatus     bool          `json:"predict_status"`
	PostMatchStatus   bool          `json:"post_match_analysis_status"`
	Status            Status        `json:"status"`
	PredictionContent string        `json:"prediction_content,omitempty"`
	PostMatchContent  string        `json:"post_match_content,omitempty"`
	FailureReason     FailureReason `json:"failure_reason,omitempty"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

// View builds the API projection for this record.
func (r MatchRecord) View() MatchView {
	return MatchView{
		MatchID:           r.MatchID,
		MatchDate:         r.MatchDate.Format(DateLayout),
		KickoffTime:       r.KickoffTime,
		HomeTeam:          r.HomeTeam,
		AwayTeam:          r.AwayTeam,
		Competition:       r.Competition,
		StatsLink:         r.StatsLink,
		PredictStatus:     r.PredictDone(),
		PostMatchStatus:   r.PostMatchDone(),
		Status:            r.Status(),
		PredictionContent: r.PredictionContent,
		PostMatchContent:  r.PostMatchContent,
		FailureReason:     r.FailureReason,
		UpdatedAt:         r.UpdatedAt,
	}
}
