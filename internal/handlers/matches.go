package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/matchsight/analysis-api/internal/logic"
	"github.com/matchsight/analysis-api/internal/models"
)

// CreateMatch handles POST /api/match/matches. Fixture identity is derived
// from date and teams, so re-posting the same fixture is a 409, not a second
// record.
func (h *Handler) CreateMatch(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodySize)

	var req models.CreateMatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	matchDate, err := time.Parse(models.DateLayout, req.MatchDate)
	if err != nil {
		h.errorResponse(w, http.StatusBadRequest, "match_date must be "+models.DateLayout)
		return
	}

	now := time.Now().UTC()
	rec := models.MatchRecord{
		MatchID:     models.NewMatchID(matchDate, req.HomeTeam, req.AwayTeam),
		MatchDate:   matchDate,
		KickoffTime: req.KickoffTime,
		HomeTeam:    req.HomeTeam,
		AwayTeam:    req.AwayTeam,
		Competition: req.Competition,
		StatsLink:   req.StatsLink,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.store.Create(r.Context(), rec); err != nil {
		h.serviceError(w, err)
		return
	}

	h.logger.Infow("Match registered", "matchId", rec.MatchID,
		"home", rec.HomeTeam, "away", rec.AwayTeam, "date", req.MatchDate)
	h.jsonResponse(w, http.StatusCreated, rec.View())
}

// GetPredictions handles GET /api/match/predictions
func (h *Handler) GetPredictions(w http.ResponseWriter, r *http.Request) {
	h.listMatches(w, r)
}

// GetResults handles GET /api/match/results
func (h *Handler) GetResults(w http.ResponseWriter, r *http.Request) {
	h.listMatches(w, r)
}

// listMatches serves the shared filter surface of the read endpoints. A
// match_id filter that selects nothing is a 404; every other empty result is
// an empty list.
func (h *Handler) listMatches(w http.ResponseWriter, r *http.Request) {
	filter, err := parseMatchFilter(r)
	if err != nil {
		h.serviceError(w, err)
		return
	}

	records, err := h.store.Query(r.Context(), filter)
	if err != nil {
		h.serviceError(w, err)
		return
	}

	if filter.MatchID != "" && len(records) == 0 {
		h.serviceError(w, logic.ErrNotFound)
		return
	}

	views := make([]models.MatchView, 0, len(records))
	for _, rec := range records {
		views = append(views, rec.View())
	}
	h.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"matches": views,
		"count":   len(views),
	})
}

// parseMatchFilter reads the query string into a MatchFilter. Validation of
// the values themselves (date format, known statuses, pagination bounds)
// belongs to logic.BuildMatchQuery; this only rejects unparseable parameters.
func parseMatchFilter(r *http.Request) (logic.MatchFilter, error) {
	q := r.URL.Query()
	filter := logic.MatchFilter{
		TargetDate:  q.Get("target_date"),
		MatchID:     q.Get("match_id"),
		HomeTeam:    q.Get("home_team"),
		AwayTeam:    q.Get("away_team"),
		Competition: q.Get("competition"),
		Status:      q.Get("status"),
	}

	var err error
	if filter.PredictStatus, err = parseOptionalBool(q.Get("predict_status")); err != nil {
		return filter, err
	}
	if filter.PostMatchStatus, err = parseOptionalBool(q.Get("post_match_analysis_status")); err != nil {
		return filter, err
	}
	if filter.Limit, err = parseOptionalInt(q.Get("limit")); err != nil {
		return filter, err
	}
	if filter.Skip, err = parseOptionalInt(q.Get("skip")); err != nil {
		return filter, err
	}
	return filter, nil
}

func parseOptionalBool(s string) (*bool, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return nil, logic.ErrInvalidFilter
	}
	return &v, nil
}

func parseOptionalInt(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, logic.ErrInvalidFilter
	}
	return v, nil
}
