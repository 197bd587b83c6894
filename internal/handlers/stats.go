package handlers

import (
	"net/http"
	"strconv"
)

// GetAttemptStats handles GET /api/match/stats/attempts
// Returns per-day attempt counts grouped by phase and outcome from the
// audit log. Optional query param: days (default 7, max 90).
func (h *Handler) GetAttemptStats(w http.ResponseWriter, r *http.Request) {
	days := 7
	if s := r.URL.Query().Get("days"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v <= 0 {
			h.errorResponse(w, http.StatusBadRequest, "days must be a positive integer")
			return
		}
		days = v
	}
	if days > 90 {
		days = 90
	}

	buckets, err := h.attemptStats.GetAttemptBuckets(r.Context(), days)
	if err != nil {
		h.logger.Errorw("Failed to load attempt stats", "error", err)
		h.errorResponse(w, http.StatusInternalServerError, "Failed to load attempt stats")
		return
	}

	h.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"days":    days,
		"buckets": buckets,
	})
}
