package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matchsight/analysis-api/internal/models"
	"github.com/matchsight/analysis-api/internal/runner"
)

// RunPredictions handles POST /api/match/run-predictions.
// Optional query params: date (scope to one day), force (rerun completed
// matches, overwriting stored predictions).
func (h *Handler) RunPredictions(w http.ResponseWriter, r *http.Request) {
	opts := runner.PredictionOptions{
		Date:  r.URL.Query().Get("date"),
		Force: r.URL.Query().Get("force") == "true",
	}
	if opts.Date != "" {
		if _, err := time.Parse(models.DateLayout, opts.Date); err != nil {
			h.errorResponse(w, http.StatusBadRequest, "date must be "+models.DateLayout)
			return
		}
	}

	summary, err := h.runner.RunPredictions(r.Context(), opts)
	if err != nil {
		h.serviceError(w, err)
		return
	}

	h.logger.Infow("Prediction run finished", "date", opts.Date, "force", opts.Force,
		"attempted", summary.Attempted, "succeeded", summary.Succeeded, "failed", summary.Failed)
	h.jsonResponse(w, http.StatusOK, summary)
}

// RunPostMatchAnalysis handles POST /api/match/run-post-match-analysis/{date}.
// Optional query param: force (rerun matches whose analysis is already
// complete, overwriting it).
func (h *Handler) RunPostMatchAnalysis(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")
	if _, err := time.Parse(models.DateLayout, date); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "date must be "+models.DateLayout)
		return
	}
	force := r.URL.Query().Get("force") == "true"

	summary, err := h.runner.RunPostMatch(r.Context(), date, force)
	if err != nil {
		h.serviceError(w, err)
		return
	}

	h.logger.Infow("Post-match run finished", "date", date, "force", force,
		"attempted", summary.Attempted, "succeeded", summary.Succeeded, "failed", summary.Failed)
	h.jsonResponse(w, http.StatusOK, summary)
}

// RunPostMatchForMatch handles POST /api/match/run-post-match-analysis/match/{matchID}.
// Without force the match must already carry a prediction and must not have
// been analyzed; force bypasses both gates.
func (h *Handler) RunPostMatchForMatch(w http.ResponseWriter, r *http.Request) {
	matchID := chi.URLParam(r, "matchID")
	force := r.URL.Query().Get("force") == "true"

	summary, err := h.runner.RunPostMatchForMatch(r.Context(), matchID, force)
	if err != nil {
		h.serviceError(w, err)
		return
	}

	h.jsonResponse(w, http.StatusOK, summary)
}
