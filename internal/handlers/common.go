package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/matchsight/analysis-api/internal/logic"
	"github.com/matchsight/analysis-api/internal/runner"
)

// Health check endpoint
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	})
}

// Ready check endpoint
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Check all dependencies
	checks := map[string]bool{
		"postgres":   h.pg.Ping(ctx) == nil,
		"clickhouse": h.ch.Ping(ctx) == nil,
		"redis":      h.redis.Ping(ctx).Err() == nil,
	}

	allHealthy := true
	for _, ok := range checks {
		if !ok {
			allHealthy = false
			break
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if !allHealthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(map[string]interface{}{
		"ready":      allHealthy,
		"checks":     checks,
		"queueDepth": h.audit.QueueDepth(),
	})
}

func (h *Handler) jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *Handler) errorResponse(w http.ResponseWriter, status int, message string) {
	h.jsonResponse(w, status, map[string]string{"error": message})
}

// serviceError maps the sentinel errors of the logic and runner layers onto
// HTTP statuses. Anything unrecognized is a 500 with a generic body.
func (h *Handler) serviceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, logic.ErrNotFound):
		h.errorResponse(w, http.StatusNotFound, "Match not found")
	case errors.Is(err, logic.ErrInvalidFilter):
		h.errorResponse(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, logic.ErrInvariant):
		h.errorResponse(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, logic.ErrConflict):
		h.errorResponse(w, http.StatusConflict, "Match already exists")
	case errors.Is(err, runner.ErrRunActive):
		h.errorResponse(w, http.StatusConflict, "A run of this kind is already active")
	case errors.Is(err, runner.ErrPredictionRequired):
		h.errorResponse(w, http.StatusUnprocessableEntity, "Match has no prediction; rerun with force=true")
	case errors.Is(err, logic.ErrStoreUnavailable):
		h.errorResponse(w, http.StatusServiceUnavailable, "Store unavailable")
	default:
		h.logger.Errorw("Unhandled service error", "error", err)
		h.errorResponse(w, http.StatusInternalServerError, "Internal error")
	}
}
