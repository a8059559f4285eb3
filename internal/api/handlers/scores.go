package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/wonny/ygscore/internal/store"
	"github.com/wonny/ygscore/pkg/logger"
)

const defaultScoreLimit = 50

// ScoreHandler serves the computed ETF scores.
type ScoreHandler struct {
	scores *store.ScoreRepository
	logger *logger.Logger
}

// NewScoreHandler creates a new score handler
func NewScoreHandler(scores *store.ScoreRepository, log *logger.Logger) *ScoreHandler {
	return &ScoreHandler{scores: scores, logger: log}
}

// GetScores returns scores ordered by total, highest first
// GET /api/v1/scores?limit=N
func (h *ScoreHandler) GetScores(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := defaultScoreLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			http.Error(w, `{"error": "limit must be a positive integer"}`, http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	scores, err := h.scores.List(ctx, limit)
	if err != nil {
		h.logger.WithError(err).Error("Score listing failed")
		http.Error(w, `{"error": "score listing failed"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"count":  len(scores),
		"scores": scores,
	})
}
