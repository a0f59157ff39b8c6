package handlers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"carburapp/internal/service"
)

// LeaderboardHandlers serves the contributor ranking.
type LeaderboardHandlers struct {
	gamification *service.GamificationService
	logger       *zap.Logger
}

// NewLeaderboardHandlers builds handlers.
func NewLeaderboardHandlers(gamification *service.GamificationService, logger *zap.Logger) *LeaderboardHandlers {
	return &LeaderboardHandlers{gamification: gamification, logger: logger}
}

// Top returns the top-n contributors, ?n= capped at 100.
func (h *LeaderboardHandlers) Top(w http.ResponseWriter, r *http.Request) {
	n := 0
	if raw := r.URL.Query().Get("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "invalid n")
			return
		}
		n = parsed
	}
	if n > 100 {
		n = 100
	}

	rows, err := h.gamification.Leaderboard(r.Context(), n)
	if err != nil {
		h.logger.Error("leaderboard failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not load leaderboard")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"leaderboard": rows})
}
