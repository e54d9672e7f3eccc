package http

import (
	"context"
	"net/http"

	"github.com/frontandrew/tollplaza/internal/domain"
	"github.com/frontandrew/tollplaza/internal/pkg/logger"
	"github.com/frontandrew/tollplaza/internal/usecase/leaderboard"
)

// LeaderboardService defines the leaderboard operations the handler needs.
type LeaderboardService interface {
	Get(ctx context.Context, metric string) ([]leaderboard.Entry, error)
}

// LeaderboardHandler handles booth leaderboard endpoints.
type LeaderboardHandler struct {
	leaderboardService LeaderboardService
	logger             logger.Logger
}

// NewLeaderboardHandler creates a leaderboard handler.
func NewLeaderboardHandler(leaderboardService LeaderboardService, logger logger.Logger) *LeaderboardHandler {
	return &LeaderboardHandler{
		leaderboardService: leaderboardService,
		logger:             logger,
	}
}

// Get returns booths ranked by the requested metric.
// GET /api/v1/leaderboard?metric=vehicles_processed
func (h *LeaderboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	metric := r.URL.Query().Get("metric")
	if metric == "" {
		metric = leaderboard.MetricVehiclesProcessed
	}

	entries, err := h.leaderboardService.Get(r.Context(), metric)
	if err != nil {
		if err == domain.ErrInvalidMetric {
			respondError(w, http.StatusBadRequest, "Invalid leaderboard metric")
			return
		}
		h.logger.Error("Failed to build leaderboard", map[string]interface{}{
			"metric": metric,
			"error":  err.Error(),
		})
		respondError(w, http.StatusInternalServerError, "Failed to build leaderboard")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    entries,
	})
}
