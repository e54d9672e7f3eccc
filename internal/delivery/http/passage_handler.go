package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/frontandrew/tollplaza/internal/pkg/logger"
	"github.com/frontandrew/tollplaza/internal/usecase/passage"
)

// PassageService defines the passage evaluation the handler needs.
type PassageService interface {
	Evaluate(ctx context.Context, req *passage.EvaluateRequest) (*passage.Decision, error)
}

// PassageHandler handles the booth-facing passage endpoint.
type PassageHandler struct {
	passageService PassageService
	logger         logger.Logger
}

// NewPassageHandler creates a passage handler.
func NewPassageHandler(passageService PassageService, logger logger.Logger) *PassageHandler {
	return &PassageHandler{
		passageService: passageService,
		logger:         logger,
	}
}

// Evaluate processes a vehicle passing through a booth. A denied passage
// is a normal 200 response carrying allowed=false and purchase options -
// only infrastructure and invariant failures become HTTP errors.
// POST /api/v1/passages
func (h *PassageHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	var req passage.EvaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.VehicleReg == "" || req.TollID == "" || req.BoothID == "" {
		respondError(w, http.StatusBadRequest, "vehicle_reg, toll_id and booth_id are required")
		return
	}

	decision, err := h.passageService.Evaluate(r.Context(), &req)
	if err != nil {
		h.logger.Error("Failed to evaluate passage", map[string]interface{}{
			"vehicle_reg": req.VehicleReg,
			"toll_id":     req.TollID,
			"error":       err.Error(),
		})
		respondError(w, http.StatusInternalServerError, "Failed to evaluate passage")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    decision,
	})
}
