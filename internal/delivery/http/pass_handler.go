package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/frontandrew/tollplaza/internal/domain"
	"github.com/frontandrew/tollplaza/internal/pkg/logger"
	"github.com/frontandrew/tollplaza/internal/usecase/pass"
	"github.com/frontandrew/tollplaza/internal/usecase/pricing"
	"github.com/go-chi/chi/v5"
)

// PassService defines the pass operations the handler needs.
type PassService interface {
	Purchase(ctx context.Context, req *pass.PurchaseRequest) (*domain.TollPass, error)
	Options(vehicleType domain.VehicleType) ([]pricing.Option, error)
	GetByID(ctx context.Context, passID string) (*domain.TollPass, error)
	GetByVehicle(ctx context.Context, vehicleReg string) ([]*domain.TollPass, error)
}

// PassHandler handles pass endpoints.
type PassHandler struct {
	passService PassService
	logger      logger.Logger
}

// NewPassHandler creates a pass handler.
func NewPassHandler(passService PassService, logger logger.Logger) *PassHandler {
	return &PassHandler{
		passService: passService,
		logger:      logger,
	}
}

// Purchase sells a pass.
// POST /api/v1/passes
func (h *PassHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	var req pass.PurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	p, err := h.passService.Purchase(r.Context(), &req)
	if err != nil {
		switch err {
		case domain.ErrVehicleNotFound:
			respondError(w, http.StatusNotFound, "Vehicle not registered")
		case domain.ErrTollNotFound:
			respondError(w, http.StatusNotFound, "Toll not found")
		case domain.ErrBoothNotFound:
			respondError(w, http.StatusNotFound, "Booth not found at toll")
		case domain.ErrInvalidPassType:
			respondError(w, http.StatusBadRequest, "Invalid pass type")
		case domain.ErrActivePassExists:
			respondError(w, http.StatusConflict, err.Error())
		default:
			h.logger.Error("Failed to purchase pass", map[string]interface{}{
				"error": err.Error(),
			})
			respondError(w, http.StatusInternalServerError, "Failed to purchase pass")
		}
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"data":    p,
	})
}

// Options lists purchasable pass types for a vehicle class.
// GET /api/v1/passes/options?vehicle_type=two_wheeler
func (h *PassHandler) Options(w http.ResponseWriter, r *http.Request) {
	vehicleType := domain.VehicleType(r.URL.Query().Get("vehicle_type"))

	options, err := h.passService.Options(vehicleType)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid vehicle type")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    options,
	})
}

// GetByID returns a pass.
// GET /api/v1/passes/{id}
func (h *PassHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	passID := chi.URLParam(r, "id")

	p, err := h.passService.GetByID(r.Context(), passID)
	if err != nil {
		if err == domain.ErrPassNotFound {
			respondError(w, http.StatusNotFound, "Pass not found")
			return
		}
		h.logger.Error("Failed to get pass", map[string]interface{}{
			"error": err.Error(),
		})
		respondError(w, http.StatusInternalServerError, "Failed to get pass")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    p,
	})
}

// GetByVehicle returns all passes of a vehicle.
// GET /api/v1/vehicles/{reg}/passes
func (h *PassHandler) GetByVehicle(w http.ResponseWriter, r *http.Request) {
	reg := chi.URLParam(r, "reg")

	passes, err := h.passService.GetByVehicle(r.Context(), reg)
	if err != nil {
		h.logger.Error("Failed to get vehicle passes", map[string]interface{}{
			"error": err.Error(),
		})
		respondError(w, http.StatusInternalServerError, "Failed to get passes")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    passes,
	})
}
