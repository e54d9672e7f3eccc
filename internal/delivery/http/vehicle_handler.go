package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/frontandrew/tollplaza/internal/domain"
	"github.com/frontandrew/tollplaza/internal/pkg/logger"
	"github.com/frontandrew/tollplaza/internal/usecase/vehicle"
	"github.com/go-chi/chi/v5"
)

// VehicleService defines the vehicle operations the handler needs.
type VehicleService interface {
	Register(ctx context.Context, req *vehicle.RegisterRequest) (*domain.Vehicle, error)
	GetByRegistration(ctx context.Context, reg string) (*domain.Vehicle, error)
	List(ctx context.Context, limit, offset int) ([]*domain.Vehicle, error)
}

// VehicleHandler handles vehicle endpoints.
type VehicleHandler struct {
	vehicleService VehicleService
	logger         logger.Logger
}

// NewVehicleHandler creates a vehicle handler.
func NewVehicleHandler(vehicleService VehicleService, logger logger.Logger) *VehicleHandler {
	return &VehicleHandler{
		vehicleService: vehicleService,
		logger:         logger,
	}
}

// Register registers a vehicle.
// POST /api/v1/vehicles
func (h *VehicleHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req vehicle.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	v, err := h.vehicleService.Register(r.Context(), &req)
	if err != nil {
		switch err {
		case domain.ErrVehicleAlreadyExists:
			respondError(w, http.StatusConflict, "Vehicle already registered")
		case domain.ErrInvalidRegistration, domain.ErrInvalidVehicleType:
			respondError(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error("Failed to register vehicle", map[string]interface{}{
				"error": err.Error(),
			})
			respondError(w, http.StatusInternalServerError, "Failed to register vehicle")
		}
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"data":    v,
	})
}

// GetByRegistration returns a vehicle.
// GET /api/v1/vehicles/{reg}
func (h *VehicleHandler) GetByRegistration(w http.ResponseWriter, r *http.Request) {
	reg := chi.URLParam(r, "reg")

	v, err := h.vehicleService.GetByRegistration(r.Context(), reg)
	if err != nil {
		if err == domain.ErrVehicleNotFound {
			respondError(w, http.StatusNotFound, "Vehicle not found")
			return
		}
		h.logger.Error("Failed to get vehicle", map[string]interface{}{
			"error": err.Error(),
		})
		respondError(w, http.StatusInternalServerError, "Failed to get vehicle")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    v,
	})
}

// List returns registered vehicles.
// GET /api/v1/vehicles
func (h *VehicleHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := paginationParams(r)

	vehicles, err := h.vehicleService.List(r.Context(), limit, offset)
	if err != nil {
		h.logger.Error("Failed to list vehicles", map[string]interface{}{
			"error": err.Error(),
		})
		respondError(w, http.StatusInternalServerError, "Failed to list vehicles")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    vehicles,
		"pagination": map[string]int{
			"limit":  limit,
			"offset": offset,
		},
	})
}
