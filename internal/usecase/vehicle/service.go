package vehicle

import (
	"context"
	"fmt"

	"github.com/frontandrew/tollplaza/internal/domain"
	"github.com/frontandrew/tollplaza/internal/pkg/logger"
	"github.com/frontandrew/tollplaza/internal/repository"
)

// RegisterRequest carries the data to register a vehicle.
type RegisterRequest struct {
	RegistrationNumber string             `json:"registration_number"`
	VehicleType        domain.VehicleType `json:"vehicle_type"`
}

// Service holds vehicle registration business logic.
type Service struct {
	vehicleRepo repository.VehicleRepository
	logger      logger.Logger
}

// NewService creates a vehicle service.
func NewService(vehicleRepo repository.VehicleRepository, logger logger.Logger) *Service {
	return &Service{
		vehicleRepo: vehicleRepo,
		logger:      logger,
	}
}

// Register adds a vehicle to the system.
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*domain.Vehicle, error) {
	vehicle := &domain.Vehicle{
		RegistrationNumber: req.RegistrationNumber,
		VehicleType:        req.VehicleType,
	}

	if err := vehicle.Validate(); err != nil {
		return nil, err
	}

	if err := s.vehicleRepo.Create(ctx, vehicle); err != nil {
		if err == domain.ErrVehicleAlreadyExists {
			return nil, err
		}
		s.logger.Error("Failed to register vehicle", map[string]interface{}{
			"registration": vehicle.RegistrationNumber,
			"error":        err.Error(),
		})
		return nil, fmt.Errorf("failed to register vehicle: %w", err)
	}

	s.logger.Info("Vehicle registered", map[string]interface{}{
		"registration": vehicle.RegistrationNumber,
		"vehicle_type": vehicle.VehicleType,
	})

	return vehicle, nil
}

// GetByRegistration returns a vehicle by its normalized registration.
func (s *Service) GetByRegistration(ctx context.Context, reg string) (*domain.Vehicle, error) {
	return s.vehicleRepo.GetByRegistration(ctx, domain.NormalizeRegistration(reg))
}

// List returns vehicles with pagination.
func (s *Service) List(ctx context.Context, limit, offset int) ([]*domain.Vehicle, error) {
	return s.vehicleRepo.List(ctx, limit, offset)
}
