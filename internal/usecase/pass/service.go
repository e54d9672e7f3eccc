package pass

import (
	"context"
	"fmt"

	"github.com/frontandrew/tollplaza/internal/domain"
	"github.com/frontandrew/tollplaza/internal/pkg/clock"
	"github.com/frontandrew/tollplaza/internal/pkg/id"
	"github.com/frontandrew/tollplaza/internal/pkg/lock"
	"github.com/frontandrew/tollplaza/internal/pkg/logger"
	"github.com/frontandrew/tollplaza/internal/pkg/metrics"
	"github.com/frontandrew/tollplaza/internal/repository"
	"github.com/frontandrew/tollplaza/internal/usecase/pricing"
)

// PurchaseRequest carries the data to purchase a pass at a booth.
type PurchaseRequest struct {
	VehicleReg string          `json:"vehicle_reg"`
	TollID     string          `json:"toll_id"`
	BoothID    string          `json:"booth_id"`
	PassType   domain.PassType `json:"pass_type"`
}

// Service holds the pass purchase flow.
type Service struct {
	passRepo    repository.PassRepository
	vehicleRepo repository.VehicleRepository
	tollRepo    repository.TollRepository
	txnRepo     repository.TransactionRepository
	pricing     *pricing.Service
	ids         id.Generator
	clock       clock.Clock
	locks       *lock.Keyed
	logger      logger.Logger
}

// NewService creates a pass service. locks must be the same keyed lock
// the passage validator uses, so a purchase and a passage for one
// (vehicle, toll) never interleave.
func NewService(
	passRepo repository.PassRepository,
	vehicleRepo repository.VehicleRepository,
	tollRepo repository.TollRepository,
	txnRepo repository.TransactionRepository,
	pricingService *pricing.Service,
	ids id.Generator,
	clk clock.Clock,
	locks *lock.Keyed,
	logger logger.Logger,
) *Service {
	return &Service{
		passRepo:    passRepo,
		vehicleRepo: vehicleRepo,
		tollRepo:    tollRepo,
		txnRepo:     txnRepo,
		pricing:     pricingService,
		ids:         ids,
		clock:       clk,
		locks:       locks,
		logger:      logger,
	}
}

// Purchase sells a pass to a vehicle at a toll booth. The pass starts
// active with its lifecycle timestamps unset - the validity window only
// opens on first use.
func (s *Service) Purchase(ctx context.Context, req *PurchaseRequest) (*domain.TollPass, error) {
	now := s.clock.Now()
	vehicleReg := domain.NormalizeRegistration(req.VehicleReg)

	if !req.PassType.IsValid() {
		return nil, domain.ErrInvalidPassType
	}

	vehicle, err := s.vehicleRepo.GetByRegistration(ctx, vehicleReg)
	if err != nil {
		if err == domain.ErrVehicleNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get vehicle: %w", err)
	}

	toll, err := s.tollRepo.GetByID(ctx, req.TollID)
	if err != nil {
		if err == domain.ErrTollNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get toll: %w", err)
	}

	booth := toll.Booth(req.BoothID)
	if booth == nil {
		return nil, domain.ErrBoothNotFound
	}

	// The check-and-create below must not interleave with another
	// purchase or a passage for the same (vehicle, toll), or two
	// concurrent buyers both pass the active-pass check.
	lockKey := vehicleReg + "|" + req.TollID
	s.locks.Lock(lockKey)
	defer s.locks.Unlock(lockKey)

	// One active pass per vehicle per toll. Classify instead of trusting
	// the stored status: an exhausted-but-not-yet-saved status must not
	// block a new purchase, and a stale "active" must not allow a double
	// sale.
	candidates, err := s.passRepo.FindCandidates(ctx, vehicleReg, req.TollID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up existing passes: %w", err)
	}
	for _, existing := range candidates {
		if existing.Classify(now) == domain.PassStatusActive {
			s.logger.Info("Purchase rejected, active pass exists", map[string]interface{}{
				"vehicle_reg": vehicleReg,
				"toll_id":     req.TollID,
				"pass_id":     existing.ID,
			})
			return nil, domain.ErrActivePassExists
		}
	}

	price, err := s.pricing.PriceFor(vehicle.VehicleType, req.PassType)
	if err != nil {
		return nil, err
	}

	newPass := &domain.TollPass{
		ID:            s.ids.NewID(),
		VehicleReg:    vehicleReg,
		TollID:        req.TollID,
		PassType:      req.PassType,
		VehicleType:   vehicle.VehicleType,
		Price:         price,
		PurchasedAt:   now,
		UsesRemaining: req.PassType.Category().Uses,
		Status:        domain.PassStatusActive,
	}

	if err := newPass.Validate(); err != nil {
		return nil, err
	}

	if err := s.passRepo.Create(ctx, newPass); err != nil {
		s.logger.Error("Failed to create pass", map[string]interface{}{
			"vehicle_reg": vehicleReg,
			"error":       err.Error(),
		})
		return nil, fmt.Errorf("failed to create pass: %w", err)
	}

	txn := &domain.Transaction{
		ID:          s.ids.NewID(),
		BoothID:     req.BoothID,
		TollID:      req.TollID,
		VehicleReg:  vehicleReg,
		VehicleType: vehicle.VehicleType,
		Type:        domain.TransactionTypePurchase,
		PassID:      &newPass.ID,
		Amount:      price,
		Timestamp:   now,
	}
	if err := s.txnRepo.Create(ctx, txn); err != nil {
		// The pass is sold; a missing audit row is an operational problem,
		// not a reason to fail the sale.
		s.logger.Error("Failed to record purchase transaction", map[string]interface{}{
			"pass_id": newPass.ID,
			"error":   err.Error(),
		})
	}

	// Purchases add revenue but do not count as a processed vehicle. The
	// increment is relative: other booth writers are not behind this lock.
	if err := s.tollRepo.IncrementBoothStats(ctx, req.TollID, req.BoothID, 0, price); err != nil {
		s.logger.Error("Failed to update booth revenue", map[string]interface{}{
			"toll_id":  req.TollID,
			"booth_id": req.BoothID,
			"error":    err.Error(),
		})
	}

	metrics.ObservePurchase(req.TollID, string(req.PassType))

	s.logger.Info("Pass purchased", map[string]interface{}{
		"pass_id":     newPass.ID,
		"vehicle_reg": vehicleReg,
		"toll_id":     req.TollID,
		"pass_type":   req.PassType,
		"price":       price,
	})

	return newPass, nil
}

// Options lists the purchasable pass types for a vehicle class.
func (s *Service) Options(vehicleType domain.VehicleType) ([]pricing.Option, error) {
	return s.pricing.Options(vehicleType)
}

// GetByID returns a pass with its status freshly classified.
func (s *Service) GetByID(ctx context.Context, passID string) (*domain.TollPass, error) {
	p, err := s.passRepo.GetByID(ctx, passID)
	if err != nil {
		return nil, err
	}
	p.RefreshStatus(s.clock.Now())
	return p, nil
}

// GetByVehicle returns all passes of a vehicle, statuses classified.
func (s *Service) GetByVehicle(ctx context.Context, vehicleReg string) ([]*domain.TollPass, error) {
	passes, err := s.passRepo.GetByVehicle(ctx, domain.NormalizeRegistration(vehicleReg))
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	for _, p := range passes {
		p.RefreshStatus(now)
	}
	return passes, nil
}
