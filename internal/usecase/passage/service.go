package passage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/frontandrew/tollplaza/internal/domain"
	"github.com/frontandrew/tollplaza/internal/pkg/clock"
	"github.com/frontandrew/tollplaza/internal/pkg/id"
	"github.com/frontandrew/tollplaza/internal/pkg/lock"
	"github.com/frontandrew/tollplaza/internal/pkg/logger"
	"github.com/frontandrew/tollplaza/internal/pkg/metrics"
	"github.com/frontandrew/tollplaza/internal/repository"
	"github.com/frontandrew/tollplaza/internal/usecase/pricing"
)

// Denial reasons surfaced to booths. Denied passage is a normal outcome,
// not an error.
const (
	ReasonVehicleNotRegistered = "vehicle not registered"
	ReasonTollNotFound         = "toll not found"
	ReasonBoothNotFound        = "booth not found at toll"
	ReasonNoValidPass          = "no valid pass found for this toll"
)

// EvaluateRequest identifies a passage attempt. The booth is audit
// attribution only and never affects the admission decision.
type EvaluateRequest struct {
	VehicleReg string `json:"vehicle_reg"`
	TollID     string `json:"toll_id"`
	BoothID    string `json:"booth_id"`
}

// PassSnapshot is the post-transition state of the consumed pass.
type PassSnapshot struct {
	PassID        string            `json:"pass_id"`
	PassType      domain.PassType   `json:"pass_type"`
	Status        domain.PassStatus `json:"status"`
	ValidUntil    *time.Time        `json:"valid_until,omitempty"`
	UsesRemaining int               `json:"uses_remaining"`
}

// Decision is the outcome of a passage evaluation. A denied decision
// carries the purchase options so the booth can offer them.
type Decision struct {
	Allowed     bool             `json:"allowed"`
	Reason      string           `json:"reason"`
	Pass        *PassSnapshot    `json:"pass,omitempty"`
	PassOptions []pricing.Option `json:"pass_options,omitempty"`
}

// Service is the passage validator: the single entry point deciding
// whether a vehicle may pass at a toll booth, driving the pass lifecycle
// transitions and producing the audit record.
//
// Stateless between calls except through the passes it reads and writes.
type Service struct {
	passRepo    repository.PassRepository
	vehicleRepo repository.VehicleRepository
	tollRepo    repository.TollRepository
	txnRepo     repository.TransactionRepository
	pricing     *pricing.Service
	ids         id.Generator
	clock       clock.Clock
	locks       *lock.Keyed
	saveRetries int
	logger      logger.Logger
}

// NewService creates a passage service. locks must be the same keyed
// lock the purchase flow uses, so purchases and passages for one
// (vehicle, toll) serialize against each other. saveRetries bounds how
// many times an evaluation is replayed after an optimistic save
// conflict.
func NewService(
	passRepo repository.PassRepository,
	vehicleRepo repository.VehicleRepository,
	tollRepo repository.TollRepository,
	txnRepo repository.TransactionRepository,
	pricingService *pricing.Service,
	ids id.Generator,
	clk clock.Clock,
	locks *lock.Keyed,
	saveRetries int,
	logger logger.Logger,
) *Service {
	if saveRetries < 1 {
		saveRetries = 1
	}
	return &Service{
		passRepo:    passRepo,
		vehicleRepo: vehicleRepo,
		tollRepo:    tollRepo,
		txnRepo:     txnRepo,
		pricing:     pricingService,
		ids:         ids,
		clock:       clk,
		locks:       locks,
		saveRetries: saveRetries,
		logger:      logger,
	}
}

// Evaluate decides a passage attempt.
//
// Candidate passes are scoped to (vehicle, toll): a pass purchased at
// another toll is never considered, however valid. Among active
// candidates the selection is deterministic - a pass already running its
// validity window beats a fresh one, then oldest purchase wins, then pass
// ID breaks any remaining tie.
func (s *Service) Evaluate(ctx context.Context, req *EvaluateRequest) (*Decision, error) {
	started := time.Now()
	now := s.clock.Now()
	vehicleReg := domain.NormalizeRegistration(req.VehicleReg)

	exists, err := s.vehicleRepo.Exists(ctx, vehicleReg)
	if err != nil {
		return nil, fmt.Errorf("failed to check vehicle: %w", err)
	}
	if !exists {
		return s.deny(req.TollID, ReasonVehicleNotRegistered, nil, started), nil
	}

	vehicle, err := s.vehicleRepo.GetByRegistration(ctx, vehicleReg)
	if err != nil {
		return nil, fmt.Errorf("failed to get vehicle: %w", err)
	}

	toll, err := s.tollRepo.GetByID(ctx, req.TollID)
	if err != nil {
		if err == domain.ErrTollNotFound {
			return s.deny(req.TollID, ReasonTollNotFound, nil, started), nil
		}
		return nil, fmt.Errorf("failed to get toll: %w", err)
	}

	booth := toll.Booth(req.BoothID)
	if booth == nil {
		return s.deny(req.TollID, ReasonBoothNotFound, nil, started), nil
	}

	// Exclusion boundary: concurrent attempts touching the same candidate
	// set serialize here, so a pass can never be activated twice or spent
	// below zero.
	lockKey := vehicleReg + "|" + req.TollID
	s.locks.Lock(lockKey)
	defer s.locks.Unlock(lockKey)

	var decision *Decision
	for attempt := 1; ; attempt++ {
		decision, err = s.evaluateLocked(ctx, vehicleReg, vehicle.VehicleType, req, now)
		if err == nil {
			break
		}
		if !errors.Is(err, domain.ErrSaveConflict) {
			return nil, err
		}
		metrics.ObserveSaveConflict()
		if attempt >= s.saveRetries {
			// Never re-save stale data: the whole evaluate-and-mutate
			// sequence either replays or fails.
			return nil, fmt.Errorf("passage evaluation after %d attempts: %w", attempt, err)
		}
		s.logger.Warn("Pass save conflict, retrying evaluation", map[string]interface{}{
			"vehicle_reg": vehicleReg,
			"toll_id":     req.TollID,
			"attempt":     attempt,
		})
	}

	metrics.ObservePassage(req.TollID, decision.Allowed, time.Since(started))
	return decision, nil
}

// deny builds a pre-candidate denial (unknown vehicle, toll or booth) and
// records it in the metrics.
func (s *Service) deny(tollID, reason string, options []pricing.Option, started time.Time) *Decision {
	metrics.ObserveDenial(tollID, reason)
	metrics.ObservePassage(tollID, false, time.Since(started))
	return &Decision{
		Allowed:     false,
		Reason:      reason,
		PassOptions: options,
	}
}

// evaluateLocked runs one evaluate-and-mutate sequence. Caller holds the
// (vehicle, toll) lock. Returns domain.ErrSaveConflict when another
// writer won the version check, so the caller can replay from a fresh
// read.
func (s *Service) evaluateLocked(
	ctx context.Context,
	vehicleReg string,
	vehicleType domain.VehicleType,
	req *EvaluateRequest,
	now time.Time,
) (*Decision, error) {
	candidates, err := s.passRepo.FindCandidates(ctx, vehicleReg, req.TollID)
	if err != nil {
		return nil, fmt.Errorf("failed to find candidate passes: %w", err)
	}

	selected := selectPass(candidates, now)
	if selected == nil {
		options, optErr := s.pricing.Options(vehicleType)
		if optErr != nil {
			options = nil
		}
		s.logger.Info("Passage denied, no valid pass", map[string]interface{}{
			"vehicle_reg": vehicleReg,
			"toll_id":     req.TollID,
			"candidates":  len(candidates),
		})
		metrics.ObserveDenial(req.TollID, ReasonNoValidPass)
		return &Decision{
			Allowed:     false,
			Reason:      ReasonNoValidPass,
			PassOptions: options,
		}, nil
	}

	// First admissible use opens the validity window. This is the only
	// place activation happens.
	if !selected.Activated() {
		if err := selected.Activate(now); err != nil {
			return nil, s.invariantViolation("activation of an activated pass", selected, err)
		}
	}

	if err := selected.ConsumeUse(); err != nil {
		return nil, s.invariantViolation("use consumed on exhausted pass", selected, err)
	}

	selected.RefreshStatus(now)

	if err := s.passRepo.Update(ctx, selected); err != nil {
		if errors.Is(err, domain.ErrSaveConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to save pass: %w", err)
	}

	txn := &domain.Transaction{
		ID:          s.ids.NewID(),
		BoothID:     req.BoothID,
		TollID:      req.TollID,
		VehicleReg:  vehicleReg,
		VehicleType: vehicleType,
		Type:        domain.TransactionTypePassage,
		PassID:      &selected.ID,
		Amount:      0, // cost was paid at purchase
		Timestamp:   now,
	}
	if err := s.txnRepo.Create(ctx, txn); err != nil {
		// The pass is already spent and the vehicle admitted; failing the
		// evaluation here would deny a paid-for passage. Audit is
		// at-most-once: a missing record is an operational problem, not a
		// reason to revoke the admission.
		s.logger.Error("Failed to record passage transaction", map[string]interface{}{
			"pass_id": selected.ID,
			"error":   err.Error(),
		})
	}

	// Relative increment: the (vehicle, toll) lock does not cover other
	// vehicles at this booth, so the counter must not be read-modify-written.
	if err := s.tollRepo.IncrementBoothStats(ctx, req.TollID, req.BoothID, 1, 0); err != nil {
		s.logger.Error("Failed to update booth counters", map[string]interface{}{
			"toll_id":  req.TollID,
			"booth_id": req.BoothID,
			"error":    err.Error(),
		})
	}

	s.logger.Info("Passage allowed", map[string]interface{}{
		"vehicle_reg":    vehicleReg,
		"toll_id":        req.TollID,
		"booth_id":       req.BoothID,
		"pass_id":        selected.ID,
		"uses_remaining": selected.UsesRemaining,
		"status":         selected.Status,
	})

	return &Decision{
		Allowed: true,
		Reason:  "passage allowed",
		Pass: &PassSnapshot{
			PassID:        selected.ID,
			PassType:      selected.PassType,
			Status:        selected.Status,
			ValidUntil:    selected.ValidUntil,
			UsesRemaining: selected.UsesRemaining,
		},
	}, nil
}

// selectPass filters candidates down to active passes and picks exactly
// one. Terminal passes (expired, exhausted) are never re-admitted.
//
// Ordering: activated before fresh, then earliest purchase, then pass ID.
func selectPass(candidates []*domain.TollPass, now time.Time) *domain.TollPass {
	var active []*domain.TollPass
	for _, p := range candidates {
		if p.Classify(now) == domain.PassStatusActive {
			active = append(active, p)
		}
	}
	if len(active) == 0 {
		return nil
	}

	sort.Slice(active, func(i, j int) bool {
		if active[i].Activated() != active[j].Activated() {
			return active[i].Activated()
		}
		if !active[i].PurchasedAt.Equal(active[j].PurchasedAt) {
			return active[i].PurchasedAt.Before(active[j].PurchasedAt)
		}
		return active[i].ID < active[j].ID
	})

	return active[0]
}

// invariantViolation surfaces a broken candidate-filtering invariant
// loudly: full pass state in the log, error to the caller, never a silent
// denial.
func (s *Service) invariantViolation(what string, p *domain.TollPass, err error) error {
	s.logger.Error("Passage invariant violation: "+what, map[string]interface{}{
		"pass_id":        p.ID,
		"vehicle_reg":    p.VehicleReg,
		"toll_id":        p.TollID,
		"pass_type":      p.PassType,
		"first_used_at":  p.FirstUsedAt,
		"valid_until":    p.ValidUntil,
		"uses_remaining": p.UsesRemaining,
		"status":         p.Status,
	})
	return fmt.Errorf("passage invariant violation (%s): %w", what, err)
}
