package repository

import (
	"context"

	"github.com/frontandrew/tollplaza/internal/domain"
)

// VehicleRepository defines vehicle data access.
type VehicleRepository interface {
	// Create registers a new vehicle.
	Create(ctx context.Context, vehicle *domain.Vehicle) error

	// GetByRegistration returns a vehicle by registration number.
	GetByRegistration(ctx context.Context, reg string) (*domain.Vehicle, error)

	// Exists reports whether a vehicle is registered.
	Exists(ctx context.Context, reg string) (bool, error)

	// List returns vehicles with pagination.
	List(ctx context.Context, limit, offset int) ([]*domain.Vehicle, error)
}

// TollRepository defines toll plaza data access.
type TollRepository interface {
	// Create stores a toll together with its booths.
	Create(ctx context.Context, toll *domain.Toll) error

	// GetByID returns a toll with its booths.
	GetByID(ctx context.Context, id string) (*domain.Toll, error)

	// Exists reports whether a toll is known.
	Exists(ctx context.Context, id string) (bool, error)

	// List returns all tolls with their booths.
	List(ctx context.Context) ([]*domain.Toll, error)

	// Count returns the number of tolls. Used by startup seeding.
	Count(ctx context.Context) (int, error)

	// IncrementBoothStats adds the deltas to a booth's counters. The
	// write is relative so concurrent passages and purchases at the same
	// booth never overwrite each other's increments.
	IncrementBoothStats(ctx context.Context, tollID, boothID string, vehiclesDelta, chargesDelta int64) error

	// ListBoothStats returns every booth across all tolls. Feeds the
	// leaderboard.
	ListBoothStats(ctx context.Context) ([]*domain.TollBooth, error)
}

// PassRepository defines toll pass data access.
type PassRepository interface {
	// Create stores a freshly purchased pass.
	Create(ctx context.Context, pass *domain.TollPass) error

	// GetByID returns a pass by ID.
	GetByID(ctx context.Context, id string) (*domain.TollPass, error)

	// FindCandidates returns all passes for a vehicle at a toll,
	// regardless of status. The key lookup of passage evaluation: passes
	// at other tolls are never returned.
	FindCandidates(ctx context.Context, vehicleReg, tollID string) ([]*domain.TollPass, error)

	// GetByVehicle returns all passes of a vehicle across tolls.
	GetByVehicle(ctx context.Context, vehicleReg string) ([]*domain.TollPass, error)

	// Update persists pass state with an optimistic version check:
	// returns domain.ErrSaveConflict when the stored version does not
	// match pass.Version. On success pass.Version is advanced.
	Update(ctx context.Context, pass *domain.TollPass) error
}

// TransactionRepository is the append-only audit sink. Records are created
// once and never updated or deleted; the reads exist for reporting only
// and are never consulted for admission decisions.
type TransactionRepository interface {
	// Create appends an audit record.
	Create(ctx context.Context, txn *domain.Transaction) error

	// GetByID returns a transaction by ID.
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)

	// ListByVehicle returns a vehicle's transactions, newest first.
	ListByVehicle(ctx context.Context, vehicleReg string, limit, offset int) ([]*domain.Transaction, error)

	// ListByToll returns a toll's transactions, newest first.
	ListByToll(ctx context.Context, tollID string, limit, offset int) ([]*domain.Transaction, error)
}
