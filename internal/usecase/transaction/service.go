package transaction

import (
	"context"

	"github.com/frontandrew/tollplaza/internal/domain"
	"github.com/frontandrew/tollplaza/internal/repository"
)

// Service exposes the audit trail for reporting. Reads only - the audit
// log is append-only and is written exclusively by the purchase and
// passage flows.
type Service struct {
	txnRepo repository.TransactionRepository
}

// NewService creates a transaction query service.
func NewService(txnRepo repository.TransactionRepository) *Service {
	return &Service{txnRepo: txnRepo}
}

// ListByVehicle returns a vehicle's transactions, newest first.
func (s *Service) ListByVehicle(ctx context.Context, vehicleReg string, limit, offset int) ([]*domain.Transaction, error) {
	return s.txnRepo.ListByVehicle(ctx, domain.NormalizeRegistration(vehicleReg), limit, offset)
}

// ListByToll returns a toll's transactions, newest first.
func (s *Service) ListByToll(ctx context.Context, tollID string, limit, offset int) ([]*domain.Transaction, error) {
	return s.txnRepo.ListByToll(ctx, tollID, limit, offset)
}
