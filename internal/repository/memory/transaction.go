package memory

import (
	"context"
	"sync"

	"github.com/frontandrew/tollplaza/internal/domain"
	"github.com/frontandrew/tollplaza/internal/repository"
)

// TransactionRepository is an in-memory append-only audit sink for tests.
type TransactionRepository struct {
	mu   sync.RWMutex
	txns []*domain.Transaction
}

func NewTransactionRepository() *TransactionRepository {
	return &TransactionRepository{}
}

var _ repository.TransactionRepository = (*TransactionRepository)(nil)

func (r *TransactionRepository) Create(_ context.Context, txn *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := *txn
	r.txns = append(r.txns, &c)
	return nil
}

func (r *TransactionRepository) GetByID(_ context.Context, id string) (*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, txn := range r.txns {
		if txn.ID == id {
			c := *txn
			return &c, nil
		}
	}
	return nil, domain.ErrTransactionNotFound
}

func (r *TransactionRepository) ListByVehicle(_ context.Context, vehicleReg string, limit, offset int) ([]*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.filter(func(t *domain.Transaction) bool { return t.VehicleReg == vehicleReg }, limit, offset), nil
}

func (r *TransactionRepository) ListByToll(_ context.Context, tollID string, limit, offset int) ([]*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.filter(func(t *domain.Transaction) bool { return t.TollID == tollID }, limit, offset), nil
}

// All returns every recorded transaction in insertion order. Test helper.
func (r *TransactionRepository) All() []*domain.Transaction {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Transaction, len(r.txns))
	for i, txn := range r.txns {
		c := *txn
		out[i] = &c
	}
	return out
}

// filter walks newest-first to match the postgres ORDER BY created_at DESC.
func (r *TransactionRepository) filter(match func(*domain.Transaction) bool, limit, offset int) []*domain.Transaction {
	var out []*domain.Transaction
	for i := len(r.txns) - 1; i >= 0; i-- {
		if match(r.txns[i]) {
			c := *r.txns[i]
			out = append(out, &c)
		}
	}

	if offset >= len(out) {
		return nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out
}
