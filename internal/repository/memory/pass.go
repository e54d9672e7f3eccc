package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/frontandrew/tollplaza/internal/domain"
	"github.com/frontandrew/tollplaza/internal/repository"
)

// PassRepository is an in-memory PassRepository with the same optimistic
// version semantics as the postgres implementation. Used in tests.
type PassRepository struct {
	mu     sync.RWMutex
	passes map[string]*domain.TollPass
}

func NewPassRepository() *PassRepository {
	return &PassRepository{passes: make(map[string]*domain.TollPass)}
}

var _ repository.PassRepository = (*PassRepository)(nil)

func (r *PassRepository) Create(_ context.Context, pass *domain.TollPass) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	pass.Version = 1
	r.passes[pass.ID] = clonePass(pass)
	return nil
}

func (r *PassRepository) GetByID(_ context.Context, id string) (*domain.TollPass, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pass, ok := r.passes[id]
	if !ok {
		return nil, domain.ErrPassNotFound
	}
	return clonePass(pass), nil
}

func (r *PassRepository) FindCandidates(_ context.Context, vehicleReg, tollID string) ([]*domain.TollPass, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*domain.TollPass
	for _, pass := range r.passes {
		if pass.VehicleReg == vehicleReg && pass.TollID == tollID {
			out = append(out, clonePass(pass))
		}
	}
	sortPasses(out)
	return out, nil
}

func (r *PassRepository) GetByVehicle(_ context.Context, vehicleReg string) ([]*domain.TollPass, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*domain.TollPass
	for _, pass := range r.passes {
		if pass.VehicleReg == vehicleReg {
			out = append(out, clonePass(pass))
		}
	}
	sortPasses(out)
	return out, nil
}

func (r *PassRepository) Update(_ context.Context, pass *domain.TollPass) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.passes[pass.ID]
	if !ok {
		return domain.ErrPassNotFound
	}
	if stored.Version != pass.Version {
		return domain.ErrSaveConflict
	}

	pass.Version++
	r.passes[pass.ID] = clonePass(pass)
	return nil
}

func sortPasses(passes []*domain.TollPass) {
	sort.Slice(passes, func(i, j int) bool {
		if !passes[i].PurchasedAt.Equal(passes[j].PurchasedAt) {
			return passes[i].PurchasedAt.Before(passes[j].PurchasedAt)
		}
		return passes[i].ID < passes[j].ID
	})
}

func clonePass(p *domain.TollPass) *domain.TollPass {
	c := *p
	if p.FirstUsedAt != nil {
		t := *p.FirstUsedAt
		c.FirstUsedAt = &t
	}
	if p.ValidUntil != nil {
		t := *p.ValidUntil
		c.ValidUntil = &t
	}
	return &c
}
