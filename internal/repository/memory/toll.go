package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/frontandrew/tollplaza/internal/domain"
	"github.com/frontandrew/tollplaza/internal/repository"
)

// TollRepository is an in-memory TollRepository for tests.
type TollRepository struct {
	mu    sync.RWMutex
	tolls map[string]*domain.Toll
}

func NewTollRepository() *TollRepository {
	return &TollRepository{tolls: make(map[string]*domain.Toll)}
}

var _ repository.TollRepository = (*TollRepository)(nil)

func (r *TollRepository) Create(_ context.Context, toll *domain.Toll) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tolls[toll.ID]; ok {
		return domain.ErrTollAlreadyExists
	}
	for _, booth := range toll.Booths {
		booth.TollID = toll.ID
	}
	r.tolls[toll.ID] = cloneToll(toll)
	return nil
}

func (r *TollRepository) GetByID(_ context.Context, id string) (*domain.Toll, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	toll, ok := r.tolls[id]
	if !ok {
		return nil, domain.ErrTollNotFound
	}
	return cloneToll(toll), nil
}

func (r *TollRepository) Exists(_ context.Context, id string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.tolls[id]
	return ok, nil
}

func (r *TollRepository) List(_ context.Context) ([]*domain.Toll, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*domain.Toll
	for _, toll := range r.tolls {
		out = append(out, cloneToll(toll))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *TollRepository) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.tolls), nil
}

func (r *TollRepository) IncrementBoothStats(_ context.Context, tollID, boothID string, vehiclesDelta, chargesDelta int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	toll, ok := r.tolls[tollID]
	if !ok {
		return domain.ErrBoothNotFound
	}
	for _, b := range toll.Booths {
		if b.ID == boothID {
			b.VehiclesProcessed += vehiclesDelta
			b.TotalChargesCollected += chargesDelta
			return nil
		}
	}
	return domain.ErrBoothNotFound
}

func (r *TollRepository) ListBoothStats(_ context.Context) ([]*domain.TollBooth, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*domain.TollBooth
	for _, toll := range r.tolls {
		for _, booth := range toll.Booths {
			c := *booth
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TollID != out[j].TollID {
			return out[i].TollID < out[j].TollID
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func cloneToll(t *domain.Toll) *domain.Toll {
	c := *t
	c.Booths = make([]*domain.TollBooth, len(t.Booths))
	for i, booth := range t.Booths {
		b := *booth
		c.Booths[i] = &b
	}
	return &c
}
