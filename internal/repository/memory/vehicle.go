package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/frontandrew/tollplaza/internal/domain"
	"github.com/frontandrew/tollplaza/internal/repository"
)

// VehicleRepository is an in-memory VehicleRepository for tests.
type VehicleRepository struct {
	mu       sync.RWMutex
	vehicles map[string]*domain.Vehicle
}

func NewVehicleRepository() *VehicleRepository {
	return &VehicleRepository{vehicles: make(map[string]*domain.Vehicle)}
}

var _ repository.VehicleRepository = (*VehicleRepository)(nil)

func (r *VehicleRepository) Create(_ context.Context, vehicle *domain.Vehicle) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.vehicles[vehicle.RegistrationNumber]; ok {
		return domain.ErrVehicleAlreadyExists
	}
	if vehicle.CreatedAt.IsZero() {
		vehicle.CreatedAt = time.Now()
	}
	c := *vehicle
	r.vehicles[vehicle.RegistrationNumber] = &c
	return nil
}

func (r *VehicleRepository) GetByRegistration(_ context.Context, reg string) (*domain.Vehicle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	vehicle, ok := r.vehicles[reg]
	if !ok {
		return nil, domain.ErrVehicleNotFound
	}
	c := *vehicle
	return &c, nil
}

func (r *VehicleRepository) Exists(_ context.Context, reg string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.vehicles[reg]
	return ok, nil
}

func (r *VehicleRepository) List(_ context.Context, limit, offset int) ([]*domain.Vehicle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*domain.Vehicle
	for _, vehicle := range r.vehicles {
		c := *vehicle
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].RegistrationNumber < out[j].RegistrationNumber
	})

	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}
