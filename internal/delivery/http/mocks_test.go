package http

import (
	"context"

	"github.com/frontandrew/tollplaza/internal/domain"
	"github.com/frontandrew/tollplaza/internal/usecase/leaderboard"
	"github.com/frontandrew/tollplaza/internal/usecase/pass"
	"github.com/frontandrew/tollplaza/internal/usecase/passage"
	"github.com/frontandrew/tollplaza/internal/usecase/pricing"
	"github.com/frontandrew/tollplaza/internal/usecase/vehicle"
	"github.com/stretchr/testify/mock"
)

type MockVehicleService struct {
	mock.Mock
}

func (m *MockVehicleService) Register(ctx context.Context, req *vehicle.RegisterRequest) (*domain.Vehicle, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Vehicle), args.Error(1)
}

func (m *MockVehicleService) GetByRegistration(ctx context.Context, reg string) (*domain.Vehicle, error) {
	args := m.Called(ctx, reg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Vehicle), args.Error(1)
}

func (m *MockVehicleService) List(ctx context.Context, limit, offset int) ([]*domain.Vehicle, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Vehicle), args.Error(1)
}

type MockPassService struct {
	mock.Mock
}

func (m *MockPassService) Purchase(ctx context.Context, req *pass.PurchaseRequest) (*domain.TollPass, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TollPass), args.Error(1)
}

func (m *MockPassService) Options(vehicleType domain.VehicleType) ([]pricing.Option, error) {
	args := m.Called(vehicleType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]pricing.Option), args.Error(1)
}

func (m *MockPassService) GetByID(ctx context.Context, passID string) (*domain.TollPass, error) {
	args := m.Called(ctx, passID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TollPass), args.Error(1)
}

func (m *MockPassService) GetByVehicle(ctx context.Context, vehicleReg string) ([]*domain.TollPass, error) {
	args := m.Called(ctx, vehicleReg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.TollPass), args.Error(1)
}

type MockPassageService struct {
	mock.Mock
}

func (m *MockPassageService) Evaluate(ctx context.Context, req *passage.EvaluateRequest) (*passage.Decision, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*passage.Decision), args.Error(1)
}

type MockLeaderboardService struct {
	mock.Mock
}

func (m *MockLeaderboardService) Get(ctx context.Context, metric string) ([]leaderboard.Entry, error) {
	args := m.Called(ctx, metric)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]leaderboard.Entry), args.Error(1)
}

type MockTransactionService struct {
	mock.Mock
}

func (m *MockTransactionService) ListByVehicle(ctx context.Context, vehicleReg string, limit, offset int) ([]*domain.Transaction, error) {
	args := m.Called(ctx, vehicleReg, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Transaction), args.Error(1)
}

func (m *MockTransactionService) ListByToll(ctx context.Context, tollID string, limit, offset int) ([]*domain.Transaction, error) {
	args := m.Called(ctx, tollID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Transaction), args.Error(1)
}
