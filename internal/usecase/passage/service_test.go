package passage

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/frontandrew/tollplaza/internal/domain"
	"github.com/frontandrew/tollplaza/internal/pkg/clock"
	"github.com/frontandrew/tollplaza/internal/pkg/id"
	"github.com/frontandrew/tollplaza/internal/pkg/lock"
	"github.com/frontandrew/tollplaza/internal/pkg/logger"
	"github.com/frontandrew/tollplaza/internal/repository"
	"github.com/frontandrew/tollplaza/internal/repository/memory"
	"github.com/frontandrew/tollplaza/internal/usecase/pricing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

var monday9am = time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

type fixture struct {
	passRepo    *memory.PassRepository
	vehicleRepo *memory.VehicleRepository
	tollRepo    *memory.TollRepository
	txnRepo     *memory.TransactionRepository
	ids         *id.Sequence
	locks       *lock.Keyed
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		passRepo:    memory.NewPassRepository(),
		vehicleRepo: memory.NewVehicleRepository(),
		tollRepo:    memory.NewTollRepository(),
		txnRepo:     memory.NewTransactionRepository(),
		ids:         &id.Sequence{Prefix: "txn"},
		locks:       lock.NewKeyed(),
	}

	ctx := context.Background()
	require.NoError(t, f.vehicleRepo.Create(ctx, &domain.Vehicle{
		RegistrationNumber: "MH12AB1234",
		VehicleType:        domain.VehicleTypeFourWheeler,
	}))
	require.NoError(t, f.tollRepo.Create(ctx, &domain.Toll{
		ID:   "T1",
		Name: "Expressway Toll",
		Booths: []*domain.TollBooth{
			{ID: "T1-B1", Name: "Booth 1"},
			{ID: "T1-B2", Name: "Booth 2"},
		},
	}))
	require.NoError(t, f.tollRepo.Create(ctx, &domain.Toll{
		ID:   "T2",
		Name: "City Toll",
		Booths: []*domain.TollBooth{
			{ID: "T2-B1", Name: "Booth 1"},
		},
	}))
	return f
}

// service builds a validator frozen at the given instant. Repositories are
// shared across calls, so a scenario advances time by asking for a new
// service per step.
func (f *fixture) service(at time.Time) *Service {
	return f.serviceWithPassRepo(f.passRepo, at)
}

func (f *fixture) serviceWithPassRepo(passRepo repository.PassRepository, at time.Time) *Service {
	return NewService(
		passRepo,
		f.vehicleRepo,
		f.tollRepo,
		f.txnRepo,
		pricing.NewService(),
		f.ids,
		clock.NewFixed(at),
		f.locks,
		3,
		logger.NewNoop(),
	)
}

// addPass stores a freshly purchased pass.
func (f *fixture) addPass(t *testing.T, passID string, passType domain.PassType, purchasedAt time.Time) *domain.TollPass {
	t.Helper()

	p := &domain.TollPass{
		ID:            passID,
		VehicleReg:    "MH12AB1234",
		TollID:        "T1",
		PassType:      passType,
		VehicleType:   domain.VehicleTypeFourWheeler,
		Price:         150,
		PurchasedAt:   purchasedAt,
		UsesRemaining: passType.Category().Uses,
		Status:        domain.PassStatusActive,
	}
	require.NoError(t, f.passRepo.Create(context.Background(), p))
	return p
}

func evalRequest() *EvaluateRequest {
	return &EvaluateRequest{
		VehicleReg: "MH12AB1234",
		TollID:     "T1",
		BoothID:    "T1-B1",
	}
}

func TestService_Evaluate_ReturnPassLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Return pass bought Monday 09:00, not yet used.
	f.addPass(t, "pass-1", domain.PassTypeReturn, monday9am)

	// First use Monday 14:00: window opens at use time, not purchase time.
	firstUse := monday9am.Add(5 * time.Hour)
	decision, err := f.service(firstUse).Evaluate(ctx, evalRequest())
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	require.NotNil(t, decision.Pass)
	assert.Equal(t, "pass-1", decision.Pass.PassID)
	assert.Equal(t, 1, decision.Pass.UsesRemaining)
	require.NotNil(t, decision.Pass.ValidUntil)
	assert.Equal(t, firstUse.Add(24*time.Hour), *decision.Pass.ValidUntil)

	// Second use Monday 20:00: last use is spent, pass goes exhausted.
	secondUse := monday9am.Add(11 * time.Hour)
	decision, err = f.service(secondUse).Evaluate(ctx, evalRequest())
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Equal(t, 0, decision.Pass.UsesRemaining)
	assert.Equal(t, domain.PassStatusExhausted, decision.Pass.Status)
	// The window stays anchored to the first use.
	assert.Equal(t, firstUse.Add(24*time.Hour), *decision.Pass.ValidUntil)

	// Tuesday 08:00: exhausted pass is never re-admitted, booth gets the
	// purchase options to offer.
	thirdTry := monday9am.Add(23 * time.Hour)
	decision, err = f.service(thirdTry).Evaluate(ctx, evalRequest())
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, ReasonNoValidPass, decision.Reason)
	assert.Nil(t, decision.Pass)
	require.Len(t, decision.PassOptions, 3)
	assert.Equal(t, int64(100), decision.PassOptions[0].Price)
}

func TestService_Evaluate_NeverUsedPassCannotExpire(t *testing.T) {
	f := newFixture(t)

	// Single pass bought Monday, never used.
	f.addPass(t, "pass-1", domain.PassTypeSingle, monday9am)

	// Wednesday, way past the one-hour window had it started: still good.
	wednesday := monday9am.Add(48 * time.Hour)
	decision, err := f.service(wednesday).Evaluate(context.Background(), evalRequest())
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	require.NotNil(t, decision.Pass.ValidUntil)
	assert.Equal(t, wednesday.Add(time.Hour), *decision.Pass.ValidUntil)
}

func TestService_Evaluate_SevenDayPassUnlimitedUses(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.addPass(t, "pass-1", domain.PassTypeSevenDay, monday9am)

	for i := 0; i < 5; i++ {
		at := monday9am.Add(time.Duration(i*24) * time.Hour)
		decision, err := f.service(at).Evaluate(ctx, evalRequest())
		require.NoError(t, err)
		assert.True(t, decision.Allowed)
		assert.Equal(t, domain.UnlimitedUses, decision.Pass.UsesRemaining)
	}

	// Day eight: the window has closed.
	decision, err := f.service(monday9am.Add(8 * 24 * time.Hour)).Evaluate(ctx, evalRequest())
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
}

func TestService_Evaluate_Denials(t *testing.T) {
	tests := []struct {
		name     string
		request  *EvaluateRequest
		expected string
	}{
		{
			name:     "unregistered vehicle",
			request:  &EvaluateRequest{VehicleReg: "DL01XX0000", TollID: "T1", BoothID: "T1-B1"},
			expected: ReasonVehicleNotRegistered,
		},
		{
			name:     "unknown toll",
			request:  &EvaluateRequest{VehicleReg: "MH12AB1234", TollID: "T9", BoothID: "T9-B1"},
			expected: ReasonTollNotFound,
		},
		{
			name:     "booth at a different toll",
			request:  &EvaluateRequest{VehicleReg: "MH12AB1234", TollID: "T1", BoothID: "T2-B1"},
			expected: ReasonBoothNotFound,
		},
		{
			name:     "no pass at all",
			request:  evalRequest(),
			expected: ReasonNoValidPass,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			decision, err := f.service(monday9am).Evaluate(context.Background(), tt.request)
			require.NoError(t, err)
			assert.False(t, decision.Allowed)
			assert.Equal(t, tt.expected, decision.Reason)
			assert.Nil(t, decision.Pass)
		})
	}
}

func TestService_Evaluate_PassScopedToToll(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Valid pass, but for toll T2.
	require.NoError(t, f.passRepo.Create(ctx, &domain.TollPass{
		ID:            "pass-1",
		VehicleReg:    "MH12AB1234",
		TollID:        "T2",
		PassType:      domain.PassTypeSevenDay,
		VehicleType:   domain.VehicleTypeFourWheeler,
		Price:         500,
		PurchasedAt:   monday9am,
		UsesRemaining: domain.UnlimitedUses,
		Status:        domain.PassStatusActive,
	}))

	decision, err := f.service(monday9am.Add(time.Hour)).Evaluate(ctx, evalRequest())
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, ReasonNoValidPass, decision.Reason)
}

func TestService_Evaluate_Selection(t *testing.T) {
	t.Run("activated pass beats a fresh one", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()

		// Fresh pass purchased earlier, activated pass purchased later.
		f.addPass(t, "pass-fresh", domain.PassTypeReturn, monday9am)
		activated := f.addPass(t, "pass-activated", domain.PassTypeReturn, monday9am.Add(time.Hour))
		require.NoError(t, activated.Activate(monday9am.Add(2*time.Hour)))
		require.NoError(t, f.passRepo.Update(ctx, activated))

		decision, err := f.service(monday9am.Add(3 * time.Hour)).Evaluate(ctx, evalRequest())
		require.NoError(t, err)
		require.True(t, decision.Allowed)
		assert.Equal(t, "pass-activated", decision.Pass.PassID)
	})

	t.Run("earliest purchase wins among fresh passes", func(t *testing.T) {
		f := newFixture(t)

		f.addPass(t, "pass-late", domain.PassTypeReturn, monday9am.Add(time.Hour))
		f.addPass(t, "pass-early", domain.PassTypeReturn, monday9am)

		decision, err := f.service(monday9am.Add(2 * time.Hour)).Evaluate(context.Background(), evalRequest())
		require.NoError(t, err)
		require.True(t, decision.Allowed)
		assert.Equal(t, "pass-early", decision.Pass.PassID)
	})

	t.Run("pass ID breaks a purchase-time tie", func(t *testing.T) {
		f := newFixture(t)

		f.addPass(t, "pass-b", domain.PassTypeReturn, monday9am)
		f.addPass(t, "pass-a", domain.PassTypeReturn, monday9am)

		decision, err := f.service(monday9am.Add(time.Hour)).Evaluate(context.Background(), evalRequest())
		require.NoError(t, err)
		require.True(t, decision.Allowed)
		assert.Equal(t, "pass-a", decision.Pass.PassID)
	})

	t.Run("terminal passes are skipped", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()

		// Exhausted pass purchased first, live pass after it.
		exhausted := f.addPass(t, "pass-exhausted", domain.PassTypeSingle, monday9am)
		require.NoError(t, exhausted.Activate(monday9am))
		require.NoError(t, exhausted.ConsumeUse())
		require.NoError(t, f.passRepo.Update(ctx, exhausted))

		f.addPass(t, "pass-live", domain.PassTypeReturn, monday9am.Add(time.Hour))

		decision, err := f.service(monday9am.Add(2 * time.Hour)).Evaluate(ctx, evalRequest())
		require.NoError(t, err)
		require.True(t, decision.Allowed)
		assert.Equal(t, "pass-live", decision.Pass.PassID)
	})
}

func TestService_Evaluate_SideEffects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.addPass(t, "pass-1", domain.PassTypeReturn, monday9am)

	decision, err := f.service(monday9am.Add(time.Hour)).Evaluate(ctx, evalRequest())
	require.NoError(t, err)
	require.True(t, decision.Allowed)

	// Booth counter moved, revenue did not: passage is prepaid.
	toll, err := f.tollRepo.GetByID(ctx, "T1")
	require.NoError(t, err)
	booth := toll.Booth("T1-B1")
	require.NotNil(t, booth)
	assert.Equal(t, int64(1), booth.VehiclesProcessed)
	assert.Equal(t, int64(0), booth.TotalChargesCollected)

	// Audit record with zero amount linked to the pass.
	txns := f.txnRepo.All()
	require.Len(t, txns, 1)
	assert.Equal(t, domain.TransactionTypePassage, txns[0].Type)
	assert.Equal(t, int64(0), txns[0].Amount)
	require.NotNil(t, txns[0].PassID)
	assert.Equal(t, "pass-1", *txns[0].PassID)
	assert.Equal(t, "T1-B1", txns[0].BoothID)
}

// conflictingPassRepo fails the first Update with a save conflict, then
// delegates. Exercises the bounded replay.
type conflictingPassRepo struct {
	repository.PassRepository
	mu        sync.Mutex
	conflicts int
}

func (r *conflictingPassRepo) Update(ctx context.Context, pass *domain.TollPass) error {
	r.mu.Lock()
	if r.conflicts > 0 {
		r.conflicts--
		r.mu.Unlock()
		return domain.ErrSaveConflict
	}
	r.mu.Unlock()
	return r.PassRepository.Update(ctx, pass)
}

func TestService_Evaluate_RetriesOnSaveConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.addPass(t, "pass-1", domain.PassTypeReturn, monday9am)
	repo := &conflictingPassRepo{PassRepository: f.passRepo, conflicts: 2}

	decision, err := f.serviceWithPassRepo(repo, monday9am.Add(time.Hour)).Evaluate(ctx, evalRequest())
	require.NoError(t, err)
	assert.True(t, decision.Allowed)

	// The replay re-read the pass: exactly one use was spent.
	stored, err := f.passRepo.GetByID(ctx, "pass-1")
	require.NoError(t, err)
	assert.Equal(t, 1, stored.UsesRemaining)
}

func TestService_Evaluate_FailsAfterRetryBudget(t *testing.T) {
	f := newFixture(t)

	f.addPass(t, "pass-1", domain.PassTypeReturn, monday9am)
	repo := &conflictingPassRepo{PassRepository: f.passRepo, conflicts: 100}

	_, err := f.serviceWithPassRepo(repo, monday9am.Add(time.Hour)).Evaluate(context.Background(), evalRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSaveConflict)
}

func TestService_Evaluate_ConcurrentSingleUse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// One use available, many booths racing for it.
	f.addPass(t, "pass-1", domain.PassTypeSingle, monday9am)
	svc := f.service(monday9am.Add(time.Hour))

	const attempts = 16
	decisions := make([]*Decision, attempts)

	var g errgroup.Group
	for i := 0; i < attempts; i++ {
		i := i
		g.Go(func() error {
			decision, err := svc.Evaluate(ctx, evalRequest())
			if err != nil {
				return err
			}
			decisions[i] = decision
			return nil
		})
	}
	require.NoError(t, g.Wait())

	allowed := 0
	for _, d := range decisions {
		if d.Allowed {
			allowed++
		}
	}
	assert.Equal(t, 1, allowed, "exactly one racer may spend the single use")

	stored, err := f.passRepo.GetByID(ctx, "pass-1")
	require.NoError(t, err)
	assert.Equal(t, 0, stored.UsesRemaining)
	require.NotNil(t, stored.FirstUsedAt)

	// One passage, one audit record.
	assert.Len(t, f.txnRepo.All(), 1)
}

func TestService_Evaluate_ConcurrentVehiclesShareBoothCounter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Two vehicles, two unlimited passes, one booth. The vehicles lock on
	// different keys, so their booth increments genuinely race.
	require.NoError(t, f.vehicleRepo.Create(ctx, &domain.Vehicle{
		RegistrationNumber: "MH14CD5678",
		VehicleType:        domain.VehicleTypeTwoWheeler,
	}))
	f.addPass(t, "pass-1", domain.PassTypeSevenDay, monday9am)
	require.NoError(t, f.passRepo.Create(ctx, &domain.TollPass{
		ID:            "pass-2",
		VehicleReg:    "MH14CD5678",
		TollID:        "T1",
		PassType:      domain.PassTypeSevenDay,
		VehicleType:   domain.VehicleTypeTwoWheeler,
		Price:         250,
		PurchasedAt:   monday9am,
		UsesRemaining: domain.UnlimitedUses,
		Status:        domain.PassStatusActive,
	}))

	// The sequence generator is single-threaded; here two lock keys run
	// at once, so the service needs the concurrency-safe generator.
	svc := NewService(
		f.passRepo,
		f.vehicleRepo,
		f.tollRepo,
		f.txnRepo,
		pricing.NewService(),
		id.NewUUIDGenerator(),
		clock.NewFixed(monday9am.Add(time.Hour)),
		f.locks,
		3,
		logger.NewNoop(),
	)

	const perVehicle = 8
	var g errgroup.Group
	for i := 0; i < perVehicle; i++ {
		for _, reg := range []string{"MH12AB1234", "MH14CD5678"} {
			reg := reg
			g.Go(func() error {
				decision, err := svc.Evaluate(ctx, &EvaluateRequest{
					VehicleReg: reg,
					TollID:     "T1",
					BoothID:    "T1-B1",
				})
				if err != nil {
					return err
				}
				if !decision.Allowed {
					return errors.New("passage denied: " + decision.Reason)
				}
				return nil
			})
		}
	}
	require.NoError(t, g.Wait())

	// Every passage landed on the counter: no increment was lost to a
	// concurrent writer.
	toll, err := f.tollRepo.GetByID(ctx, "T1")
	require.NoError(t, err)
	booth := toll.Booth("T1-B1")
	require.NotNil(t, booth)
	assert.Equal(t, int64(2*perVehicle), booth.VehiclesProcessed)
	assert.Len(t, f.txnRepo.All(), 2*perVehicle)
}

// failingTxnRepo rejects every append.
type failingTxnRepo struct {
	repository.TransactionRepository
}

func (failingTxnRepo) Create(context.Context, *domain.Transaction) error {
	return errors.New("audit sink down")
}

func TestService_Evaluate_AuditFailureKeepsAdmission(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.addPass(t, "pass-1", domain.PassTypeReturn, monday9am)

	svc := NewService(
		f.passRepo,
		f.vehicleRepo,
		f.tollRepo,
		failingTxnRepo{},
		pricing.NewService(),
		f.ids,
		clock.NewFixed(monday9am.Add(time.Hour)),
		f.locks,
		3,
		logger.NewNoop(),
	)

	// The pass was spent before the audit append: the admission stands
	// even when the record cannot be written.
	decision, err := svc.Evaluate(ctx, evalRequest())
	require.NoError(t, err)
	assert.True(t, decision.Allowed)

	stored, err := f.passRepo.GetByID(ctx, "pass-1")
	require.NoError(t, err)
	assert.Equal(t, 1, stored.UsesRemaining)
}

func TestSelectPass_EmptyAndInactive(t *testing.T) {
	now := monday9am.Add(time.Hour)

	assert.Nil(t, selectPass(nil, now))

	expired := &domain.TollPass{
		ID:            "pass-1",
		PassType:      domain.PassTypeSingle,
		PurchasedAt:   monday9am,
		UsesRemaining: 1,
	}
	require.NoError(t, expired.Activate(monday9am.Add(-2*time.Hour)))
	assert.Nil(t, selectPass([]*domain.TollPass{expired}, now))
}
