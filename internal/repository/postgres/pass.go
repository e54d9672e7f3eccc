package postgres

import (
	"context"
	"errors"

	"github.com/frontandrew/tollplaza/internal/domain"
	"github.com/frontandrew/tollplaza/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type passRepository struct {
	db *pgxpool.Pool
}

func NewPassRepository(db *pgxpool.Pool) repository.PassRepository {
	return &passRepository{db: db}
}

const passColumns = `id, vehicle_reg, toll_id, pass_type, vehicle_type, price,
       purchased_at, first_used_at, valid_until, uses_remaining, status, version`

func (r *passRepository) Create(ctx context.Context, pass *domain.TollPass) error {
	query := `
		INSERT INTO passes (id, vehicle_reg, toll_id, pass_type, vehicle_type, price,
		                    purchased_at, first_used_at, valid_until, uses_remaining, status, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	pass.Version = 1

	_, err := r.db.Exec(ctx, query,
		pass.ID,
		pass.VehicleReg,
		pass.TollID,
		pass.PassType,
		pass.VehicleType,
		pass.Price,
		pass.PurchasedAt,
		pass.FirstUsedAt,
		pass.ValidUntil,
		pass.UsesRemaining,
		pass.Status,
		pass.Version,
	)

	return err
}

func (r *passRepository) GetByID(ctx context.Context, id string) (*domain.TollPass, error) {
	query := `SELECT ` + passColumns + ` FROM passes WHERE id = $1`

	pass := &domain.TollPass{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&pass.ID,
		&pass.VehicleReg,
		&pass.TollID,
		&pass.PassType,
		&pass.VehicleType,
		&pass.Price,
		&pass.PurchasedAt,
		&pass.FirstUsedAt,
		&pass.ValidUntil,
		&pass.UsesRemaining,
		&pass.Status,
		&pass.Version,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPassNotFound
		}
		return nil, err
	}

	return pass, nil
}

// FindCandidates is the key lookup of passage evaluation. It returns
// passes for exactly this vehicle at exactly this toll; status filtering
// is the evaluator's job, not the repository's.
func (r *passRepository) FindCandidates(ctx context.Context, vehicleReg, tollID string) ([]*domain.TollPass, error) {
	query := `
		SELECT ` + passColumns + `
		FROM passes
		WHERE vehicle_reg = $1 AND toll_id = $2
		ORDER BY purchased_at ASC, id ASC
	`

	rows, err := r.db.Query(ctx, query, vehicleReg, tollID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanPasses(rows)
}

func (r *passRepository) GetByVehicle(ctx context.Context, vehicleReg string) ([]*domain.TollPass, error) {
	query := `
		SELECT ` + passColumns + `
		FROM passes
		WHERE vehicle_reg = $1
		ORDER BY purchased_at DESC
	`

	rows, err := r.db.Query(ctx, query, vehicleReg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanPasses(rows)
}

// Update writes pass state guarded by the version column. Zero rows
// affected means another writer got there first.
func (r *passRepository) Update(ctx context.Context, pass *domain.TollPass) error {
	query := `
		UPDATE passes
		SET first_used_at = $2, valid_until = $3, uses_remaining = $4, status = $5,
		    version = version + 1
		WHERE id = $1 AND version = $6
	`

	result, err := r.db.Exec(ctx, query,
		pass.ID,
		pass.FirstUsedAt,
		pass.ValidUntil,
		pass.UsesRemaining,
		pass.Status,
		pass.Version,
	)

	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return domain.ErrSaveConflict
	}

	pass.Version++
	return nil
}

func scanPasses(rows pgx.Rows) ([]*domain.TollPass, error) {
	var passes []*domain.TollPass
	for rows.Next() {
		pass := &domain.TollPass{}
		err := rows.Scan(
			&pass.ID,
			&pass.VehicleReg,
			&pass.TollID,
			&pass.PassType,
			&pass.VehicleType,
			&pass.Price,
			&pass.PurchasedAt,
			&pass.FirstUsedAt,
			&pass.ValidUntil,
			&pass.UsesRemaining,
			&pass.Status,
			&pass.Version,
		)
		if err != nil {
			return nil, err
		}
		passes = append(passes, pass)
	}

	return passes, rows.Err()
}
