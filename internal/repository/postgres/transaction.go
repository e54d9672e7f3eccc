package postgres

import (
	"context"
	"errors"

	"github.com/frontandrew/tollplaza/internal/domain"
	"github.com/frontandrew/tollplaza/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type transactionRepository struct {
	db *pgxpool.Pool
}

func NewTransactionRepository(db *pgxpool.Pool) repository.TransactionRepository {
	return &transactionRepository{db: db}
}

// Create appends an audit record. There is deliberately no Update or
// Delete on this repository.
func (r *transactionRepository) Create(ctx context.Context, txn *domain.Transaction) error {
	query := `
		INSERT INTO transactions (id, booth_id, toll_id, vehicle_reg, vehicle_type, type, pass_id, amount, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.Exec(ctx, query,
		txn.ID,
		txn.BoothID,
		txn.TollID,
		txn.VehicleReg,
		txn.VehicleType,
		txn.Type,
		txn.PassID,
		txn.Amount,
		txn.Timestamp,
	)

	return err
}

func (r *transactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	query := `
		SELECT id, booth_id, toll_id, vehicle_reg, vehicle_type, type, pass_id, amount, created_at
		FROM transactions
		WHERE id = $1
	`

	txn := &domain.Transaction{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&txn.ID,
		&txn.BoothID,
		&txn.TollID,
		&txn.VehicleReg,
		&txn.VehicleType,
		&txn.Type,
		&txn.PassID,
		&txn.Amount,
		&txn.Timestamp,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}

	return txn, nil
}

func (r *transactionRepository) ListByVehicle(ctx context.Context, vehicleReg string, limit, offset int) ([]*domain.Transaction, error) {
	query := `
		SELECT id, booth_id, toll_id, vehicle_reg, vehicle_type, type, pass_id, amount, created_at
		FROM transactions
		WHERE vehicle_reg = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, vehicleReg, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTransactions(rows)
}

func (r *transactionRepository) ListByToll(ctx context.Context, tollID string, limit, offset int) ([]*domain.Transaction, error) {
	query := `
		SELECT id, booth_id, toll_id, vehicle_reg, vehicle_type, type, pass_id, amount, created_at
		FROM transactions
		WHERE toll_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, tollID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTransactions(rows)
}

func scanTransactions(rows pgx.Rows) ([]*domain.Transaction, error) {
	var txns []*domain.Transaction
	for rows.Next() {
		txn := &domain.Transaction{}
		err := rows.Scan(
			&txn.ID,
			&txn.BoothID,
			&txn.TollID,
			&txn.VehicleReg,
			&txn.VehicleType,
			&txn.Type,
			&txn.PassID,
			&txn.Amount,
			&txn.Timestamp,
		)
		if err != nil {
			return nil, err
		}
		txns = append(txns, txn)
	}

	return txns, rows.Err()
}
