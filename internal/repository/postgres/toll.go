package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/frontandrew/tollplaza/internal/domain"
	"github.com/frontandrew/tollplaza/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type tollRepository struct {
	db *pgxpool.Pool
}

func NewTollRepository(db *pgxpool.Pool) repository.TollRepository {
	return &tollRepository{db: db}
}

// Create stores the toll and its booths in one transaction.
func (r *tollRepository) Create(ctx context.Context, toll *domain.Toll) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO tolls (id, name, location) VALUES ($1, $2, $3)`,
		toll.ID, toll.Name, toll.Location,
	)
	if err != nil {
		return err
	}

	for _, booth := range toll.Booths {
		booth.TollID = toll.ID
		_, err = tx.Exec(ctx,
			`INSERT INTO booths (id, toll_id, name, vehicles_processed, total_charges_collected)
			 VALUES ($1, $2, $3, $4, $5)`,
			booth.ID, booth.TollID, booth.Name, booth.VehiclesProcessed, booth.TotalChargesCollected,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *tollRepository) GetByID(ctx context.Context, id string) (*domain.Toll, error) {
	query := `SELECT id, name, location FROM tolls WHERE id = $1`

	toll := &domain.Toll{}
	err := r.db.QueryRow(ctx, query, id).Scan(&toll.ID, &toll.Name, &toll.Location)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTollNotFound
		}
		return nil, err
	}

	booths, err := r.boothsForToll(ctx, id)
	if err != nil {
		return nil, err
	}
	toll.Booths = booths

	return toll, nil
}

func (r *tollRepository) Exists(ctx context.Context, id string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM tolls WHERE id = $1)`

	var exists bool
	if err := r.db.QueryRow(ctx, query, id).Scan(&exists); err != nil {
		return false, err
	}

	return exists, nil
}

func (r *tollRepository) List(ctx context.Context) ([]*domain.Toll, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, location FROM tolls ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tolls []*domain.Toll
	for rows.Next() {
		toll := &domain.Toll{}
		if err := rows.Scan(&toll.ID, &toll.Name, &toll.Location); err != nil {
			return nil, err
		}
		tolls = append(tolls, toll)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, toll := range tolls {
		booths, err := r.boothsForToll(ctx, toll.ID)
		if err != nil {
			return nil, err
		}
		toll.Booths = booths
	}

	return tolls, nil
}

func (r *tollRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM tolls`).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// IncrementBoothStats applies the deltas in the database so counters
// survive concurrent writers.
func (r *tollRepository) IncrementBoothStats(ctx context.Context, tollID, boothID string, vehiclesDelta, chargesDelta int64) error {
	query := `
		UPDATE booths
		SET vehicles_processed = vehicles_processed + $3,
		    total_charges_collected = total_charges_collected + $4
		WHERE id = $1 AND toll_id = $2
	`

	result, err := r.db.Exec(ctx, query, boothID, tollID, vehiclesDelta, chargesDelta)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return domain.ErrBoothNotFound
	}

	return nil
}

func (r *tollRepository) ListBoothStats(ctx context.Context) ([]*domain.TollBooth, error) {
	query := `
		SELECT id, toll_id, name, vehicles_processed, total_charges_collected
		FROM booths
		ORDER BY toll_id, id
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanBooths(rows)
}

func (r *tollRepository) boothsForToll(ctx context.Context, tollID string) ([]*domain.TollBooth, error) {
	query := `
		SELECT id, toll_id, name, vehicles_processed, total_charges_collected
		FROM booths
		WHERE toll_id = $1
		ORDER BY id
	`

	rows, err := r.db.Query(ctx, query, tollID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanBooths(rows)
}

func scanBooths(rows pgx.Rows) ([]*domain.TollBooth, error) {
	var booths []*domain.TollBooth
	for rows.Next() {
		booth := &domain.TollBooth{}
		err := rows.Scan(
			&booth.ID,
			&booth.TollID,
			&booth.Name,
			&booth.VehiclesProcessed,
			&booth.TotalChargesCollected,
		)
		if err != nil {
			return nil, err
		}
		booths = append(booths, booth)
	}

	return booths, rows.Err()
}
