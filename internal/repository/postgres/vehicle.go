package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/frontandrew/tollplaza/internal/domain"
	"github.com/frontandrew/tollplaza/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type vehicleRepository struct {
	db *pgxpool.Pool
}

func NewVehicleRepository(db *pgxpool.Pool) repository.VehicleRepository {
	return &vehicleRepository{db: db}
}

func (r *vehicleRepository) Create(ctx context.Context, vehicle *domain.Vehicle) error {
	query := `
		INSERT INTO vehicles (registration_number, vehicle_type, created_at)
		VALUES ($1, $2, $3)
	`

	vehicle.CreatedAt = time.Now()

	_, err := r.db.Exec(ctx, query,
		vehicle.RegistrationNumber,
		vehicle.VehicleType,
		vehicle.CreatedAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrVehicleAlreadyExists
		}
		return err
	}

	return nil
}

func (r *vehicleRepository) GetByRegistration(ctx context.Context, reg string) (*domain.Vehicle, error) {
	query := `
		SELECT registration_number, vehicle_type, created_at
		FROM vehicles
		WHERE registration_number = $1
	`

	vehicle := &domain.Vehicle{}
	err := r.db.QueryRow(ctx, query, reg).Scan(
		&vehicle.RegistrationNumber,
		&vehicle.VehicleType,
		&vehicle.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrVehicleNotFound
		}
		return nil, err
	}

	return vehicle, nil
}

func (r *vehicleRepository) Exists(ctx context.Context, reg string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM vehicles WHERE registration_number = $1)`

	var exists bool
	if err := r.db.QueryRow(ctx, query, reg).Scan(&exists); err != nil {
		return false, err
	}

	return exists, nil
}

func (r *vehicleRepository) List(ctx context.Context, limit, offset int) ([]*domain.Vehicle, error) {
	query := `
		SELECT registration_number, vehicle_type, created_at
		FROM vehicles
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vehicles []*domain.Vehicle
	for rows.Next() {
		vehicle := &domain.Vehicle{}
		err := rows.Scan(
			&vehicle.RegistrationNumber,
			&vehicle.VehicleType,
			&vehicle.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		vehicles = append(vehicles, vehicle)
	}

	return vehicles, rows.Err()
}
