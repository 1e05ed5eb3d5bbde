package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/carpool/internal/domain"
)

// VehicleRepo defines the persistence operations for Vehicles.
type VehicleRepo interface {
	Create(ctx context.Context, v domain.Vehicle) (domain.Vehicle, error)

	// GetByID returns domain.ErrNotFound if no vehicle with that ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Vehicle, error)

	// ListByOwner returns the owner's vehicles, newest first.
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Vehicle, error)
}

type pgVehicleRepo struct {
	db db
}

// NewVehicleRepo constructs a VehicleRepo backed by the provided db connection.
func NewVehicleRepo(db db) VehicleRepo {
	return &pgVehicleRepo{db: db}
}

const vehicleColumns = `id, owner_id, make, model, plate, seat_count, created_at`

func (r *pgVehicleRepo) Create(ctx context.Context, v domain.Vehicle) (domain.Vehicle, error) {
	const q = `
		INSERT INTO vehicles (owner_id, make, model, plate, seat_count)
		VALUES (@owner_id, @make, @model, @plate, @seat_count)
		RETURNING ` + vehicleColumns

	args := pgx.NamedArgs{
		"owner_id":   v.OwnerID,
		"make":       v.Make,
		"model":      v.Model,
		"plate":      v.Plate,
		"seat_count": v.SeatCount,
	}

	result, err := scanVehicle(conn(ctx, r.db).QueryRow(ctx, q, args))
	if err != nil {
		return domain.Vehicle{}, fmt.Errorf("repo.VehicleRepo.Create: %w", translate(err))
	}
	return result, nil
}

func (r *pgVehicleRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Vehicle, error) {
	const q = `SELECT ` + vehicleColumns + ` FROM vehicles WHERE id = @id`

	result, err := scanVehicle(conn(ctx, r.db).QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Vehicle{}, fmt.Errorf("repo.VehicleRepo.GetByID: %w", translate(err))
	}
	return result, nil
}

func (r *pgVehicleRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Vehicle, error) {
	const q = `SELECT ` + vehicleColumns + ` FROM vehicles WHERE owner_id = @owner_id ORDER BY created_at DESC`

	rows, err := conn(ctx, r.db).Query(ctx, q, pgx.NamedArgs{"owner_id": ownerID})
	if err != nil {
		return nil, fmt.Errorf("repo.VehicleRepo.ListByOwner: %w", translate(err))
	}
	defer rows.Close()

	var vehicles []domain.Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.VehicleRepo.ListByOwner: scan: %w", err)
		}
		vehicles = append(vehicles, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.VehicleRepo.ListByOwner: rows: %w", translate(err))
	}
	return vehicles, nil
}

func scanVehicle(s scanner) (domain.Vehicle, error) {
	var (
		v       domain.Vehicle
		id      pgtype.UUID
		ownerID pgtype.UUID
	)
	if err := s.Scan(&id, &ownerID, &v.Make, &v.Model, &v.Plate, &v.SeatCount, &v.CreatedAt); err != nil {
		return domain.Vehicle{}, err
	}
	v.ID = uuid.UUID(id.Bytes)
	v.OwnerID = uuid.UUID(ownerID.Bytes)
	return v, nil
}
