package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/carpool/internal/domain"
)

// TripRepo defines the persistence operations for Trips.
// The service layer depends on this interface, not the concrete Postgres
// implementation, which allows the service to be unit-tested with a fake.
//
// ReserveSeats and ReleaseSeats are the only writers of available_seats.
// Both recompute status in the same statement, so the two columns can never
// disagree after a commit.
type TripRepo interface {
	// Create inserts a new trip. Capacity is taken from AvailableSeats and the
	// status is derived from it.
	Create(ctx context.Context, trip domain.Trip) (domain.Trip, error)

	// GetByID retrieves a single trip by its UUID primary key.
	// Returns domain.ErrNotFound if no trip with that ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error)

	// GetByIDForUpdate is GetByID plus a row lock held until the surrounding
	// transaction ends.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (domain.Trip, error)

	// ListPaged returns trips matching filter ordered by departure date, plus
	// the total number of matches.
	ListPaged(ctx context.Context, filter domain.TripFilter, p domain.PaginationParams) ([]domain.Trip, int64, error)

	// ReserveSeats atomically takes n seats. Returns domain.ErrNotEnoughSeats
	// when fewer than n are available and domain.ErrNotFound if the trip is gone.
	ReserveSeats(ctx context.Context, id uuid.UUID, n int) (domain.Trip, error)

	// ReleaseSeats atomically gives n seats back. Returns domain.ErrSeatOverflow
	// if that would exceed the trip's capacity.
	ReleaseSeats(ctx context.Context, id uuid.UUID, n int) (domain.Trip, error)

	// Delete removes a trip that no booking references.
	// Returns domain.ErrTripHasBookings when bookings exist and
	// domain.ErrNotFound when the trip does not.
	Delete(ctx context.Context, id uuid.UUID) error
}

// pgTripRepo is the Postgres implementation of TripRepo.
type pgTripRepo struct {
	db db
}

// NewTripRepo constructs a TripRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewTripRepo(db db) TripRepo {
	return &pgTripRepo{db: db}
}

const tripColumns = `id, driver_id, vehicle_id, departure_city, arrival_city,
	departure_date, arrival_date, capacity, available_seats, price, status,
	created_at, updated_at`

func (r *pgTripRepo) Create(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	const q = `
		INSERT INTO trips (driver_id, vehicle_id, departure_city, arrival_city,
		                   departure_date, arrival_date, capacity, available_seats, price, status)
		VALUES (@driver_id, @vehicle_id, @departure_city, @arrival_city,
		        @departure_date, @arrival_date, @seats, @seats, @price, @status)
		RETURNING ` + tripColumns

	args := pgx.NamedArgs{
		"driver_id":      trip.DriverID,
		"vehicle_id":     trip.VehicleID,
		"departure_city": trip.DepartureCity,
		"arrival_city":   trip.ArrivalCity,
		"departure_date": trip.DepartureDate,
		"arrival_date":   trip.ArrivalDate,
		"seats":          trip.AvailableSeats,
		"price":          trip.Price.Cents(),
		"status":         string(domain.StatusForSeats(trip.AvailableSeats)),
	}

	result, err := scanTrip(conn(ctx, r.db).QueryRow(ctx, q, args))
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.Create: %w", translate(err))
	}
	return result, nil
}

func (r *pgTripRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	const q = `SELECT ` + tripColumns + ` FROM trips WHERE id = @id`

	result, err := scanTrip(conn(ctx, r.db).QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.GetByID: %w", translate(err))
	}
	return result, nil
}

func (r *pgTripRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	const q = `SELECT ` + tripColumns + ` FROM trips WHERE id = @id FOR UPDATE`

	result, err := scanTrip(conn(ctx, r.db).QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.GetByIDForUpdate: %w", translate(err))
	}
	return result, nil
}

func (r *pgTripRepo) ListPaged(ctx context.Context, filter domain.TripFilter, p domain.PaginationParams) ([]domain.Trip, int64, error) {
	where, args := tripFilterClause(filter)

	var total int64
	countQ := `SELECT count(*) FROM trips` + where
	if err := conn(ctx, r.db).QueryRow(ctx, countQ, args).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repo.TripRepo.ListPaged: count: %w", translate(err))
	}

	args["limit"] = p.Limit
	args["offset"] = p.Offset()
	q := `SELECT ` + tripColumns + ` FROM trips` + where + `
		ORDER BY departure_date ASC, id ASC
		LIMIT @limit OFFSET @offset`

	rows, err := conn(ctx, r.db).Query(ctx, q, args)
	if err != nil {
		return nil, 0, fmt.Errorf("repo.TripRepo.ListPaged: %w", translate(err))
	}
	defer rows.Close()

	var trips []domain.Trip
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("repo.TripRepo.ListPaged: scan: %w", err)
		}
		trips = append(trips, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("repo.TripRepo.ListPaged: rows: %w", translate(err))
	}
	return trips, total, nil
}

// tripFilterClause builds the WHERE clause for a TripFilter.
func tripFilterClause(f domain.TripFilter) (string, pgx.NamedArgs) {
	var conds []string
	args := pgx.NamedArgs{}
	if f.Status != nil {
		conds = append(conds, "status = @status")
		args["status"] = string(*f.Status)
	}
	if f.DepartureCity != "" {
		conds = append(conds, "lower(departure_city) = lower(@departure_city)")
		args["departure_city"] = f.DepartureCity
	}
	if f.ArrivalCity != "" {
		conds = append(conds, "lower(arrival_city) = lower(@arrival_city)")
		args["arrival_city"] = f.ArrivalCity
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *pgTripRepo) ReserveSeats(ctx context.Context, id uuid.UUID, n int) (domain.Trip, error) {
	// Expressions on the right-hand side of SET see the pre-update row, so both
	// columns are computed from the same seat count.
	const q = `
		UPDATE trips
		SET available_seats = available_seats - @n,
		    status          = CASE WHEN available_seats - @n = 0 THEN 'full' ELSE 'open' END,
		    updated_at      = now()
		WHERE id = @id AND available_seats >= @n
		RETURNING ` + tripColumns

	result, err := scanTrip(conn(ctx, r.db).QueryRow(ctx, q, pgx.NamedArgs{"id": id, "n": n}))
	if err == nil {
		return result, nil
	}
	return domain.Trip{}, r.seatMissError(ctx, "ReserveSeats", id, err, domain.ErrNotEnoughSeats)
}

func (r *pgTripRepo) ReleaseSeats(ctx context.Context, id uuid.UUID, n int) (domain.Trip, error) {
	const q = `
		UPDATE trips
		SET available_seats = available_seats + @n,
		    status          = CASE WHEN available_seats + @n = 0 THEN 'full' ELSE 'open' END,
		    updated_at      = now()
		WHERE id = @id AND available_seats + @n <= capacity
		RETURNING ` + tripColumns

	result, err := scanTrip(conn(ctx, r.db).QueryRow(ctx, q, pgx.NamedArgs{"id": id, "n": n}))
	if err == nil {
		return result, nil
	}
	return domain.Trip{}, r.seatMissError(ctx, "ReleaseSeats", id, err, domain.ErrSeatOverflow)
}

// seatMissError tells "guard rejected the update" apart from "trip is gone"
// after a conditional seat update matched no row.
func (r *pgTripRepo) seatMissError(ctx context.Context, op string, id uuid.UUID, err error, guard error) error {
	err = translate(err)
	if !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("repo.TripRepo.%s: %w", op, err)
	}
	found, existsErr := exists(ctx, r.db, `SELECT EXISTS (SELECT 1 FROM trips WHERE id = @id)`, pgx.NamedArgs{"id": id})
	if existsErr != nil {
		return fmt.Errorf("repo.TripRepo.%s: %w", op, existsErr)
	}
	if found {
		return fmt.Errorf("repo.TripRepo.%s: %w", op, guard)
	}
	return fmt.Errorf("repo.TripRepo.%s: %w", op, domain.ErrNotFound)
}

func (r *pgTripRepo) Delete(ctx context.Context, id uuid.UUID) error {
	const q = `
		DELETE FROM trips
		WHERE id = @id
		  AND NOT EXISTS (SELECT 1 FROM bookings WHERE trip_id = @id)`

	tag, err := conn(ctx, r.db).Exec(ctx, q, pgx.NamedArgs{"id": id})
	if err != nil {
		return fmt.Errorf("repo.TripRepo.Delete: %w", translate(err))
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	found, err := exists(ctx, r.db, `SELECT EXISTS (SELECT 1 FROM trips WHERE id = @id)`, pgx.NamedArgs{"id": id})
	if err != nil {
		return fmt.Errorf("repo.TripRepo.Delete: %w", err)
	}
	if found {
		return fmt.Errorf("repo.TripRepo.Delete: %w", domain.ErrTripHasBookings)
	}
	return fmt.Errorf("repo.TripRepo.Delete: %w", domain.ErrNotFound)
}

// scanTrip maps a single database row into a domain.Trip.
func scanTrip(s scanner) (domain.Trip, error) {
	var (
		t         domain.Trip
		id        pgtype.UUID
		driverID  pgtype.UUID
		vehicleID pgtype.UUID
		price     int64
		status    string
	)

	err := s.Scan(&id, &driverID, &vehicleID, &t.DepartureCity, &t.ArrivalCity,
		&t.DepartureDate, &t.ArrivalDate, &t.Capacity, &t.AvailableSeats, &price, &status,
		&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return domain.Trip{}, err
	}

	t.ID = uuid.UUID(id.Bytes)
	t.DriverID = uuid.UUID(driverID.Bytes)
	t.VehicleID = uuid.UUID(vehicleID.Bytes)
	t.Price = domain.CreditsFromCents(price)
	t.Status = domain.TripStatus(status)
	return t, nil
}
