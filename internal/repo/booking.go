package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/carpool/internal/domain"
)

// activeBookingIndex is the partial unique index that allows at most one
// pending or confirmed booking per (trip, user).
const activeBookingIndex = "bookings_active_trip_user_idx"

// BookingRepo defines the persistence operations for Bookings.
type BookingRepo interface {
	// Create inserts a new booking. Returns domain.ErrDuplicateBooking when the
	// passenger already holds an active booking on the trip.
	Create(ctx context.Context, b domain.Booking) (domain.Booking, error)

	// GetByID returns domain.ErrNotFound if no booking with that ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Booking, error)

	// GetByIDForUpdate is GetByID plus a row lock held until the surrounding
	// transaction ends. Status transitions read the booking through it.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (domain.Booking, error)

	// UpdateStatus sets status (and canceller, which may be nil) and returns
	// the updated booking.
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.BookingStatus, cancellerID *uuid.UUID) (domain.Booking, error)

	// FindActive returns the pending or confirmed booking of userID on tripID,
	// or domain.ErrNotFound when there is none.
	FindActive(ctx context.Context, tripID, userID uuid.UUID) (domain.Booking, error)

	// ListByUser returns the passenger's bookings, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID, p domain.PaginationParams) ([]domain.Booking, int64, error)

	// ListByDriver returns bookings on trips driven by driverID, newest first.
	ListByDriver(ctx context.Context, driverID uuid.UUID, p domain.PaginationParams) ([]domain.Booking, int64, error)

	// ListByTrip returns every booking on the trip, oldest first.
	ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.Booking, error)
}

type pgBookingRepo struct {
	db db
}

// NewBookingRepo constructs a BookingRepo backed by the provided db connection.
func NewBookingRepo(db db) BookingRepo {
	return &pgBookingRepo{db: db}
}

const bookingColumns = `b.id, b.trip_id, b.user_id, b.seat_count, b.total_price, b.status,
	b.canceller_id, b.created_at, b.updated_at`

func (r *pgBookingRepo) Create(ctx context.Context, bk domain.Booking) (domain.Booking, error) {
	const q = `
		INSERT INTO bookings AS b (trip_id, user_id, seat_count, total_price, status)
		VALUES (@trip_id, @user_id, @seat_count, @total_price, @status)
		RETURNING ` + bookingColumns

	args := pgx.NamedArgs{
		"trip_id":     bk.TripID,
		"user_id":     bk.UserID,
		"seat_count":  bk.SeatCount,
		"total_price": bk.TotalPrice.Cents(),
		"status":      string(bk.Status),
	}

	result, err := scanBooking(conn(ctx, r.db).QueryRow(ctx, q, args))
	if err != nil {
		if isUniqueViolation(err, activeBookingIndex) {
			return domain.Booking{}, fmt.Errorf("repo.BookingRepo.Create: %w", domain.ErrDuplicateBooking)
		}
		return domain.Booking{}, fmt.Errorf("repo.BookingRepo.Create: %w", translate(err))
	}
	return result, nil
}

func (r *pgBookingRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings b WHERE b.id = @id`

	result, err := scanBooking(conn(ctx, r.db).QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Booking{}, fmt.Errorf("repo.BookingRepo.GetByID: %w", translate(err))
	}
	return result, nil
}

func (r *pgBookingRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (domain.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings b WHERE b.id = @id FOR UPDATE`

	result, err := scanBooking(conn(ctx, r.db).QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Booking{}, fmt.Errorf("repo.BookingRepo.GetByIDForUpdate: %w", translate(err))
	}
	return result, nil
}

func (r *pgBookingRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.BookingStatus, cancellerID *uuid.UUID) (domain.Booking, error) {
	const q = `
		UPDATE bookings AS b
		SET status       = @status,
		    canceller_id = @canceller_id,
		    updated_at   = now()
		WHERE b.id = @id
		RETURNING ` + bookingColumns

	args := pgx.NamedArgs{
		"id":           id,
		"status":       string(status),
		"canceller_id": cancellerID, // nil becomes NULL
	}

	result, err := scanBooking(conn(ctx, r.db).QueryRow(ctx, q, args))
	if err != nil {
		return domain.Booking{}, fmt.Errorf("repo.BookingRepo.UpdateStatus: %w", translate(err))
	}
	return result, nil
}

func (r *pgBookingRepo) FindActive(ctx context.Context, tripID, userID uuid.UUID) (domain.Booking, error) {
	const q = `
		SELECT ` + bookingColumns + `
		FROM bookings b
		WHERE b.trip_id = @trip_id AND b.user_id = @user_id
		  AND b.status IN ('pending', 'confirmed')`

	result, err := scanBooking(conn(ctx, r.db).QueryRow(ctx, q, pgx.NamedArgs{"trip_id": tripID, "user_id": userID}))
	if err != nil {
		return domain.Booking{}, fmt.Errorf("repo.BookingRepo.FindActive: %w", translate(err))
	}
	return result, nil
}

func (r *pgBookingRepo) ListByUser(ctx context.Context, userID uuid.UUID, p domain.PaginationParams) ([]domain.Booking, int64, error) {
	const countQ = `SELECT count(*) FROM bookings b WHERE b.user_id = @user_id`
	const q = `
		SELECT ` + bookingColumns + `
		FROM bookings b
		WHERE b.user_id = @user_id
		ORDER BY b.created_at DESC, b.id
		LIMIT @limit OFFSET @offset`

	return r.listPaged(ctx, "ListByUser", countQ, q, pgx.NamedArgs{"user_id": userID}, p)
}

func (r *pgBookingRepo) ListByDriver(ctx context.Context, driverID uuid.UUID, p domain.PaginationParams) ([]domain.Booking, int64, error) {
	const countQ = `
		SELECT count(*)
		FROM bookings b JOIN trips t ON t.id = b.trip_id
		WHERE t.driver_id = @driver_id`
	const q = `
		SELECT ` + bookingColumns + `
		FROM bookings b JOIN trips t ON t.id = b.trip_id
		WHERE t.driver_id = @driver_id
		ORDER BY b.created_at DESC, b.id
		LIMIT @limit OFFSET @offset`

	return r.listPaged(ctx, "ListByDriver", countQ, q, pgx.NamedArgs{"driver_id": driverID}, p)
}

func (r *pgBookingRepo) ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.Booking, error) {
	const q = `
		SELECT ` + bookingColumns + `
		FROM bookings b
		WHERE b.trip_id = @trip_id
		ORDER BY b.created_at ASC, b.id`

	rows, err := conn(ctx, r.db).Query(ctx, q, pgx.NamedArgs{"trip_id": tripID})
	if err != nil {
		return nil, fmt.Errorf("repo.BookingRepo.ListByTrip: %w", translate(err))
	}
	bookings, err := collectBookings(rows)
	if err != nil {
		return nil, fmt.Errorf("repo.BookingRepo.ListByTrip: %w", err)
	}
	return bookings, nil
}

func (r *pgBookingRepo) listPaged(ctx context.Context, op, countQ, q string, args pgx.NamedArgs, p domain.PaginationParams) ([]domain.Booking, int64, error) {
	var total int64
	if err := conn(ctx, r.db).QueryRow(ctx, countQ, args).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repo.BookingRepo.%s: count: %w", op, translate(err))
	}

	pageArgs := pgx.NamedArgs{"limit": p.Limit, "offset": p.Offset()}
	for k, v := range args {
		pageArgs[k] = v
	}
	rows, err := conn(ctx, r.db).Query(ctx, q, pageArgs)
	if err != nil {
		return nil, 0, fmt.Errorf("repo.BookingRepo.%s: %w", op, translate(err))
	}
	bookings, err := collectBookings(rows)
	if err != nil {
		return nil, 0, fmt.Errorf("repo.BookingRepo.%s: %w", op, err)
	}
	return bookings, total, nil
}

func collectBookings(rows pgx.Rows) ([]domain.Booking, error) {
	defer rows.Close()

	var bookings []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", translate(err))
	}
	return bookings, nil
}

// scanBooking maps a single database row into a domain.Booking.
// It handles the UUID conversions and the nullable canceller_id.
func scanBooking(s scanner) (domain.Booking, error) {
	var (
		b           domain.Booking
		id          pgtype.UUID
		tripID      pgtype.UUID
		userID      pgtype.UUID
		cancellerID pgtype.UUID
		totalPrice  int64
		status      string
	)

	err := s.Scan(&id, &tripID, &userID, &b.SeatCount, &totalPrice, &status,
		&cancellerID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return domain.Booking{}, err
	}

	b.ID = uuid.UUID(id.Bytes)
	b.TripID = uuid.UUID(tripID.Bytes)
	b.UserID = uuid.UUID(userID.Bytes)
	b.TotalPrice = domain.CreditsFromCents(totalPrice)
	b.Status = domain.BookingStatus(status)
	if cancellerID.Valid {
		c := uuid.UUID(cancellerID.Bytes)
		b.CancellerID = &c
	}
	return b, nil
}
