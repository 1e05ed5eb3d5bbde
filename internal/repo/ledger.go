package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/carpool/internal/domain"
)

// LedgerRepo is the append-only journal of credit movements.
type LedgerRepo interface {
	// Append records one movement and returns it with id and timestamp set.
	Append(ctx context.Context, e domain.LedgerEntry) (domain.LedgerEntry, error)

	// ListByUser returns the user's entries in the order they were written.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.LedgerEntry, error)

	// Statement returns the user's entries in write order, each joined with
	// the route of its booking's trip.
	Statement(ctx context.Context, userID uuid.UUID) ([]domain.StatementRow, error)
}

type pgLedgerRepo struct {
	db db
}

// NewLedgerRepo constructs a LedgerRepo backed by the provided db connection.
func NewLedgerRepo(db db) LedgerRepo {
	return &pgLedgerRepo{db: db}
}

const ledgerColumns = `id, user_id, booking_id, kind, amount, balance_after, created_at`

func (r *pgLedgerRepo) Append(ctx context.Context, e domain.LedgerEntry) (domain.LedgerEntry, error) {
	const q = `
		INSERT INTO credit_ledger (user_id, booking_id, kind, amount, balance_after)
		VALUES (@user_id, @booking_id, @kind, @amount, @balance_after)
		RETURNING ` + ledgerColumns

	args := pgx.NamedArgs{
		"user_id":       e.UserID,
		"booking_id":    e.BookingID,
		"kind":          string(e.Kind),
		"amount":        e.Amount.Cents(),
		"balance_after": e.BalanceAfter.Cents(),
	}

	result, err := scanLedgerEntry(conn(ctx, r.db).QueryRow(ctx, q, args))
	if err != nil {
		return domain.LedgerEntry{}, fmt.Errorf("repo.LedgerRepo.Append: %w", translate(err))
	}
	return result, nil
}

func (r *pgLedgerRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.LedgerEntry, error) {
	const q = `SELECT ` + ledgerColumns + ` FROM credit_ledger WHERE user_id = @user_id ORDER BY created_at, id`

	rows, err := conn(ctx, r.db).Query(ctx, q, pgx.NamedArgs{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("repo.LedgerRepo.ListByUser: %w", translate(err))
	}
	defer rows.Close()

	var entries []domain.LedgerEntry
	for rows.Next() {
		e, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.LedgerRepo.ListByUser: scan: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.LedgerRepo.ListByUser: rows: %w", translate(err))
	}
	return entries, nil
}

func (r *pgLedgerRepo) Statement(ctx context.Context, userID uuid.UUID) ([]domain.StatementRow, error) {
	const q = `
		SELECT l.id, l.created_at, l.kind, l.amount, l.balance_after,
		       l.booking_id, t.departure_city, t.arrival_city, t.departure_date
		FROM credit_ledger l
		LEFT JOIN bookings b ON b.id = l.booking_id
		LEFT JOIN trips t    ON t.id = b.trip_id
		WHERE l.user_id = @user_id
		ORDER BY l.created_at, l.id`

	rows, err := conn(ctx, r.db).Query(ctx, q, pgx.NamedArgs{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("repo.LedgerRepo.Statement: %w", translate(err))
	}
	defer rows.Close()

	out := []domain.StatementRow{}
	for rows.Next() {
		var (
			row           domain.StatementRow
			id            pgtype.UUID
			kind          string
			amount        int64
			balanceAfter  int64
			bookingID     pgtype.UUID
			departureCity pgtype.Text
			arrivalCity   pgtype.Text
			departureDate pgtype.Timestamptz
		)
		if err := rows.Scan(&id, &row.CreatedAt, &kind, &amount, &balanceAfter,
			&bookingID, &departureCity, &arrivalCity, &departureDate); err != nil {
			return nil, fmt.Errorf("repo.LedgerRepo.Statement: scan: %w", err)
		}
		row.EntryID = uuid.UUID(id.Bytes).String()
		row.Kind = domain.LedgerKind(kind)
		row.Amount = domain.CreditsFromCents(amount)
		row.BalanceAfter = domain.CreditsFromCents(balanceAfter)
		if bookingID.Valid {
			row.BookingID = uuid.UUID(bookingID.Bytes).String()
		}
		row.DepartureCity = departureCity.String
		row.ArrivalCity = arrivalCity.String
		if departureDate.Valid {
			dep := departureDate.Time
			row.DepartureDate = &dep
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.LedgerRepo.Statement: rows: %w", translate(err))
	}
	return out, nil
}

func scanLedgerEntry(s scanner) (domain.LedgerEntry, error) {
	var (
		e            domain.LedgerEntry
		id           pgtype.UUID
		userID       pgtype.UUID
		bookingID    pgtype.UUID
		kind         string
		amount       int64
		balanceAfter int64
	)
	if err := s.Scan(&id, &userID, &bookingID, &kind, &amount, &balanceAfter, &e.CreatedAt); err != nil {
		return domain.LedgerEntry{}, err
	}
	e.ID = uuid.UUID(id.Bytes)
	e.UserID = uuid.UUID(userID.Bytes)
	if bookingID.Valid {
		b := uuid.UUID(bookingID.Bytes)
		e.BookingID = &b
	}
	e.Kind = domain.LedgerKind(kind)
	e.Amount = domain.CreditsFromCents(amount)
	e.BalanceAfter = domain.CreditsFromCents(balanceAfter)
	return e, nil
}
