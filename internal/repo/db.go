// Package repo contains all database access logic for the carpool API.
// Each resource has its own file with an interface and a Postgres implementation.
// No business logic lives here: only SQL, type mapping and error translation.
//
// Repos never open transactions themselves. When the service layer runs a
// unit of work through the transaction manager, every repo call made with
// that context joins the same pgx transaction.
package repo

import (
	"context"
	"errors"
	"fmt"

	trmpgx "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pkordes/carpool/internal/domain"
)

// db is the minimal interface satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
// Accepting this interface instead of *pgxpool.Pool directly allows integration
// tests to pass a transaction that is rolled back after each test.
type db interface {
	trmpgx.Tr
}

// conn returns the transaction bound to ctx by the transaction manager, or
// fallback when ctx carries none.
func conn(ctx context.Context, fallback db) trmpgx.Tr {
	return trmpgx.DefaultCtxGetter.DefaultTrOrDB(ctx, fallback)
}

// Postgres error codes the repos react to.
const (
	pgUniqueViolation      = "23505"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// translate maps driver errors onto domain errors. Errors it does not
// recognise are returned unchanged.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgSerializationFailure, pgDeadlockDetected:
			return fmt.Errorf("%w: %w", domain.ErrTransient, err)
		}
	}
	if pgconn.SafeToRetry(err) {
		return fmt.Errorf("%w: %w", domain.ErrTransient, err)
	}
	return err
}

// isUniqueViolation reports whether err is a unique violation on constraint.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation && pgErr.ConstraintName == constraint
}

// scanner is satisfied by both pgx.Row and pgx.Rows, allowing scan helpers to
// be reused for both QueryRow and Query calls.
type scanner interface {
	Scan(dest ...any) error
}

// exists runs a single-column EXISTS query.
func exists(ctx context.Context, q db, sql string, args pgx.NamedArgs) (bool, error) {
	var ok bool
	if err := conn(ctx, q).QueryRow(ctx, sql, args).Scan(&ok); err != nil {
		return false, translate(err)
	}
	return ok, nil
}
