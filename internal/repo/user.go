package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/carpool/internal/domain"
)

// UserRepo defines the persistence operations for Users.
type UserRepo interface {
	// Create inserts a new user with zero credits and returns the persisted record.
	// Returns domain.ErrEmailTaken if the email is already registered.
	Create(ctx context.Context, user domain.User) (domain.User, error)

	// GetByID retrieves a single user by its UUID primary key.
	// Returns domain.ErrNotFound if no user with that ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.User, error)

	// AdjustCredits adds delta (which may be negative) to the user's balance in
	// a single conditional statement and returns the updated user.
	// Returns domain.ErrInsufficientCredits if the balance would drop below
	// zero and domain.ErrNotFound if the user does not exist.
	AdjustCredits(ctx context.Context, id uuid.UUID, delta domain.Credits) (domain.User, error)
}

// pgUserRepo is the Postgres implementation of UserRepo.
type pgUserRepo struct {
	db db
}

// NewUserRepo constructs a UserRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewUserRepo(db db) UserRepo {
	return &pgUserRepo{db: db}
}

const userColumns = `id, name, email, roles, credits, created_at, updated_at`

func (r *pgUserRepo) Create(ctx context.Context, user domain.User) (domain.User, error) {
	const q = `
		INSERT INTO users (name, email, roles)
		VALUES (@name, @email, @roles)
		RETURNING ` + userColumns

	args := pgx.NamedArgs{
		"name":  user.Name,
		"email": user.Email,
		"roles": user.Roles.Strings(),
	}

	result, err := scanUser(conn(ctx, r.db).QueryRow(ctx, q, args))
	if err != nil {
		if isUniqueViolation(err, "users_email_key") {
			return domain.User{}, fmt.Errorf("repo.UserRepo.Create: %w", domain.ErrEmailTaken)
		}
		return domain.User{}, fmt.Errorf("repo.UserRepo.Create: %w", translate(err))
	}
	return result, nil
}

func (r *pgUserRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id = @id`

	result, err := scanUser(conn(ctx, r.db).QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.User{}, fmt.Errorf("repo.UserRepo.GetByID: %w", translate(err))
	}
	return result, nil
}

func (r *pgUserRepo) AdjustCredits(ctx context.Context, id uuid.UUID, delta domain.Credits) (domain.User, error) {
	// The balance guard lives in the WHERE clause so the check and the write
	// are one statement; the row lock taken by UPDATE serializes writers.
	const q = `
		UPDATE users
		SET credits    = credits + @delta,
		    updated_at = now()
		WHERE id = @id AND credits + @delta >= 0
		RETURNING ` + userColumns

	args := pgx.NamedArgs{"id": id, "delta": delta.Cents()}

	result, err := scanUser(conn(ctx, r.db).QueryRow(ctx, q, args))
	if err == nil {
		return result, nil
	}
	err = translate(err)
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.User{}, fmt.Errorf("repo.UserRepo.AdjustCredits: %w", err)
	}

	found, existsErr := exists(ctx, r.db, `SELECT EXISTS (SELECT 1 FROM users WHERE id = @id)`, pgx.NamedArgs{"id": id})
	if existsErr != nil {
		return domain.User{}, fmt.Errorf("repo.UserRepo.AdjustCredits: %w", existsErr)
	}
	if found {
		return domain.User{}, fmt.Errorf("repo.UserRepo.AdjustCredits: %w", domain.ErrInsufficientCredits)
	}
	return domain.User{}, fmt.Errorf("repo.UserRepo.AdjustCredits: %w", domain.ErrNotFound)
}

// scanUser maps a single database row into a domain.User.
func scanUser(s scanner) (domain.User, error) {
	var (
		u       domain.User
		id      pgtype.UUID
		roles   []string
		credits int64
	)

	if err := s.Scan(&id, &u.Name, &u.Email, &roles, &credits, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return domain.User{}, err
	}

	parsed, err := domain.ParseRoles(roles)
	if err != nil {
		return domain.User{}, err
	}
	u.ID = uuid.UUID(id.Bytes)
	u.Roles = parsed
	u.Credits = domain.CreditsFromCents(credits)
	return u, nil
}
