package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/google/uuid"

	"github.com/pkordes/carpool/internal/domain"
	"github.com/pkordes/carpool/internal/repo"
)

// UserService registers users and manages admin credit grants.
type UserService struct {
	users  repo.UserRepo
	ledger repo.LedgerRepo
	tx     coordinator
	log    *slog.Logger
}

// NewUserService constructs a UserService. Grants run through tx.
func NewUserService(users repo.UserRepo, ledger repo.LedgerRepo, tx Transactor, logger *slog.Logger) *UserService {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserService{
		users:  users,
		ledger: ledger,
		tx:     newCoordinator(tx, DefaultTxRetries),
		log:    logger,
	}
}

// Register validates and persists a new user with a zero balance.
func (s *UserService) Register(ctx context.Context, u domain.User) (domain.User, error) {
	u.Name = strings.TrimSpace(u.Name)
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))

	switch {
	case u.Name == "":
		return domain.User{}, fmt.Errorf("service.UserService.Register: %w: name is required", domain.ErrValidation)
	case u.Roles == 0:
		return domain.User{}, fmt.Errorf("service.UserService.Register: %w: at least one role is required", domain.ErrValidation)
	case u.Roles.Has(domain.RoleAdmin):
		// Admins are provisioned directly in the database.
		return domain.User{}, fmt.Errorf("service.UserService.Register: %w", domain.ErrAdminSignup)
	}
	if addr, err := mail.ParseAddress(u.Email); err != nil || addr.Address != u.Email {
		return domain.User{}, fmt.Errorf("service.UserService.Register: %w: email is invalid", domain.ErrValidation)
	}

	u.Credits = 0
	created, err := s.users.Create(ctx, u)
	if err != nil {
		return domain.User{}, fmt.Errorf("service.UserService.Register: %w", err)
	}
	return created, nil
}

// Get returns a user by ID.
func (s *UserService) Get(ctx context.Context, id uuid.UUID) (domain.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return domain.User{}, fmt.Errorf("service.UserService.Get: %w", domain.NotFoundAs(err, domain.ErrUserNotFound))
	}
	return u, nil
}

// GrantCredits adds amount to userID's balance and journals it as a grant.
// Only admins may grant.
func (s *UserService) GrantCredits(ctx context.Context, p domain.Principal, userID uuid.UUID, amount domain.Credits) (domain.User, error) {
	if !p.Roles.Has(domain.RoleAdmin) {
		return domain.User{}, fmt.Errorf("service.UserService.GrantCredits: %w", domain.ErrMissingRole)
	}
	if amount <= 0 {
		return domain.User{}, fmt.Errorf("service.UserService.GrantCredits: %w: amount must be positive", domain.ErrValidation)
	}

	var updated domain.User
	err := s.tx.run(ctx, func(ctx context.Context) error {
		if err := applyCredits(ctx, s.users, s.ledger, userID, nil, domain.LedgerGrant, amount); err != nil {
			return err
		}
		var err error
		updated, err = s.users.GetByID(ctx, userID)
		return err
	})
	if err != nil {
		return domain.User{}, fmt.Errorf("service.UserService.GrantCredits: %w", domain.NotFoundAs(err, domain.ErrUserNotFound))
	}

	s.log.InfoContext(ctx, "credits granted", "user_id", userID, "admin_id", p.UserID, "amount", amount.String())
	return updated, nil
}
