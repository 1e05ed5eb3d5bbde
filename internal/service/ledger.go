package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/pkordes/carpool/internal/domain"
	"github.com/pkordes/carpool/internal/repo"
)

// applyCredits is the single credit-mutation primitive: it adjusts the
// balance and journals the movement. It must run inside a transaction so the
// balance and its journal entry commit together.
func applyCredits(ctx context.Context, users repo.UserRepo, ledger repo.LedgerRepo,
	userID uuid.UUID, bookingID *uuid.UUID, kind domain.LedgerKind, delta domain.Credits) error {
	if delta == 0 {
		return nil
	}

	u, err := users.AdjustCredits(ctx, userID, delta)
	if err != nil {
		return domain.NotFoundAs(err, domain.ErrUserNotFound)
	}

	_, err = ledger.Append(ctx, domain.LedgerEntry{
		UserID:       userID,
		BookingID:    bookingID,
		Kind:         kind,
		Amount:       delta,
		BalanceAfter: u.Credits,
	})
	return err
}
