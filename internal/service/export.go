package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/pkordes/carpool/internal/domain"
	"github.com/pkordes/carpool/internal/repo"
)

// StatementService serves a user's flat credit statement: every ledger
// entry, joined with the route of the booking it belongs to.
type StatementService struct {
	ledger repo.LedgerRepo
}

// NewStatementService constructs a StatementService backed by the ledger repo.
func NewStatementService(ledger repo.LedgerRepo) *StatementService {
	return &StatementService{ledger: ledger}
}

// Statement returns one StatementRow per ledger entry of userID, oldest first.
// Entries not tied to a booking (grants) carry empty route fields.
func (s *StatementService) Statement(ctx context.Context, userID uuid.UUID) ([]domain.StatementRow, error) {
	rows, err := s.ledger.Statement(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service.StatementService.Statement: %w", err)
	}
	if rows == nil {
		rows = []domain.StatementRow{}
	}
	return rows, nil
}
