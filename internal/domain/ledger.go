package domain

import (
	"time"

	"github.com/google/uuid"
)

// LedgerKind classifies a credit movement.
type LedgerKind string

const (
	LedgerGrant          LedgerKind = "grant"           // admin top-up
	LedgerBookingDebit   LedgerKind = "booking_debit"   // passenger pays into escrow
	LedgerDriverPayout   LedgerKind = "driver_payout"   // escrow released to driver on accept
	LedgerRefund         LedgerKind = "refund"          // passenger refunded on reject/cancel
	LedgerRefundClawback LedgerKind = "refund_clawback" // driver returns a refund after accept
)

// LedgerEntry is one immutable credit movement. Amount is signed: negative
// for debits. BalanceAfter is the user's balance once the entry applied.
type LedgerEntry struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	BookingID    *uuid.UUID
	Kind         LedgerKind
	Amount       Credits
	BalanceAfter Credits
	CreatedAt    time.Time
}
