package domain

import "time"

// StatementRow is a single row in a user's credit statement.
// It is a flat, denormalized view: one row per ledger entry, with the route of
// the booking's trip repeated on every entry that belongs to a booking.
// Entries without a booking (grants) have empty booking and route fields.
type StatementRow struct {
	EntryID      string
	CreatedAt    time.Time
	Kind         LedgerKind
	Amount       Credits
	BalanceAfter Credits

	// Booking fields, empty when the entry is not tied to a booking.
	BookingID     string
	DepartureCity string
	ArrivalCity   string
	DepartureDate *time.Time
}
