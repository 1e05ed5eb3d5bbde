package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Seats a single booking may request.
const (
	MinBookingSeats = 1
	MaxBookingSeats = 10
)

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
)

// validTransitions is the booking state machine. Cancelled is terminal.
var validTransitions = map[BookingStatus][]BookingStatus{
	BookingPending:   {BookingConfirmed, BookingCancelled},
	BookingConfirmed: {BookingCancelled},
	BookingCancelled: {},
}

// CanTransitionTo reports whether moving from s to target is allowed.
func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	for _, t := range validTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition leaves s.
func (s BookingStatus) IsTerminal() bool { return len(validTransitions[s]) == 0 }

// IsActive reports whether a booking in s holds seats.
func (s BookingStatus) IsActive() bool {
	return s == BookingPending || s == BookingConfirmed
}

// Booking is a passenger's reservation of seats on a trip.
// TotalPrice is frozen at creation; later trip price changes do not affect it.
// CancellerID is set only once the booking is cancelled.
type Booking struct {
	ID          uuid.UUID
	TripID      uuid.UUID
	UserID      uuid.UUID
	SeatCount   int
	TotalPrice  Credits
	Status      BookingStatus
	CancellerID *uuid.UUID
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ValidationAction is the driver's decision on a pending booking.
type ValidationAction string

const (
	ActionAccept ValidationAction = "accept"
	ActionReject ValidationAction = "reject"
)

// ParseValidationAction returns the action named by s.
func ParseValidationAction(s string) (ValidationAction, error) {
	switch ValidationAction(s) {
	case ActionAccept, ActionReject:
		return ValidationAction(s), nil
	}
	return "", fmt.Errorf("%w: action must be accept or reject", ErrValidation)
}

// ValidateSeatCount checks a requested seat count against the booking limits.
func ValidateSeatCount(n int) error {
	if n < MinBookingSeats || n > MaxBookingSeats {
		return fmt.Errorf("%w: seat_count must be between %d and %d", ErrValidation, MinBookingSeats, MaxBookingSeats)
	}
	return nil
}
