package domain

import (
	"errors"
	"strings"
)

// Error kinds. Every error returned by the service layer wraps exactly one of
// these so handlers can map it to a transport status with errors.Is.
var (
	// ErrNotFound is returned by repo and service functions when the requested
	// resource does not exist in the database.
	// Handlers should map this to HTTP 404.
	ErrNotFound = errors.New("not found")

	// ErrValidation is returned by service functions when input is malformed
	// (e.g. seat count out of range, arrival before departure).
	// Handlers should map this to HTTP 422 Unprocessable Entity.
	ErrValidation = errors.New("validation error")

	// ErrConflict is returned when a business rule rejects the request in the
	// current state of the data. Retrying without changing input will fail again.
	// Handlers should map this to HTTP 409.
	ErrConflict = errors.New("conflict")

	// ErrForbidden is returned when the caller lacks standing for the operation.
	// Handlers should map this to HTTP 403.
	ErrForbidden = errors.New("forbidden")

	// ErrUnauthorized is returned when no valid caller identity is present.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrTransient marks an infrastructure failure (serialization failure,
	// deadlock, lost connection). The transaction was rolled back and the
	// whole request may be retried.
	ErrTransient = errors.New("transient storage error")
)

// reasonError is a specific, human-readable cause that belongs to one kind.
type reasonError struct {
	kind error
	msg  string
}

func (e *reasonError) Error() string { return e.msg }
func (e *reasonError) Unwrap() error { return e.kind }

func reason(kind error, msg string) error {
	return &reasonError{kind: kind, msg: msg}
}

// Not-found reasons.
var (
	ErrUserNotFound    = reason(ErrNotFound, "user not found")
	ErrVehicleNotFound = reason(ErrNotFound, "vehicle not found")
	ErrTripNotFound    = reason(ErrNotFound, "trip not found")
	ErrBookingNotFound = reason(ErrNotFound, "booking not found")
)

// Conflict reasons.
var (
	ErrTripNotOpen         = reason(ErrConflict, "trip is not open")
	ErrNotEnoughSeats      = reason(ErrConflict, "not enough seats")
	ErrOwnTrip             = reason(ErrConflict, "drivers cannot book their own trip")
	ErrInsufficientCredits = reason(ErrConflict, "insufficient credits")
	ErrDuplicateBooking    = reason(ErrConflict, "an active booking already exists for this trip")
	ErrNotPending          = reason(ErrConflict, "booking is not pending")
	ErrAlreadyCancelled    = reason(ErrConflict, "booking is already cancelled")
	ErrTripHasBookings     = reason(ErrConflict, "trip has bookings")
	ErrEmailTaken          = reason(ErrConflict, "email is already registered")
)

// Forbidden reasons.
var (
	ErrNotParticipant = reason(ErrForbidden, "caller is not a participant of this booking")
	ErrNotTripDriver  = reason(ErrForbidden, "caller is not the driver of this trip")
	ErrMissingRole    = reason(ErrForbidden, "caller lacks the required role")
	ErrNotOwner       = reason(ErrForbidden, "caller does not own this resource")
	ErrAdminSignup    = reason(ErrForbidden, "the admin role cannot be self-assigned")
)

// ErrSeatOverflow means a seat release would exceed the trip's capacity.
// It has no kind: it signals a ledger bug and surfaces as an internal failure.
var ErrSeatOverflow = errors.New("seat release exceeds trip capacity")

// Message extracts the human-readable part of a domain error.
// e.g. "service.BookingService.Create: not enough seats" → "not enough seats"
// e.g. "service.TripService.Create: validation error: price must not be negative"
// → "price must not be negative"
func Message(err error) string {
	if err == nil {
		return ""
	}
	var re *reasonError
	if errors.As(err, &re) {
		return re.msg
	}
	msg := err.Error()
	const marker = "validation error: "
	if i := strings.LastIndex(msg, marker); i >= 0 {
		return msg[i+len(marker):]
	}
	return msg
}

// Kind returns a short label for the error's kind, used for metrics and
// error codes. A nil error is "ok"; an error of no known kind is "internal".
func Kind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrTransient):
		return "transient"
	default:
		return "internal"
	}
}

// NotFoundAs replaces a bare ErrNotFound from the repo layer with a specific
// reason, leaving any other error untouched.
func NotFoundAs(err, specific error) error {
	if errors.Is(err, ErrNotFound) {
		return specific
	}
	return err
}
