// Package domain contains the core data types and pure business rules of the
// carpool backend: trips, bookings, the credit ledger and the rules that move
// seats and credits between them.
// This package has no database or HTTP dependencies and is imported by every
// other internal package (repo, service, handler).
package domain

import (
	"time"

	"github.com/google/uuid"
)

// TripStatus is derived from AvailableSeats but persisted alongside it.
type TripStatus string

const (
	TripOpen TripStatus = "open"
	TripFull TripStatus = "full"
)

// StatusForSeats returns the status a trip must have with n seats left.
func StatusForSeats(n int) TripStatus {
	if n == 0 {
		return TripFull
	}
	return TripOpen
}

// ParseTripStatus returns the status named by s.
func ParseTripStatus(s string) (TripStatus, bool) {
	switch TripStatus(s) {
	case TripOpen, TripFull:
		return TripStatus(s), true
	}
	return "", false
}

// Trip is a scheduled ride posted by a driver.
// Capacity is the seat count offered when the trip was posted;
// 0 <= AvailableSeats <= Capacity always holds.
type Trip struct {
	ID             uuid.UUID
	DriverID       uuid.UUID
	VehicleID      uuid.UUID
	DepartureCity  string
	ArrivalCity    string
	DepartureDate  time.Time
	ArrivalDate    time.Time
	Capacity       int
	AvailableSeats int
	Price          Credits // per seat
	Status         TripStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsOpen reports whether the trip accepts new bookings.
func (t Trip) IsOpen() bool { return t.Status == TripOpen }

// TotalPrice is the frozen price of a booking for seats seats.
func (t Trip) TotalPrice(seats int) Credits { return t.Price.Times(seats) }

// TripFilter narrows trip listings. Nil fields are not applied.
type TripFilter struct {
	Status        *TripStatus
	DepartureCity string
	ArrivalCity   string
}
