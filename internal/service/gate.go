package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/pkordes/carpool/internal/domain"
	"github.com/pkordes/carpool/internal/repo"
)

// AvailabilityGate is the read-only pre-booking check. It reads the trip once
// and evaluates every rule against that single snapshot.
type AvailabilityGate struct {
	trips    repo.TripRepo
	bookings repo.BookingRepo
}

// NewAvailabilityGate constructs a gate over the trip and booking stores.
func NewAvailabilityGate(trips repo.TripRepo, bookings repo.BookingRepo) *AvailabilityGate {
	return &AvailabilityGate{trips: trips, bookings: bookings}
}

// Check reports whether user may book seatCount seats on tripID and returns
// the trip snapshot it evaluated. Rejections, in order: trip not found, trip
// not open, not enough seats, own trip, insufficient credits, an active
// booking already exists.
//
// Passing the gate is advisory: seats and credits are re-checked by the
// conditional writes inside the booking transaction.
func (g *AvailabilityGate) Check(ctx context.Context, user domain.User, tripID uuid.UUID, seatCount int) (domain.Trip, error) {
	trip, err := g.trips.GetByID(ctx, tripID)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.AvailabilityGate.Check: %w", domain.NotFoundAs(err, domain.ErrTripNotFound))
	}

	if err := domain.CheckBookable(user, trip, seatCount); err != nil {
		return domain.Trip{}, fmt.Errorf("service.AvailabilityGate.Check: %w", err)
	}

	_, err = g.bookings.FindActive(ctx, tripID, user.ID)
	switch {
	case err == nil:
		return domain.Trip{}, fmt.Errorf("service.AvailabilityGate.Check: %w", domain.ErrDuplicateBooking)
	case !errors.Is(err, domain.ErrNotFound):
		return domain.Trip{}, fmt.Errorf("service.AvailabilityGate.Check: %w", err)
	}

	return trip, nil
}
