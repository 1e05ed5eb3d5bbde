package domain

import "github.com/google/uuid"

// PenaltyPercent is the share of a confirmed booking's price kept for the
// driver when the passenger cancels.
const PenaltyPercent = 20

// Settlement is how a cancelled booking's price is split.
// PenaltyToDriver + RefundToPassenger == booking.TotalPrice.
type Settlement struct {
	PenaltyToDriver   Credits
	RefundToPassenger Credits
}

// ComputePenalty splits the booking's price for a cancellation by cancellerID.
// A driver cancellation, or any cancellation of a booking the driver has not
// accepted yet, refunds in full. A passenger cancelling a confirmed booking
// forfeits PenaltyPercent.
func ComputePenalty(trip Trip, booking Booking, cancellerID uuid.UUID) Settlement {
	if cancellerID == trip.DriverID || booking.Status == BookingPending {
		return Settlement{RefundToPassenger: booking.TotalPrice}
	}
	penalty := booking.TotalPrice.Percent(PenaltyPercent)
	return Settlement{
		PenaltyToDriver:   penalty,
		RefundToPassenger: booking.TotalPrice - penalty,
	}
}
