package domain

// CheckBookable applies the availability rules that need only the trip and
// user snapshots, in priority order: trip open, enough seats, not the
// driver's own trip, enough credits. Trip existence and duplicate-booking
// checks need storage and live in the service's availability gate.
func CheckBookable(user User, trip Trip, seatCount int) error {
	switch {
	case !trip.IsOpen():
		return ErrTripNotOpen
	case seatCount > trip.AvailableSeats:
		return ErrNotEnoughSeats
	case user.ID == trip.DriverID:
		return ErrOwnTrip
	case user.Credits < trip.TotalPrice(seatCount):
		return ErrInsufficientCredits
	}
	return nil
}
