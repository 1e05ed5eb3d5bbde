package domain

import (
	"time"

	"github.com/google/uuid"
)

// Vehicle seat-count limits, driver's seat included.
const (
	MinVehicleSeats = 2
	MaxVehicleSeats = 10
)

// Vehicle is a car registered by a driver. SeatCount includes the driver's seat.
type Vehicle struct {
	ID        uuid.UUID
	OwnerID   uuid.UUID
	Make      string
	Model     string
	Plate     string
	SeatCount int
	CreatedAt time.Time
}

// PassengerSeats is the largest number of seats a trip in this vehicle may offer.
func (v Vehicle) PassengerSeats() int { return v.SeatCount - 1 }
