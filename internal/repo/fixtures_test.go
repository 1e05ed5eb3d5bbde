package repo_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/carpool/internal/domain"
	"github.com/pkordes/carpool/internal/repo"
	"github.com/pkordes/carpool/testutil"
)

// repos bundles every repo over one per-test transaction that is rolled back
// when the test finishes, giving free per-test isolation.
type repos struct {
	users    repo.UserRepo
	vehicles repo.VehicleRepo
	trips    repo.TripRepo
	bookings repo.BookingRepo
	ledger   repo.LedgerRepo
}

func newTestRepos(t *testing.T) repos {
	t.Helper()
	tx := testutil.NewTx(t)
	return repos{
		users:    repo.NewUserRepo(tx),
		vehicles: repo.NewVehicleRepo(tx),
		trips:    repo.NewTripRepo(tx),
		bookings: repo.NewBookingRepo(tx),
		ledger:   repo.NewLedgerRepo(tx),
	}
}

// user inserts a user with a unique email and the given balance.
func (r repos) user(t *testing.T, roles domain.Roles, credits domain.Credits) domain.User {
	t.Helper()
	ctx := context.Background()

	u, err := r.users.Create(ctx, domain.User{
		Name:  "Test User",
		Email: uuid.NewString() + "@example.com",
		Roles: roles,
	})
	require.NoError(t, err, "create user")
	if credits > 0 {
		u, err = r.users.AdjustCredits(ctx, u.ID, credits)
		require.NoError(t, err, "fund user")
	}
	return u
}

// trip inserts a driver, a five-seat vehicle and a trip offering seats seats.
func (r repos) trip(t *testing.T, seats int, price domain.Credits) domain.Trip {
	t.Helper()
	ctx := context.Background()

	driver := r.user(t, domain.NewRoles(domain.RoleDriver), 0)
	v, err := r.vehicles.Create(ctx, domain.Vehicle{
		OwnerID: driver.ID, Make: "Renault", Model: "Clio", Plate: "AB-123-CD", SeatCount: 5,
	})
	require.NoError(t, err, "create vehicle")

	dep := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	trip, err := r.trips.Create(ctx, domain.Trip{
		DriverID:       driver.ID,
		VehicleID:      v.ID,
		DepartureCity:  "Lyon",
		ArrivalCity:    "Paris",
		DepartureDate:  dep,
		ArrivalDate:    dep.Add(5 * time.Hour),
		Capacity:       seats,
		AvailableSeats: seats,
		Price:          price,
	})
	require.NoError(t, err, "create trip")
	return trip
}

// booking inserts a pending booking of seats seats by passengerID.
func (r repos) booking(t *testing.T, trip domain.Trip, passengerID uuid.UUID, seats int) domain.Booking {
	t.Helper()
	b, err := r.bookings.Create(context.Background(), domain.Booking{
		TripID:     trip.ID,
		UserID:     passengerID,
		SeatCount:  seats,
		TotalPrice: trip.TotalPrice(seats),
		Status:     domain.BookingPending,
	})
	require.NoError(t, err, "create booking")
	return b
}
