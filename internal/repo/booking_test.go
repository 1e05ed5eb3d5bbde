package repo_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/carpool/internal/domain"
)

func TestBookingRepo_Create(t *testing.T) {
	r := newTestRepos(t)
	trip := r.trip(t, 3, 2500)
	passenger := r.user(t, domain.NewRoles(domain.RolePassenger), 0)

	got := r.booking(t, trip, passenger.ID, 2)

	assert.NotEqual(t, uuid.Nil, got.ID)
	assert.Equal(t, domain.BookingPending, got.Status)
	assert.Equal(t, domain.Credits(5000), got.TotalPrice)
	assert.Nil(t, got.CancellerID)
}

func TestBookingRepo_Create_DuplicateActive(t *testing.T) {
	r := newTestRepos(t)
	trip := r.trip(t, 3, 2500)
	passenger := r.user(t, domain.NewRoles(domain.RolePassenger), 0)
	r.booking(t, trip, passenger.ID, 1)

	_, err := r.bookings.Create(context.Background(), domain.Booking{
		TripID: trip.ID, UserID: passenger.ID, SeatCount: 1, TotalPrice: 2500, Status: domain.BookingPending,
	})

	// The failed insert aborts the test transaction; nothing may run after it.
	assert.ErrorIs(t, err, domain.ErrDuplicateBooking)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestBookingRepo_CancelledDoesNotBlockRebooking(t *testing.T) {
	r := newTestRepos(t)
	ctx := context.Background()
	trip := r.trip(t, 3, 2500)
	passenger := r.user(t, domain.NewRoles(domain.RolePassenger), 0)
	first := r.booking(t, trip, passenger.ID, 1)

	cancelled, err := r.bookings.UpdateStatus(ctx, first.ID, domain.BookingCancelled, &passenger.ID)
	require.NoError(t, err)
	require.NotNil(t, cancelled.CancellerID)
	assert.Equal(t, passenger.ID, *cancelled.CancellerID)

	_, err = r.bookings.FindActive(ctx, trip.ID, passenger.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	second := r.booking(t, trip, passenger.ID, 1)
	active, err := r.bookings.FindActive(ctx, trip.ID, passenger.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, active.ID)
}

func TestBookingRepo_UpdateStatus_Confirm(t *testing.T) {
	r := newTestRepos(t)
	ctx := context.Background()
	trip := r.trip(t, 3, 2500)
	passenger := r.user(t, domain.NewRoles(domain.RolePassenger), 0)
	b := r.booking(t, trip, passenger.ID, 1)

	got, err := r.bookings.UpdateStatus(ctx, b.ID, domain.BookingConfirmed, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingConfirmed, got.Status)
	assert.Nil(t, got.CancellerID)

	locked, err := r.bookings.GetByIDForUpdate(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingConfirmed, locked.Status)
}

func TestBookingRepo_GetByID_NotFound(t *testing.T) {
	r := newTestRepos(t)

	_, err := r.bookings.GetByID(context.Background(), uuid.New())

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBookingRepo_Lists(t *testing.T) {
	r := newTestRepos(t)
	ctx := context.Background()
	trip := r.trip(t, 3, 2500)
	alice := r.user(t, domain.NewRoles(domain.RolePassenger), 0)
	bob := r.user(t, domain.NewRoles(domain.RolePassenger), 0)
	a := r.booking(t, trip, alice.ID, 1)
	b := r.booking(t, trip, bob.ID, 2)

	mine, total, err := r.bookings.ListByUser(ctx, alice.ID, domain.PaginationParams{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, mine, 1)
	assert.Equal(t, a.ID, mine[0].ID)

	driven, total, err := r.bookings.ListByDriver(ctx, trip.DriverID, domain.PaginationParams{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, driven, 2)

	onTrip, err := r.bookings.ListByTrip(ctx, trip.ID)
	require.NoError(t, err)
	require.Len(t, onTrip, 2)
	assert.ElementsMatch(t, []uuid.UUID{a.ID, b.ID}, []uuid.UUID{onTrip[0].ID, onTrip[1].ID})
}
