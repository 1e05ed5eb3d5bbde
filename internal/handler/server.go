// Package handler implements the HTTP handlers for the carpool API.
// All handlers are methods on Server. Methods are split into domain-specific
// files (health.go, trip.go, booking.go, etc.) but all share the same Server
// struct so they can access its dependencies.
package handler

import (
	"context"

	"github.com/google/uuid"

	"github.com/pkordes/carpool/internal/domain"
)

// The servicer interfaces below describe the business operations the handlers
// depend on. Defining them here (in the consumer package) lets handler tests
// inject a mock without touching the database or service layer.

type UserServicer interface {
	Register(ctx context.Context, u domain.User) (domain.User, error)
	Get(ctx context.Context, id uuid.UUID) (domain.User, error)
	GrantCredits(ctx context.Context, p domain.Principal, userID uuid.UUID, amount domain.Credits) (domain.User, error)
}

type VehicleServicer interface {
	Create(ctx context.Context, p domain.Principal, v domain.Vehicle) (domain.Vehicle, error)
	ListMine(ctx context.Context, p domain.Principal) ([]domain.Vehicle, error)
}

type TripServicer interface {
	Create(ctx context.Context, p domain.Principal, trip domain.Trip) (domain.Trip, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error)
	List(ctx context.Context, filter domain.TripFilter, params domain.PaginationParams) (domain.Page[domain.Trip], error)
	Delete(ctx context.Context, p domain.Principal, id uuid.UUID) error
}

type BookingServicer interface {
	Create(ctx context.Context, p domain.Principal, tripID uuid.UUID, seatCount int) (domain.Booking, error)
	Cancel(ctx context.Context, p domain.Principal, bookingID uuid.UUID) (domain.Booking, error)
	Validate(ctx context.Context, p domain.Principal, bookingID uuid.UUID, action domain.ValidationAction) (domain.Booking, error)
	Get(ctx context.Context, p domain.Principal, bookingID uuid.UUID) (domain.Booking, error)
	ListMine(ctx context.Context, p domain.Principal, params domain.PaginationParams) (domain.Page[domain.Booking], error)
	ListForDriver(ctx context.Context, p domain.Principal, params domain.PaginationParams) (domain.Page[domain.Booking], error)
	ListForTrip(ctx context.Context, p domain.Principal, tripID uuid.UUID) ([]domain.Booking, error)
}

type StatementServicer interface {
	Statement(ctx context.Context, userID uuid.UUID) ([]domain.StatementRow, error)
}

// Services groups the Server's dependencies. A nil servicer is fine as long
// as no route using it is hit.
type Services struct {
	Users      UserServicer
	Vehicles   VehicleServicer
	Trips      TripServicer
	Bookings   BookingServicer
	Statements StatementServicer
}

// Server serves every API endpoint. Mount it with Server.Handler.
type Server struct {
	users      UserServicer
	vehicles   VehicleServicer
	trips      TripServicer
	bookings   BookingServicer
	statements StatementServicer
}

// NewServer constructs the Server with all its dependencies.
func NewServer(s Services) *Server {
	return &Server{
		users:      s.Users,
		vehicles:   s.Vehicles,
		trips:      s.Trips,
		bookings:   s.Bookings,
		statements: s.Statements,
	}
}

// NewHealthHandler returns a Server for health-check-only use.
func NewHealthHandler() *Server {
	return NewServer(Services{})
}
