package handler

import (
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/carpool/internal/domain"
)

// Wire types for the JSON API. Field names and shapes follow spec/openapi.yaml.

// ErrorDetail is the body of every non-2xx response.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps ErrorDetail as {"error": {...}}.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// Pagination describes the page a list response holds.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

func paginationOf[T any](p domain.Page[T]) Pagination {
	return Pagination{Page: p.Params.Page, Limit: p.Params.Limit, Total: p.Total}
}

type HealthResponse struct {
	Status string `json:"status"`
}

// ---- users -----------------------------------------------------------------

type CreateUserRequest struct {
	Name  string   `json:"name"`
	Email string   `json:"email"`
	Roles []string `json:"roles"`
}

type GrantCreditsRequest struct {
	Amount domain.Credits `json:"amount"`
}

type User struct {
	Id        openapi_types.UUID `json:"id"`
	Name      string             `json:"name"`
	Email     string             `json:"email"`
	Roles     domain.Roles       `json:"roles"`
	Credits   domain.Credits     `json:"credits"`
	CreatedAt time.Time          `json:"created_at"`
}

func userToResponse(u domain.User) User {
	return User{
		Id:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Roles:     u.Roles,
		Credits:   u.Credits,
		CreatedAt: u.CreatedAt,
	}
}

// ---- vehicles --------------------------------------------------------------

type CreateVehicleRequest struct {
	Make      string `json:"make"`
	Model     string `json:"model"`
	Plate     string `json:"plate"`
	SeatCount int    `json:"seat_count"`
}

type Vehicle struct {
	Id        openapi_types.UUID `json:"id"`
	OwnerId   openapi_types.UUID `json:"owner_id"`
	Make      string             `json:"make"`
	Model     string             `json:"model"`
	Plate     string             `json:"plate"`
	SeatCount int                `json:"seat_count"`
	CreatedAt time.Time          `json:"created_at"`
}

func vehicleToResponse(v domain.Vehicle) Vehicle {
	return Vehicle{
		Id:        v.ID,
		OwnerId:   v.OwnerID,
		Make:      v.Make,
		Model:     v.Model,
		Plate:     v.Plate,
		SeatCount: v.SeatCount,
		CreatedAt: v.CreatedAt,
	}
}

// ---- trips -----------------------------------------------------------------

type CreateTripRequest struct {
	VehicleId     openapi_types.UUID `json:"vehicle_id"`
	DepartureCity string             `json:"departure_city"`
	ArrivalCity   string             `json:"arrival_city"`
	DepartureDate time.Time          `json:"departure_date"`
	ArrivalDate   time.Time          `json:"arrival_date"`
	Seats         int                `json:"seats"`
	Price         domain.Credits     `json:"price"`
}

type Trip struct {
	Id             openapi_types.UUID `json:"id"`
	DriverId       openapi_types.UUID `json:"driver_id"`
	VehicleId      openapi_types.UUID `json:"vehicle_id"`
	DepartureCity  string             `json:"departure_city"`
	ArrivalCity    string             `json:"arrival_city"`
	DepartureDate  time.Time          `json:"departure_date"`
	ArrivalDate    time.Time          `json:"arrival_date"`
	Capacity       int                `json:"capacity"`
	AvailableSeats int                `json:"available_seats"`
	Price          domain.Credits     `json:"price"`
	Status         domain.TripStatus  `json:"status"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

type TripList struct {
	Data       []Trip     `json:"data"`
	Pagination Pagination `json:"pagination"`
}

func tripToResponse(t domain.Trip) Trip {
	return Trip{
		Id:             t.ID,
		DriverId:       t.DriverID,
		VehicleId:      t.VehicleID,
		DepartureCity:  t.DepartureCity,
		ArrivalCity:    t.ArrivalCity,
		DepartureDate:  t.DepartureDate,
		ArrivalDate:    t.ArrivalDate,
		Capacity:       t.Capacity,
		AvailableSeats: t.AvailableSeats,
		Price:          t.Price,
		Status:         t.Status,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
}

// ---- bookings --------------------------------------------------------------

type CreateBookingRequest struct {
	SeatCount int `json:"seat_count"`
}

type ValidateBookingRequest struct {
	Action string `json:"action"`
}

type Booking struct {
	Id          openapi_types.UUID   `json:"id"`
	TripId      openapi_types.UUID   `json:"trip_id"`
	UserId      openapi_types.UUID   `json:"user_id"`
	SeatCount   int                  `json:"seat_count"`
	TotalPrice  domain.Credits       `json:"total_price"`
	Status      domain.BookingStatus `json:"status"`
	CancellerId *openapi_types.UUID  `json:"canceller_id,omitempty"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

type BookingList struct {
	Data       []Booking   `json:"data"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

func bookingToResponse(b domain.Booking) Booking {
	return Booking{
		Id:          b.ID,
		TripId:      b.TripID,
		UserId:      b.UserID,
		SeatCount:   b.SeatCount,
		TotalPrice:  b.TotalPrice,
		Status:      b.Status,
		CancellerId: b.CancellerID,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}

func bookingsToResponse(bs []domain.Booking) []Booking {
	out := make([]Booking, len(bs))
	for i, b := range bs {
		out[i] = bookingToResponse(b)
	}
	return out
}

// ---- ledger ----------------------------------------------------------------

type StatementRow struct {
	EntryId       string              `json:"entry_id"`
	CreatedAt     time.Time           `json:"created_at"`
	Kind          domain.LedgerKind   `json:"kind"`
	Amount        domain.Credits      `json:"amount"`
	BalanceAfter  domain.Credits      `json:"balance_after"`
	BookingId     *string             `json:"booking_id,omitempty"`
	DepartureCity *string             `json:"departure_city,omitempty"`
	ArrivalCity   *string             `json:"arrival_city,omitempty"`
	DepartureDate *openapi_types.Date `json:"departure_date,omitempty"`
}
