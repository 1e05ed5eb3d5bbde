package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/carpool/internal/domain"
	"github.com/pkordes/carpool/internal/handler"
	"github.com/pkordes/carpool/internal/middleware"
)

// The mocks below are test doubles for the handler servicer interfaces.
// Set only the method fields your test needs.

type mockUserServicer struct {
	register     func(ctx context.Context, u domain.User) (domain.User, error)
	get          func(ctx context.Context, id uuid.UUID) (domain.User, error)
	grantCredits func(ctx context.Context, p domain.Principal, userID uuid.UUID, amount domain.Credits) (domain.User, error)
}

func (m *mockUserServicer) Register(ctx context.Context, u domain.User) (domain.User, error) {
	return m.register(ctx, u)
}
func (m *mockUserServicer) Get(ctx context.Context, id uuid.UUID) (domain.User, error) {
	return m.get(ctx, id)
}
func (m *mockUserServicer) GrantCredits(ctx context.Context, p domain.Principal, userID uuid.UUID, amount domain.Credits) (domain.User, error) {
	return m.grantCredits(ctx, p, userID, amount)
}

type mockVehicleServicer struct {
	create   func(ctx context.Context, p domain.Principal, v domain.Vehicle) (domain.Vehicle, error)
	listMine func(ctx context.Context, p domain.Principal) ([]domain.Vehicle, error)
}

func (m *mockVehicleServicer) Create(ctx context.Context, p domain.Principal, v domain.Vehicle) (domain.Vehicle, error) {
	return m.create(ctx, p, v)
}
func (m *mockVehicleServicer) ListMine(ctx context.Context, p domain.Principal) ([]domain.Vehicle, error) {
	return m.listMine(ctx, p)
}

type mockTripServicer struct {
	create  func(ctx context.Context, p domain.Principal, trip domain.Trip) (domain.Trip, error)
	getByID func(ctx context.Context, id uuid.UUID) (domain.Trip, error)
	list    func(ctx context.Context, filter domain.TripFilter, params domain.PaginationParams) (domain.Page[domain.Trip], error)
	delete  func(ctx context.Context, p domain.Principal, id uuid.UUID) error
}

func (m *mockTripServicer) Create(ctx context.Context, p domain.Principal, t domain.Trip) (domain.Trip, error) {
	return m.create(ctx, p, t)
}
func (m *mockTripServicer) GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	return m.getByID(ctx, id)
}
func (m *mockTripServicer) List(ctx context.Context, f domain.TripFilter, params domain.PaginationParams) (domain.Page[domain.Trip], error) {
	return m.list(ctx, f, params)
}
func (m *mockTripServicer) Delete(ctx context.Context, p domain.Principal, id uuid.UUID) error {
	return m.delete(ctx, p, id)
}

type mockBookingServicer struct {
	create        func(ctx context.Context, p domain.Principal, tripID uuid.UUID, seatCount int) (domain.Booking, error)
	cancel        func(ctx context.Context, p domain.Principal, bookingID uuid.UUID) (domain.Booking, error)
	validate      func(ctx context.Context, p domain.Principal, bookingID uuid.UUID, action domain.ValidationAction) (domain.Booking, error)
	get           func(ctx context.Context, p domain.Principal, bookingID uuid.UUID) (domain.Booking, error)
	listMine      func(ctx context.Context, p domain.Principal, params domain.PaginationParams) (domain.Page[domain.Booking], error)
	listForDriver func(ctx context.Context, p domain.Principal, params domain.PaginationParams) (domain.Page[domain.Booking], error)
	listForTrip   func(ctx context.Context, p domain.Principal, tripID uuid.UUID) ([]domain.Booking, error)
}

func (m *mockBookingServicer) Create(ctx context.Context, p domain.Principal, tripID uuid.UUID, seatCount int) (domain.Booking, error) {
	return m.create(ctx, p, tripID, seatCount)
}
func (m *mockBookingServicer) Cancel(ctx context.Context, p domain.Principal, id uuid.UUID) (domain.Booking, error) {
	return m.cancel(ctx, p, id)
}
func (m *mockBookingServicer) Validate(ctx context.Context, p domain.Principal, id uuid.UUID, a domain.ValidationAction) (domain.Booking, error) {
	return m.validate(ctx, p, id, a)
}
func (m *mockBookingServicer) Get(ctx context.Context, p domain.Principal, id uuid.UUID) (domain.Booking, error) {
	return m.get(ctx, p, id)
}
func (m *mockBookingServicer) ListMine(ctx context.Context, p domain.Principal, params domain.PaginationParams) (domain.Page[domain.Booking], error) {
	return m.listMine(ctx, p, params)
}
func (m *mockBookingServicer) ListForDriver(ctx context.Context, p domain.Principal, params domain.PaginationParams) (domain.Page[domain.Booking], error) {
	return m.listForDriver(ctx, p, params)
}
func (m *mockBookingServicer) ListForTrip(ctx context.Context, p domain.Principal, tripID uuid.UUID) ([]domain.Booking, error) {
	return m.listForTrip(ctx, p, tripID)
}

type mockStatementServicer struct {
	statement func(ctx context.Context, userID uuid.UUID) ([]domain.StatementRow, error)
}

func (m *mockStatementServicer) Statement(ctx context.Context, userID uuid.UUID) ([]domain.StatementRow, error) {
	return m.statement(ctx, userID)
}

// compile-time checks: every mock must satisfy its handler interface.
var (
	_ handler.UserServicer      = (*mockUserServicer)(nil)
	_ handler.VehicleServicer   = (*mockVehicleServicer)(nil)
	_ handler.TripServicer      = (*mockTripServicer)(nil)
	_ handler.BookingServicer   = (*mockBookingServicer)(nil)
	_ handler.StatementServicer = (*mockStatementServicer)(nil)
)

// ---- helpers ---------------------------------------------------------------

var (
	passenger = domain.Principal{UserID: uuid.New(), Roles: domain.NewRoles(domain.RolePassenger)}
	driver    = domain.Principal{UserID: uuid.New(), Roles: domain.NewRoles(domain.RoleDriver)}
	admin     = domain.Principal{UserID: uuid.New(), Roles: domain.NewRoles(domain.RoleAdmin)}
)

// as returns an authn middleware that authenticates every request as p.
func as(p domain.Principal) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(middleware.ContextWithPrincipal(r.Context(), p)))
		})
	}
}

// anonymous is an authn middleware that rejects every request.
func anonymous(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handler.WriteError(w, r, domain.ErrUnauthorized)
	})
}

// do sends one request through the full router, mirroring main.go's wiring.
func do(t *testing.T, svcs handler.Services, authn func(http.Handler) http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rd = bytes.NewBuffer(raw)
	}

	req := httptest.NewRequest(method, target, rd)
	if rd != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	handler.NewServer(svcs).Handler(authn).ServeHTTP(rec, req)
	return rec
}

// decode unmarshals the recorded body into a T. The recorder keeps its body,
// so raw-text assertions may follow.
func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), "body: %s", rec.Body.String())
	return v
}

// errorCode returns the code of an ErrorResponse body.
func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[handler.ErrorResponse](t, rec).Error.Code
}
