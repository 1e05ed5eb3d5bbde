package handler

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pkordes/carpool/internal/domain"
)

// Handler returns the API router. Health, registration and trip browsing are
// public; every other route runs behind authn, which must store a
// domain.Principal on the request context (see middleware.Authenticator).
func (s *Server) Handler(authn func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, r, fmt.Errorf("%w: no route for %s", domain.ErrNotFound, r.URL.Path))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Error: ErrorDetail{
			Code: "method_not_allowed", Message: "method not allowed",
		}})
	})

	r.Get("/healthz", s.GetHealth)
	r.Post("/users", s.CreateUser)
	r.Get("/trips", s.ListTrips)
	r.Get("/trips/{tripId}", s.GetTrip)

	r.Group(func(r chi.Router) {
		r.Use(authn)

		r.Get("/users/me", s.GetMe)
		r.Get("/users/me/ledger", s.GetLedger)
		r.Post("/users/{userId}/credits", s.GrantCredits)

		r.Post("/vehicles", s.CreateVehicle)
		r.Get("/vehicles", s.ListVehicles)

		r.Post("/trips", s.CreateTrip)
		r.Delete("/trips/{tripId}", s.DeleteTrip)
		r.Post("/trips/{tripId}/bookings", s.CreateBooking)
		r.Get("/trips/{tripId}/bookings", s.ListTripBookings)

		r.Get("/bookings", s.ListMyBookings)
		r.Get("/bookings/driver", s.ListDriverBookings)
		r.Get("/bookings/{bookingId}", s.GetBooking)
		r.Post("/bookings/{bookingId}/cancel", s.CancelBooking)
		r.Post("/bookings/{bookingId}/validate", s.ValidateBooking)
	})

	return r
}
