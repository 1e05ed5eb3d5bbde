package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/pkordes/carpool/internal/domain"
)

// CreateBooking handles POST /trips/{tripId}/bookings.
func (s *Server) CreateBooking(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	tripID, err := pathUUID(r, "tripId")
	if err != nil {
		WriteError(w, r, err)
		return
	}
	var body CreateBookingRequest
	if err := decodeJSON(r, &body); err != nil {
		WriteError(w, r, err)
		return
	}

	b, err := s.bookings.Create(r.Context(), p, tripID, body.SeatCount)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, bookingToResponse(b))
}

// ListTripBookings handles GET /trips/{tripId}/bookings. Trip driver only.
func (s *Server) ListTripBookings(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	tripID, err := pathUUID(r, "tripId")
	if err != nil {
		WriteError(w, r, err)
		return
	}

	bs, err := s.bookings.ListForTrip(r.Context(), p, tripID)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, BookingList{Data: bookingsToResponse(bs)})
}

// ListMyBookings handles GET /bookings: the caller's bookings as passenger.
func (s *Server) ListMyBookings(w http.ResponseWriter, r *http.Request) {
	s.listBookings(w, r, s.bookings.ListMine)
}

// ListDriverBookings handles GET /bookings/driver: bookings on the caller's trips.
func (s *Server) ListDriverBookings(w http.ResponseWriter, r *http.Request) {
	s.listBookings(w, r, s.bookings.ListForDriver)
}

type bookingLister func(ctx context.Context, p domain.Principal, params domain.PaginationParams) (domain.Page[domain.Booking], error)

func (s *Server) listBookings(w http.ResponseWriter, r *http.Request, list bookingLister) {
	p, err := principal(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	params, err := pageParams(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	page, err := list(r.Context(), p, params)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	pg := paginationOf(page)
	writeJSON(w, http.StatusOK, BookingList{Data: bookingsToResponse(page.Items), Pagination: &pg})
}

// GetBooking handles GET /bookings/{bookingId}.
func (s *Server) GetBooking(w http.ResponseWriter, r *http.Request) {
	p, id, err := bookingRequest(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	b, err := s.bookings.Get(r.Context(), p, id)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bookingToResponse(b))
}

// CancelBooking handles POST /bookings/{bookingId}/cancel.
func (s *Server) CancelBooking(w http.ResponseWriter, r *http.Request) {
	p, id, err := bookingRequest(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	b, err := s.bookings.Cancel(r.Context(), p, id)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bookingToResponse(b))
}

// ValidateBooking handles POST /bookings/{bookingId}/validate with
// {"action": "accept" | "reject"}. Trip driver only.
func (s *Server) ValidateBooking(w http.ResponseWriter, r *http.Request) {
	p, id, err := bookingRequest(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	var body ValidateBookingRequest
	if err := decodeJSON(r, &body); err != nil {
		WriteError(w, r, err)
		return
	}
	action, err := domain.ParseValidationAction(body.Action)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	b, err := s.bookings.Validate(r.Context(), p, id, action)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bookingToResponse(b))
}

func bookingRequest(r *http.Request) (domain.Principal, uuid.UUID, error) {
	p, err := principal(r)
	if err != nil {
		return domain.Principal{}, uuid.Nil, err
	}
	id, err := pathUUID(r, "bookingId")
	if err != nil {
		return domain.Principal{}, uuid.Nil, err
	}
	return p, id, nil
}
