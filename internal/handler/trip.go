package handler

import (
	"fmt"
	"net/http"

	"github.com/pkordes/carpool/internal/domain"
)

// CreateTrip handles POST /trips.
func (s *Server) CreateTrip(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	var body CreateTripRequest
	if err := decodeJSON(r, &body); err != nil {
		WriteError(w, r, err)
		return
	}

	created, err := s.trips.Create(r.Context(), p, requestToTrip(body))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tripToResponse(created))
}

// ListTrips handles GET /trips.
// Supports ?page= and ?limit= (defaults: page=1, limit=20, max=100) and the
// optional filters ?status=, ?departure_city= and ?arrival_city=.
func (s *Server) ListTrips(w http.ResponseWriter, r *http.Request) {
	params, err := pageParams(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	filter, err := tripFilter(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	page, err := s.trips.List(r.Context(), filter, params)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	data := make([]Trip, len(page.Items))
	for i, t := range page.Items {
		data[i] = tripToResponse(t)
	}
	writeJSON(w, http.StatusOK, TripList{Data: data, Pagination: paginationOf(page)})
}

// GetTrip handles GET /trips/{tripId}.
func (s *Server) GetTrip(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "tripId")
	if err != nil {
		WriteError(w, r, err)
		return
	}
	trip, err := s.trips.GetByID(r.Context(), id)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tripToResponse(trip))
}

// DeleteTrip handles DELETE /trips/{tripId}.
func (s *Server) DeleteTrip(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	id, err := pathUUID(r, "tripId")
	if err != nil {
		WriteError(w, r, err)
		return
	}
	if err := s.trips.Delete(r.Context(), p, id); err != nil {
		WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- mapping helpers --------------------------------------------------------

// requestToTrip converts a CreateTripRequest body into a domain.Trip.
func requestToTrip(body CreateTripRequest) domain.Trip {
	return domain.Trip{
		VehicleID:     body.VehicleId,
		DepartureCity: body.DepartureCity,
		ArrivalCity:   body.ArrivalCity,
		DepartureDate: body.DepartureDate,
		ArrivalDate:   body.ArrivalDate,
		Capacity:      body.Seats,
		Price:         body.Price,
	}
}

func tripFilter(r *http.Request) (domain.TripFilter, error) {
	q := r.URL.Query()
	var f domain.TripFilter

	status, err := queryString(q, "status")
	if err != nil {
		return f, err
	}
	if status != nil {
		st, ok := domain.ParseTripStatus(*status)
		if !ok {
			return f, fmt.Errorf("%w: status must be open or full", domain.ErrValidation)
		}
		f.Status = &st
	}

	dep, err := queryString(q, "departure_city")
	if err != nil {
		return f, err
	}
	arr, err := queryString(q, "arrival_city")
	if err != nil {
		return f, err
	}
	if dep != nil {
		f.DepartureCity = *dep
	}
	if arr != nil {
		f.ArrivalCity = *arr
	}
	return f, nil
}
