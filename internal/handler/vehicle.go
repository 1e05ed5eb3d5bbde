package handler

import (
	"net/http"

	"github.com/pkordes/carpool/internal/domain"
)

// CreateVehicle handles POST /vehicles.
func (s *Server) CreateVehicle(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	var body CreateVehicleRequest
	if err := decodeJSON(r, &body); err != nil {
		WriteError(w, r, err)
		return
	}

	created, err := s.vehicles.Create(r.Context(), p, domain.Vehicle{
		Make:      body.Make,
		Model:     body.Model,
		Plate:     body.Plate,
		SeatCount: body.SeatCount,
	})
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, vehicleToResponse(created))
}

// ListVehicles handles GET /vehicles: the caller's own vehicles.
func (s *Server) ListVehicles(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	vs, err := s.vehicles.ListMine(r.Context(), p)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	out := make([]Vehicle, len(vs))
	for i, v := range vs {
		out[i] = vehicleToResponse(v)
	}
	writeJSON(w, http.StatusOK, out)
}
