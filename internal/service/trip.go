// Package service contains the business logic of the carpool backend.
// Services validate inputs, enforce business rules, and orchestrate repo calls.
// No SQL lives here; services depend on repo interfaces, not implementations.
package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/pkordes/carpool/internal/domain"
	"github.com/pkordes/carpool/internal/repo"
)

// TripService implements business logic for Trip operations.
type TripService struct {
	trips    repo.TripRepo
	vehicles repo.VehicleRepo
}

// NewTripService constructs a TripService backed by the provided repos.
func NewTripService(trips repo.TripRepo, vehicles repo.VehicleRepo) *TripService {
	return &TripService{trips: trips, vehicles: vehicles}
}

// Create validates and persists a new trip driven by the caller.
// The trip offers trip.Capacity seats; AvailableSeats and Status are derived.
func (s *TripService) Create(ctx context.Context, p domain.Principal, trip domain.Trip) (domain.Trip, error) {
	if !p.Can(domain.RoleDriver) {
		return domain.Trip{}, fmt.Errorf("service.TripService.Create: %w", domain.ErrMissingRole)
	}

	trip.DepartureCity = strings.TrimSpace(trip.DepartureCity)
	trip.ArrivalCity = strings.TrimSpace(trip.ArrivalCity)
	if err := validateTrip(trip); err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Create: %w", err)
	}

	vehicle, err := s.vehicles.GetByID(ctx, trip.VehicleID)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Create: %w", domain.NotFoundAs(err, domain.ErrVehicleNotFound))
	}
	if vehicle.OwnerID != p.UserID {
		return domain.Trip{}, fmt.Errorf("service.TripService.Create: %w", domain.ErrNotOwner)
	}
	if trip.Capacity > vehicle.PassengerSeats() {
		return domain.Trip{}, fmt.Errorf("service.TripService.Create: %w: seats must not exceed %d for this vehicle",
			domain.ErrValidation, vehicle.PassengerSeats())
	}

	trip.DriverID = p.UserID
	trip.AvailableSeats = trip.Capacity
	trip.Status = domain.StatusForSeats(trip.Capacity)

	created, err := s.trips.Create(ctx, trip)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Create: %w", err)
	}
	return created, nil
}

func validateTrip(t domain.Trip) error {
	switch {
	case t.DepartureCity == "":
		return fmt.Errorf("%w: departure_city is required", domain.ErrValidation)
	case t.ArrivalCity == "":
		return fmt.Errorf("%w: arrival_city is required", domain.ErrValidation)
	case t.DepartureDate.IsZero():
		return fmt.Errorf("%w: departure_date is required", domain.ErrValidation)
	case !t.ArrivalDate.After(t.DepartureDate):
		return fmt.Errorf("%w: arrival_date must be after departure_date", domain.ErrValidation)
	case t.Price < 0:
		return fmt.Errorf("%w: price must not be negative", domain.ErrValidation)
	case t.Price > domain.MaxCredits:
		return fmt.Errorf("%w: price must not exceed %s", domain.ErrValidation, domain.MaxCredits)
	case t.Capacity < 1:
		return fmt.Errorf("%w: seats must be at least 1", domain.ErrValidation)
	}
	return nil
}

// GetByID returns a single trip by ID.
func (s *TripService) GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	trip, err := s.trips.GetByID(ctx, id)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.GetByID: %w", domain.NotFoundAs(err, domain.ErrTripNotFound))
	}
	return trip, nil
}

// List returns one page of trips matching filter.
func (s *TripService) List(ctx context.Context, filter domain.TripFilter, p domain.PaginationParams) (domain.Page[domain.Trip], error) {
	items, total, err := s.trips.ListPaged(ctx, filter, p)
	if err != nil {
		return domain.Page[domain.Trip]{}, fmt.Errorf("service.TripService.List: %w", err)
	}
	return domain.Page[domain.Trip]{Items: nonNil(items), Total: total, Params: p}, nil
}

// Delete removes a trip. Only its driver or an admin may delete it, and only
// while no booking references it.
func (s *TripService) Delete(ctx context.Context, p domain.Principal, id uuid.UUID) error {
	trip, err := s.trips.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("service.TripService.Delete: %w", domain.NotFoundAs(err, domain.ErrTripNotFound))
	}
	if trip.DriverID != p.UserID && !p.Roles.Has(domain.RoleAdmin) {
		return fmt.Errorf("service.TripService.Delete: %w", domain.ErrNotTripDriver)
	}
	if err := s.trips.Delete(ctx, id); err != nil {
		return fmt.Errorf("service.TripService.Delete: %w", domain.NotFoundAs(err, domain.ErrTripNotFound))
	}
	return nil
}
