package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkordes/carpool/internal/domain"
	"github.com/pkordes/carpool/internal/repo"
)

// VehicleService registers and lists drivers' vehicles.
type VehicleService struct {
	vehicles repo.VehicleRepo
}

// NewVehicleService constructs a VehicleService backed by the provided repo.
func NewVehicleService(r repo.VehicleRepo) *VehicleService {
	return &VehicleService{vehicles: r}
}

// Create registers a vehicle owned by the caller.
func (s *VehicleService) Create(ctx context.Context, p domain.Principal, v domain.Vehicle) (domain.Vehicle, error) {
	if !p.Can(domain.RoleDriver) {
		return domain.Vehicle{}, fmt.Errorf("service.VehicleService.Create: %w", domain.ErrMissingRole)
	}

	v.Make = strings.TrimSpace(v.Make)
	v.Model = strings.TrimSpace(v.Model)
	v.Plate = strings.ToUpper(strings.TrimSpace(v.Plate))
	switch {
	case v.Make == "" || v.Model == "":
		return domain.Vehicle{}, fmt.Errorf("service.VehicleService.Create: %w: make and model are required", domain.ErrValidation)
	case v.Plate == "":
		return domain.Vehicle{}, fmt.Errorf("service.VehicleService.Create: %w: plate is required", domain.ErrValidation)
	case v.SeatCount < domain.MinVehicleSeats || v.SeatCount > domain.MaxVehicleSeats:
		return domain.Vehicle{}, fmt.Errorf("service.VehicleService.Create: %w: seat_count must be between %d and %d",
			domain.ErrValidation, domain.MinVehicleSeats, domain.MaxVehicleSeats)
	}

	v.OwnerID = p.UserID
	created, err := s.vehicles.Create(ctx, v)
	if err != nil {
		return domain.Vehicle{}, fmt.Errorf("service.VehicleService.Create: %w", err)
	}
	return created, nil
}

// ListMine returns the caller's vehicles.
func (s *VehicleService) ListMine(ctx context.Context, p domain.Principal) ([]domain.Vehicle, error) {
	vs, err := s.vehicles.ListByOwner(ctx, p.UserID)
	if err != nil {
		return nil, fmt.Errorf("service.VehicleService.ListMine: %w", err)
	}
	return nonNil(vs), nil
}
