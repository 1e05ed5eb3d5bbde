package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/carpool/internal/domain"
	"github.com/pkordes/carpool/internal/metrics"
	"github.com/pkordes/carpool/internal/repo"
)

// Transition names used in logs and metrics.
const (
	transitionCreate = "create"
	transitionAccept = "accept"
	transitionReject = "reject"
	transitionCancel = "cancel"

	// transitionValidate labels a validate call with an unknown action.
	transitionValidate = "validate"
)

// BookingOptions tunes a BookingService. The zero value is usable.
type BookingOptions struct {
	// SeatPolicy defaults to domain.SeatPolicyHold.
	SeatPolicy domain.SeatPolicy
	// MaxRetries bounds transient-failure retries; 0 means DefaultTxRetries.
	MaxRetries uint64
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Stores groups the repositories the booking engine reads and writes.
type Stores struct {
	Users    repo.UserRepo
	Trips    repo.TripRepo
	Bookings repo.BookingRepo
	Ledger   repo.LedgerRepo
}

// BookingService is the booking state machine. Every transition moves the
// trip's seat count and the participants' credits in one transaction.
type BookingService struct {
	users    repo.UserRepo
	trips    repo.TripRepo
	bookings repo.BookingRepo
	ledger   repo.LedgerRepo
	gate     *AvailabilityGate
	tx       coordinator
	policy   domain.SeatPolicy
	log      *slog.Logger
}

// NewBookingService constructs a BookingService over the given stores and
// transaction manager.
func NewBookingService(s Stores, tx Transactor, opts BookingOptions) *BookingService {
	if opts.SeatPolicy == "" {
		opts.SeatPolicy = domain.SeatPolicyHold
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = DefaultTxRetries
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &BookingService{
		users:    s.Users,
		trips:    s.Trips,
		bookings: s.Bookings,
		ledger:   s.Ledger,
		gate:     NewAvailabilityGate(s.Trips, s.Bookings),
		tx:       newCoordinator(tx, opts.MaxRetries),
		policy:   opts.SeatPolicy,
		log:      opts.Logger,
	}
}

// Create books seatCount seats on tripID for the calling passenger. The
// passenger is debited price × seatCount into escrow and the booking starts
// pending.
func (s *BookingService) Create(ctx context.Context, p domain.Principal, tripID uuid.UUID, seatCount int) (_ domain.Booking, err error) {
	defer func() { metrics.ObserveTransition(transitionCreate, err) }()

	if err := domain.ValidateSeatCount(seatCount); err != nil {
		return domain.Booking{}, fmt.Errorf("service.BookingService.Create: %w", err)
	}
	if !p.Can(domain.RolePassenger) {
		return domain.Booking{}, fmt.Errorf("service.BookingService.Create: %w", domain.ErrMissingRole)
	}

	user, err := s.users.GetByID(ctx, p.UserID)
	if err != nil {
		return domain.Booking{}, fmt.Errorf("service.BookingService.Create: %w", domain.NotFoundAs(err, domain.ErrUserNotFound))
	}
	if _, err := s.gate.Check(ctx, user, tripID, seatCount); err != nil {
		return domain.Booking{}, fmt.Errorf("service.BookingService.Create: %w", err)
	}

	var created domain.Booking
	err = s.inTx(ctx, transitionCreate, func(ctx context.Context) error {
		// The conditional decrement is the authoritative seat check.
		trip, err := s.trips.ReserveSeats(ctx, tripID, seatCount)
		if err != nil {
			return domain.NotFoundAs(err, domain.ErrTripNotFound)
		}

		created, err = s.bookings.Create(ctx, domain.Booking{
			TripID:     tripID,
			UserID:     user.ID,
			SeatCount:  seatCount,
			TotalPrice: trip.TotalPrice(seatCount),
			Status:     domain.BookingPending,
		})
		if err != nil {
			return err
		}

		return applyCredits(ctx, s.users, s.ledger, user.ID, &created.ID, domain.LedgerBookingDebit, -created.TotalPrice)
	})
	if err != nil {
		return domain.Booking{}, fmt.Errorf("service.BookingService.Create: %w", err)
	}

	s.log.InfoContext(ctx, "booking created",
		"booking_id", created.ID,
		"trip_id", tripID,
		"user_id", user.ID,
		"seats", seatCount,
		"total_price", created.TotalPrice.String(),
	)
	return created, nil
}

// Validate applies the trip driver's decision to a pending booking.
// Accepting pays the escrowed price to the driver; rejecting refunds the
// passenger and cancels the booking with the driver as canceller.
func (s *BookingService) Validate(ctx context.Context, p domain.Principal, bookingID uuid.UUID, action domain.ValidationAction) (_ domain.Booking, err error) {
	transition := transitionValidate
	switch action {
	case domain.ActionAccept:
		transition = transitionAccept
	case domain.ActionReject:
		transition = transitionReject
	}
	defer func() { metrics.ObserveTransition(transition, err) }()

	if _, err := domain.ParseValidationAction(string(action)); err != nil {
		return domain.Booking{}, fmt.Errorf("service.BookingService.Validate: %w", err)
	}

	booking, trip, err := s.load(ctx, bookingID)
	if err != nil {
		return domain.Booking{}, fmt.Errorf("service.BookingService.Validate: %w", err)
	}
	if trip.DriverID != p.UserID {
		return domain.Booking{}, fmt.Errorf("service.BookingService.Validate: %w", domain.ErrNotTripDriver)
	}
	if err := requirePending(booking.Status); err != nil {
		return domain.Booking{}, fmt.Errorf("service.BookingService.Validate: %w", err)
	}

	var updated domain.Booking
	err = s.inTx(ctx, transition, func(ctx context.Context) error {
		locked, err := s.bookings.GetByIDForUpdate(ctx, bookingID)
		if err != nil {
			return domain.NotFoundAs(err, domain.ErrBookingNotFound)
		}
		// A concurrent transition may have won the race for the row lock.
		if err := requirePending(locked.Status); err != nil {
			return err
		}

		if action == domain.ActionAccept {
			updated, err = s.accept(ctx, trip, locked)
		} else {
			updated, err = s.reject(ctx, trip, locked)
		}
		return err
	})
	if err != nil {
		return domain.Booking{}, fmt.Errorf("service.BookingService.Validate: %w", err)
	}

	s.log.InfoContext(ctx, "booking validated",
		"booking_id", updated.ID,
		"trip_id", trip.ID,
		"action", transition,
		"status", updated.Status,
	)
	return updated, nil
}

func (s *BookingService) accept(ctx context.Context, trip domain.Trip, b domain.Booking) (domain.Booking, error) {
	if n := s.policy.SeatsOnAccept(b.SeatCount); n > 0 {
		if _, err := s.trips.ReserveSeats(ctx, trip.ID, n); err != nil {
			return domain.Booking{}, domain.NotFoundAs(err, domain.ErrTripNotFound)
		}
	}
	if err := applyCredits(ctx, s.users, s.ledger, trip.DriverID, &b.ID, domain.LedgerDriverPayout, b.TotalPrice); err != nil {
		return domain.Booking{}, err
	}
	return s.bookings.UpdateStatus(ctx, b.ID, domain.BookingConfirmed, nil)
}

func (s *BookingService) reject(ctx context.Context, trip domain.Trip, b domain.Booking) (domain.Booking, error) {
	if n := s.policy.SeatsOnReject(b.SeatCount); n > 0 {
		if _, err := s.trips.ReleaseSeats(ctx, trip.ID, n); err != nil {
			return domain.Booking{}, domain.NotFoundAs(err, domain.ErrTripNotFound)
		}
	}
	if err := applyCredits(ctx, s.users, s.ledger, b.UserID, &b.ID, domain.LedgerRefund, b.TotalPrice); err != nil {
		return domain.Booking{}, err
	}
	driverID := trip.DriverID
	return s.bookings.UpdateStatus(ctx, b.ID, domain.BookingCancelled, &driverID)
}

// Cancel cancels a pending or confirmed booking on behalf of its passenger
// or the trip's driver. Seats go back to the trip and the price is settled
// per domain.ComputePenalty: from escrow while pending, from the driver once
// the booking was confirmed.
func (s *BookingService) Cancel(ctx context.Context, p domain.Principal, bookingID uuid.UUID) (_ domain.Booking, err error) {
	defer func() { metrics.ObserveTransition(transitionCancel, err) }()

	booking, trip, err := s.load(ctx, bookingID)
	if err != nil {
		return domain.Booking{}, fmt.Errorf("service.BookingService.Cancel: %w", err)
	}
	if p.UserID != booking.UserID && p.UserID != trip.DriverID {
		return domain.Booking{}, fmt.Errorf("service.BookingService.Cancel: %w", domain.ErrNotParticipant)
	}
	if booking.Status.IsTerminal() {
		return domain.Booking{}, fmt.Errorf("service.BookingService.Cancel: %w", domain.ErrAlreadyCancelled)
	}

	var (
		updated    domain.Booking
		settlement domain.Settlement
	)
	err = s.inTx(ctx, transitionCancel, func(ctx context.Context) error {
		locked, err := s.bookings.GetByIDForUpdate(ctx, bookingID)
		if err != nil {
			return domain.NotFoundAs(err, domain.ErrBookingNotFound)
		}
		if !locked.Status.CanTransitionTo(domain.BookingCancelled) {
			return domain.ErrAlreadyCancelled
		}

		if _, err := s.trips.ReleaseSeats(ctx, trip.ID, locked.SeatCount); err != nil {
			return domain.NotFoundAs(err, domain.ErrTripNotFound)
		}

		settlement = domain.ComputePenalty(trip, locked, p.UserID)
		if err := s.settle(ctx, trip, locked, settlement); err != nil {
			return err
		}

		cancellerID := p.UserID
		updated, err = s.bookings.UpdateStatus(ctx, locked.ID, domain.BookingCancelled, &cancellerID)
		return err
	})
	if err != nil {
		return domain.Booking{}, fmt.Errorf("service.BookingService.Cancel: %w", err)
	}

	s.log.InfoContext(ctx, "booking cancelled",
		"booking_id", updated.ID,
		"trip_id", trip.ID,
		"canceller_id", p.UserID,
		"refund", settlement.RefundToPassenger.String(),
		"penalty", settlement.PenaltyToDriver.String(),
	)
	return updated, nil
}

// settle moves a cancelled booking's money. A pending booking's price is
// still in escrow: the driver receives the penalty and the passenger the
// refund from it. A confirmed booking's price already sits with the driver,
// who returns the refund and keeps the penalty.
func (s *BookingService) settle(ctx context.Context, trip domain.Trip, b domain.Booking, st domain.Settlement) error {
	if b.Status == domain.BookingConfirmed {
		// Debit first so a driver who cannot cover the refund aborts the
		// cancellation before anything is credited.
		if err := applyCredits(ctx, s.users, s.ledger, trip.DriverID, &b.ID, domain.LedgerRefundClawback, -st.RefundToPassenger); err != nil {
			return err
		}
	} else if err := applyCredits(ctx, s.users, s.ledger, trip.DriverID, &b.ID, domain.LedgerDriverPayout, st.PenaltyToDriver); err != nil {
		return err
	}
	return applyCredits(ctx, s.users, s.ledger, b.UserID, &b.ID, domain.LedgerRefund, st.RefundToPassenger)
}

// Get returns a booking visible to its passenger, the trip's driver, or an admin.
func (s *BookingService) Get(ctx context.Context, p domain.Principal, bookingID uuid.UUID) (domain.Booking, error) {
	booking, trip, err := s.load(ctx, bookingID)
	if err != nil {
		return domain.Booking{}, fmt.Errorf("service.BookingService.Get: %w", err)
	}
	if p.UserID != booking.UserID && p.UserID != trip.DriverID && !p.Roles.Has(domain.RoleAdmin) {
		return domain.Booking{}, fmt.Errorf("service.BookingService.Get: %w", domain.ErrNotParticipant)
	}
	return booking, nil
}

// ListMine returns the caller's own bookings, newest first.
func (s *BookingService) ListMine(ctx context.Context, p domain.Principal, params domain.PaginationParams) (domain.Page[domain.Booking], error) {
	items, total, err := s.bookings.ListByUser(ctx, p.UserID, params)
	if err != nil {
		return domain.Page[domain.Booking]{}, fmt.Errorf("service.BookingService.ListMine: %w", err)
	}
	return domain.Page[domain.Booking]{Items: nonNil(items), Total: total, Params: params}, nil
}

// ListForDriver returns bookings on every trip the caller drives.
func (s *BookingService) ListForDriver(ctx context.Context, p domain.Principal, params domain.PaginationParams) (domain.Page[domain.Booking], error) {
	if !p.Can(domain.RoleDriver) {
		return domain.Page[domain.Booking]{}, fmt.Errorf("service.BookingService.ListForDriver: %w", domain.ErrMissingRole)
	}
	items, total, err := s.bookings.ListByDriver(ctx, p.UserID, params)
	if err != nil {
		return domain.Page[domain.Booking]{}, fmt.Errorf("service.BookingService.ListForDriver: %w", err)
	}
	return domain.Page[domain.Booking]{Items: nonNil(items), Total: total, Params: params}, nil
}

// ListForTrip returns every booking on tripID. Only the trip's driver or an
// admin may list them.
func (s *BookingService) ListForTrip(ctx context.Context, p domain.Principal, tripID uuid.UUID) ([]domain.Booking, error) {
	trip, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("service.BookingService.ListForTrip: %w", domain.NotFoundAs(err, domain.ErrTripNotFound))
	}
	if trip.DriverID != p.UserID && !p.Roles.Has(domain.RoleAdmin) {
		return nil, fmt.Errorf("service.BookingService.ListForTrip: %w", domain.ErrNotTripDriver)
	}
	items, err := s.bookings.ListByTrip(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("service.BookingService.ListForTrip: %w", err)
	}
	return nonNil(items), nil
}

// load reads a booking and the trip it belongs to.
func (s *BookingService) load(ctx context.Context, bookingID uuid.UUID) (domain.Booking, domain.Trip, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return domain.Booking{}, domain.Trip{}, domain.NotFoundAs(err, domain.ErrBookingNotFound)
	}
	trip, err := s.trips.GetByID(ctx, booking.TripID)
	if err != nil {
		return domain.Booking{}, domain.Trip{}, domain.NotFoundAs(err, domain.ErrTripNotFound)
	}
	return booking, trip, nil
}

// inTx runs fn through the coordinator and records its duration. Rejections
// are expected traffic and logged at debug; anything else is a rollback worth
// a warning.
func (s *BookingService) inTx(ctx context.Context, transition string, fn func(ctx context.Context) error) error {
	start := time.Now()
	err := s.tx.run(ctx, fn)
	metrics.ObserveTx(transition, time.Since(start))
	if err == nil {
		return nil
	}

	switch domain.Kind(err) {
	case "internal", "transient":
		s.log.WarnContext(ctx, "booking transaction rolled back", "transition", transition, "error", err)
	default:
		s.log.DebugContext(ctx, "booking transaction rejected", "transition", transition, "error", err)
	}
	return err
}

func requirePending(status domain.BookingStatus) error {
	switch status {
	case domain.BookingPending:
		return nil
	case domain.BookingCancelled:
		return domain.ErrAlreadyCancelled
	default:
		return domain.ErrNotPending
	}
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
