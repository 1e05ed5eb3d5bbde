package service_test

import (
	"context"
	"maps"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/pkordes/carpool/internal/domain"
	"github.com/pkordes/carpool/internal/repo"
	"github.com/pkordes/carpool/internal/service"
)

// memStore is an in-memory stand-in for Postgres. It implements every repo
// the services consume plus service.Transactor.
//
// Transactions are serialized by txMu and state is snapshotted on entry, so a
// failing transaction is rolled back exactly as the database would roll it
// back. Reads outside a transaction see committed state only.
type memStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	users    map[uuid.UUID]domain.User
	vehicles map[uuid.UUID]domain.Vehicle
	trips    map[uuid.UUID]domain.Trip
	bookings map[uuid.UUID]domain.Booking
	ledger   []domain.LedgerEntry

	// failures queues errors returned by the named operation, one per call.
	failures map[string][]error
	clock    time.Time
	txRuns   int
}

func newMemStore() *memStore {
	return &memStore{
		users:    make(map[uuid.UUID]domain.User),
		vehicles: make(map[uuid.UUID]domain.Vehicle),
		trips:    make(map[uuid.UUID]domain.Trip),
		bookings: make(map[uuid.UUID]domain.Booking),
		failures: make(map[string][]error),
		clock:    time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC),
	}
}

// failNext makes the next call to op return err.
func (s *memStore) failNext(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = append(s.failures[op], err)
}

// fail pops a queued failure for op. Callers hold mu.
func (s *memStore) fail(op string) error {
	q := s.failures[op]
	if len(q) == 0 {
		return nil
	}
	s.failures[op] = q[1:]
	return q[0]
}

// now returns a strictly increasing timestamp. Callers hold mu.
func (s *memStore) now() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

type memSnapshot struct {
	users    map[uuid.UUID]domain.User
	vehicles map[uuid.UUID]domain.Vehicle
	trips    map[uuid.UUID]domain.Trip
	bookings map[uuid.UUID]domain.Booking
	ledger   []domain.LedgerEntry
}

func (s *memStore) snapshot() memSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return memSnapshot{
		users:    maps.Clone(s.users),
		vehicles: maps.Clone(s.vehicles),
		trips:    maps.Clone(s.trips),
		bookings: maps.Clone(s.bookings),
		ledger:   slices.Clone(s.ledger),
	}
}

func (s *memStore) restore(snap memSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users, s.vehicles, s.trips, s.bookings, s.ledger =
		snap.users, snap.vehicles, snap.trips, snap.bookings, snap.ledger
}

// Do implements service.Transactor.
func (s *memStore) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	s.txRuns++
	s.mu.Unlock()

	snap := s.snapshot()
	if err := fn(ctx); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func (s *memStore) stores() service.Stores {
	return service.Stores{
		Users:    memUsers{s},
		Trips:    memTrips{s},
		Bookings: memBookings{s},
		Ledger:   memLedger{s},
	}
}

// ---- fixtures --------------------------------------------------------------

func (s *memStore) addUser(roles domain.Roles, credits domain.Credits) domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := domain.User{
		ID:      uuid.New(),
		Name:    "user",
		Email:   uuid.NewString() + "@example.com",
		Roles:   roles,
		Credits: credits,
	}
	s.users[u.ID] = u
	return u
}

func (s *memStore) addTrip(driverID uuid.UUID, seats int, price domain.Credits) domain.Trip {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := domain.Vehicle{ID: uuid.New(), OwnerID: driverID, Make: "Renault", Model: "Zoe", Plate: "AB-123", SeatCount: seats + 1}
	s.vehicles[v.ID] = v
	dep := time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC)
	t := domain.Trip{
		ID:             uuid.New(),
		DriverID:       driverID,
		VehicleID:      v.ID,
		DepartureCity:  "Lyon",
		ArrivalCity:    "Paris",
		DepartureDate:  dep,
		ArrivalDate:    dep.Add(5 * time.Hour),
		Capacity:       seats,
		AvailableSeats: seats,
		Price:          price,
		Status:         domain.StatusForSeats(seats),
	}
	s.trips[t.ID] = t
	return t
}

func (s *memStore) user(id uuid.UUID) domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[id]
}

func (s *memStore) trip(id uuid.UUID) domain.Trip {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.trips[id]
}

func (s *memStore) booking(id uuid.UUID) domain.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bookings[id]
}

func (s *memStore) ledgerLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ledger)
}

// money is every user's balance plus the escrow held for pending bookings.
// No booking operation may change it.
func (s *memStore) money() domain.Credits {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total domain.Credits
	for _, u := range s.users {
		total += u.Credits
	}
	for _, b := range s.bookings {
		if b.Status == domain.BookingPending {
			total += b.TotalPrice
		}
	}
	return total
}

// assertInvariants checks the seat, status, balance and uniqueness rules
// over the whole store.
func (s *memStore) assertInvariants(t *testing.T) {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()

	active := make(map[uuid.UUID]int)
	pairs := make(map[[2]uuid.UUID]int)
	for _, b := range s.bookings {
		if b.Status.IsActive() {
			active[b.TripID] += b.SeatCount
			pairs[[2]uuid.UUID{b.TripID, b.UserID}]++
		}
	}
	for _, tr := range s.trips {
		assert.GreaterOrEqual(t, tr.AvailableSeats, 0, "trip %s seats", tr.ID)
		assert.LessOrEqual(t, tr.AvailableSeats, tr.Capacity, "trip %s seats", tr.ID)
		assert.Equal(t, domain.StatusForSeats(tr.AvailableSeats), tr.Status, "trip %s status", tr.ID)
		assert.LessOrEqual(t, active[tr.ID], tr.Capacity, "trip %s active seats", tr.ID)
	}
	for _, u := range s.users {
		assert.GreaterOrEqual(t, u.Credits, domain.Credits(0), "user %s credits", u.ID)
	}
	for pair, n := range pairs {
		assert.LessOrEqual(t, n, 1, "active bookings for %v", pair)
	}
}

// ---- UserRepo --------------------------------------------------------------

type memUsers struct{ s *memStore }

var _ repo.UserRepo = memUsers{}

func (r memUsers) Create(_ context.Context, u domain.User) (domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("users.Create"); err != nil {
		return domain.User{}, err
	}
	for _, existing := range r.s.users {
		if existing.Email == u.Email {
			return domain.User{}, domain.ErrEmailTaken
		}
	}
	u.ID = uuid.New()
	u.CreatedAt = r.s.now()
	u.UpdatedAt = u.CreatedAt
	r.s.users[u.ID] = u
	return u, nil
}

func (r memUsers) GetByID(_ context.Context, id uuid.UUID) (domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return u, nil
}

func (r memUsers) AdjustCredits(_ context.Context, id uuid.UUID, delta domain.Credits) (domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("users.AdjustCredits"); err != nil {
		return domain.User{}, err
	}
	u, ok := r.s.users[id]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	if u.Credits+delta < 0 {
		return domain.User{}, domain.ErrInsufficientCredits
	}
	u.Credits += delta
	u.UpdatedAt = r.s.now()
	r.s.users[id] = u
	return u, nil
}

// ---- VehicleRepo -----------------------------------------------------------

type memVehicles struct{ s *memStore }

var _ repo.VehicleRepo = memVehicles{}

func (r memVehicles) Create(_ context.Context, v domain.Vehicle) (domain.Vehicle, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	v.ID = uuid.New()
	v.CreatedAt = r.s.now()
	r.s.vehicles[v.ID] = v
	return v, nil
}

func (r memVehicles) GetByID(_ context.Context, id uuid.UUID) (domain.Vehicle, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	v, ok := r.s.vehicles[id]
	if !ok {
		return domain.Vehicle{}, domain.ErrNotFound
	}
	return v, nil
}

func (r memVehicles) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]domain.Vehicle, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.Vehicle
	for _, v := range r.s.vehicles {
		if v.OwnerID == ownerID {
			out = append(out, v)
		}
	}
	return out, nil
}

// ---- TripRepo --------------------------------------------------------------

type memTrips struct{ s *memStore }

var _ repo.TripRepo = memTrips{}

func (r memTrips) Create(_ context.Context, t domain.Trip) (domain.Trip, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t.ID = uuid.New()
	t.Capacity = t.AvailableSeats
	t.Status = domain.StatusForSeats(t.AvailableSeats)
	t.CreatedAt = r.s.now()
	t.UpdatedAt = t.CreatedAt
	r.s.trips[t.ID] = t
	return t, nil
}

func (r memTrips) GetByID(_ context.Context, id uuid.UUID) (domain.Trip, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.trips[id]
	if !ok {
		return domain.Trip{}, domain.ErrNotFound
	}
	return t, nil
}

func (r memTrips) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	return r.GetByID(ctx, id)
}

func (r memTrips) ListPaged(_ context.Context, f domain.TripFilter, p domain.PaginationParams) ([]domain.Trip, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var all []domain.Trip
	for _, t := range r.s.trips {
		if f.Status != nil && t.Status != *f.Status {
			continue
		}
		all = append(all, t)
	}
	slices.SortFunc(all, func(a, b domain.Trip) int { return a.DepartureDate.Compare(b.DepartureDate) })
	total := int64(len(all))
	start := min(p.Offset(), len(all))
	end := min(start+p.Limit, len(all))
	return all[start:end], total, nil
}

func (r memTrips) ReserveSeats(_ context.Context, id uuid.UUID, n int) (domain.Trip, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("trips.ReserveSeats"); err != nil {
		return domain.Trip{}, err
	}
	t, ok := r.s.trips[id]
	if !ok {
		return domain.Trip{}, domain.ErrNotFound
	}
	if t.AvailableSeats < n {
		return domain.Trip{}, domain.ErrNotEnoughSeats
	}
	t.AvailableSeats -= n
	t.Status = domain.StatusForSeats(t.AvailableSeats)
	r.s.trips[id] = t
	return t, nil
}

func (r memTrips) ReleaseSeats(_ context.Context, id uuid.UUID, n int) (domain.Trip, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("trips.ReleaseSeats"); err != nil {
		return domain.Trip{}, err
	}
	t, ok := r.s.trips[id]
	if !ok {
		return domain.Trip{}, domain.ErrNotFound
	}
	if t.AvailableSeats+n > t.Capacity {
		return domain.Trip{}, domain.ErrSeatOverflow
	}
	t.AvailableSeats += n
	t.Status = domain.StatusForSeats(t.AvailableSeats)
	r.s.trips[id] = t
	return t, nil
}

func (r memTrips) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.trips[id]; !ok {
		return domain.ErrNotFound
	}
	for _, b := range r.s.bookings {
		if b.TripID == id {
			return domain.ErrTripHasBookings
		}
	}
	delete(r.s.trips, id)
	return nil
}

// ---- BookingRepo -----------------------------------------------------------

type memBookings struct{ s *memStore }

var _ repo.BookingRepo = memBookings{}

func (r memBookings) Create(_ context.Context, b domain.Booking) (domain.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("bookings.Create"); err != nil {
		return domain.Booking{}, err
	}
	for _, existing := range r.s.bookings {
		if existing.TripID == b.TripID && existing.UserID == b.UserID && existing.Status.IsActive() {
			return domain.Booking{}, domain.ErrDuplicateBooking
		}
	}
	b.ID = uuid.New()
	b.CreatedAt = r.s.now()
	b.UpdatedAt = b.CreatedAt
	r.s.bookings[b.ID] = b
	return b, nil
}

func (r memBookings) GetByID(_ context.Context, id uuid.UUID) (domain.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.bookings[id]
	if !ok {
		return domain.Booking{}, domain.ErrNotFound
	}
	return b, nil
}

func (r memBookings) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (domain.Booking, error) {
	return r.GetByID(ctx, id)
}

func (r memBookings) UpdateStatus(_ context.Context, id uuid.UUID, status domain.BookingStatus, cancellerID *uuid.UUID) (domain.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("bookings.UpdateStatus"); err != nil {
		return domain.Booking{}, err
	}
	b, ok := r.s.bookings[id]
	if !ok {
		return domain.Booking{}, domain.ErrNotFound
	}
	b.Status = status
	b.CancellerID = cancellerID
	b.UpdatedAt = r.s.now()
	r.s.bookings[id] = b
	return b, nil
}

func (r memBookings) FindActive(_ context.Context, tripID, userID uuid.UUID) (domain.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, b := range r.s.bookings {
		if b.TripID == tripID && b.UserID == userID && b.Status.IsActive() {
			return b, nil
		}
	}
	return domain.Booking{}, domain.ErrNotFound
}

func (r memBookings) ListByUser(_ context.Context, userID uuid.UUID, p domain.PaginationParams) ([]domain.Booking, int64, error) {
	return r.page(p, func(b domain.Booking) bool { return b.UserID == userID })
}

func (r memBookings) ListByDriver(_ context.Context, driverID uuid.UUID, p domain.PaginationParams) ([]domain.Booking, int64, error) {
	r.s.mu.Lock()
	driven := make(map[uuid.UUID]bool)
	for _, t := range r.s.trips {
		if t.DriverID == driverID {
			driven[t.ID] = true
		}
	}
	r.s.mu.Unlock()
	return r.page(p, func(b domain.Booking) bool { return driven[b.TripID] })
}

func (r memBookings) ListByTrip(_ context.Context, tripID uuid.UUID) ([]domain.Booking, error) {
	items, _, err := r.page(domain.PaginationParams{Page: 1, Limit: 1 << 30}, func(b domain.Booking) bool { return b.TripID == tripID })
	return items, err
}

func (r memBookings) page(p domain.PaginationParams, keep func(domain.Booking) bool) ([]domain.Booking, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var all []domain.Booking
	for _, b := range r.s.bookings {
		if keep(b) {
			all = append(all, b)
		}
	}
	slices.SortFunc(all, func(a, b domain.Booking) int { return b.CreatedAt.Compare(a.CreatedAt) })
	total := int64(len(all))
	start := min(p.Offset(), len(all))
	end := min(start+p.Limit, len(all))
	return all[start:end], total, nil
}

// ---- LedgerRepo ------------------------------------------------------------

type memLedger struct{ s *memStore }

var _ repo.LedgerRepo = memLedger{}

func (r memLedger) Append(_ context.Context, e domain.LedgerEntry) (domain.LedgerEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("ledger.Append"); err != nil {
		return domain.LedgerEntry{}, err
	}
	e.ID = uuid.New()
	e.CreatedAt = r.s.now()
	r.s.ledger = append(r.s.ledger, e)
	return e, nil
}

func (r memLedger) ListByUser(_ context.Context, userID uuid.UUID) ([]domain.LedgerEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("ledger.ListByUser"); err != nil {
		return nil, err
	}
	var out []domain.LedgerEntry
	for _, e := range r.s.ledger {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

// Statement joins like the SQL LEFT JOINs: a booking or trip that cannot be
// found leaves the route fields empty.
func (r memLedger) Statement(_ context.Context, userID uuid.UUID) ([]domain.StatementRow, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("ledger.Statement"); err != nil {
		return nil, err
	}
	out := []domain.StatementRow{}
	for _, e := range r.s.ledger {
		if e.UserID != userID {
			continue
		}
		row := domain.StatementRow{
			EntryID:      e.ID.String(),
			CreatedAt:    e.CreatedAt,
			Kind:         e.Kind,
			Amount:       e.Amount,
			BalanceAfter: e.BalanceAfter,
		}
		if e.BookingID != nil {
			row.BookingID = e.BookingID.String()
			if b, ok := r.s.bookings[*e.BookingID]; ok {
				if t, ok := r.s.trips[b.TripID]; ok {
					dep := t.DepartureDate
					row.DepartureCity = t.DepartureCity
					row.ArrivalCity = t.ArrivalCity
					row.DepartureDate = &dep
				}
			}
		}
		out = append(out, row)
	}
	return out, nil
}
