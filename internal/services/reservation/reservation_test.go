package reservation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"hotel_service/internal/metrics"
	"hotel_service/internal/models"
	"hotel_service/internal/storage"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// memStorage behaves like the reservations table: ids are assigned in order
// and customer_email carries a unique constraint.
type memStorage struct {
	mu      sync.Mutex
	nextID  int64
	byEmail map[string]models.Reservation

	saveErr   error
	findErr   error
	deleteErr error
	inserts   int
	deletes   int
}

func newMemStorage() *memStorage {
	return &memStorage{byEmail: make(map[string]models.Reservation)}
}

func (m *memStorage) SaveReservation(ctx context.Context, res models.Reservation) (models.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.saveErr != nil {
		return models.Reservation{}, m.saveErr
	}
	if _, ok := m.byEmail[res.CustomerEmail]; ok {
		return models.Reservation{}, storage.ErrReservationExists
	}

	m.nextID++
	res.ID = m.nextID
	m.byEmail[res.CustomerEmail] = res
	m.inserts++

	return res, nil
}

func (m *memStorage) ReservationByEmail(ctx context.Context, email string) (models.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.findErr != nil {
		return models.Reservation{}, m.findErr
	}

	res, ok := m.byEmail[email]
	if !ok {
		return models.Reservation{}, storage.ErrReservationNotFound
	}

	return res, nil
}

func (m *memStorage) DeleteReservation(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.deleteErr != nil {
		return m.deleteErr
	}

	for email, res := range m.byEmail {
		if res.ID == id {
			delete(m.byEmail, email)
			m.deletes++
			return nil
		}
	}

	return storage.ErrReservationNotFound
}

func (m *memStorage) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.byEmail)
}

// Mock cache for testing
type mockCache struct {
	entries map[string]models.Reservation
	getErr  error
	saveErr error
	delErr  error
}

func newMockCache() *mockCache {
	return &mockCache{entries: make(map[string]models.Reservation)}
}

func (c *mockCache) Reservation(ctx context.Context, email string) (models.Reservation, error) {
	if c.getErr != nil {
		return models.Reservation{}, c.getErr
	}

	res, ok := c.entries[email]
	if !ok {
		return models.Reservation{}, storage.ErrCacheMiss
	}

	return res, nil
}

func (c *mockCache) SaveReservation(ctx context.Context, res models.Reservation) error {
	if c.saveErr != nil {
		return c.saveErr
	}
	c.entries[res.CustomerEmail] = res

	return nil
}

func (c *mockCache) DeleteReservation(ctx context.Context, email string) error {
	if c.delErr != nil {
		return c.delErr
	}
	delete(c.entries, email)

	return nil
}

type mockPublisher struct {
	events []models.ReservationEvent
	err    error
}

func (p *mockPublisher) PublishReservationEvent(ctx context.Context, event models.ReservationEvent) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)

	return nil
}

type fixture struct {
	store  *Store
	db     *memStorage
	cache  *mockCache
	events *mockPublisher
	m      *metrics.Metrics
}

func newFixture() *fixture {
	db := newMemStorage()
	cache := newMockCache()
	events := &mockPublisher{}
	m := metrics.New(prometheus.NewRegistry())
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	store := New(log, db, db, db, cache, events, m)
	store.now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }

	return &fixture{store: store, db: db, cache: cache, events: events, m: m}
}

func request(name, email, roomType, checkIn, checkOut string) Request {
	return Request{Name: name, Email: email, RoomType: roomType, CheckIn: checkIn, CheckOut: checkOut}
}

func TestCreateReservation_Success(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	res, err := f.store.CreateReservation(ctx, request("Alice", "a@x.com", "Suite", "2024-07-01", "2024-07-05"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.ID == 0 {
		t.Error("expected a storage-assigned id")
	}
	if res.CustomerName != "Alice" || res.CustomerEmail != "a@x.com" || res.RoomType != models.RoomSuite {
		t.Errorf("unexpected reservation: %+v", res)
	}
	if want := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC); !res.CheckIn.Equal(want) {
		t.Errorf("CheckIn = %v, want %v", res.CheckIn, want)
	}

	got, err := f.store.Reservation(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("lookup after create: %v", err)
	}
	if got.ID != res.ID {
		t.Errorf("lookup ID = %d, want %d", got.ID, res.ID)
	}

	if len(f.events.events) != 1 || f.events.events[0].Kind != models.EventReservationCreated {
		t.Errorf("events = %+v, want one reservation_created", f.events.events)
	}
	if _, ok := f.cache.entries["a@x.com"]; !ok {
		t.Error("created reservation was not cached")
	}
	if got := testutil.ToFloat64(f.m.ReservationsCreated); got != 1 {
		t.Errorf("created counter = %v, want 1", got)
	}
}

func TestCreateReservation_InvalidDateRange(t *testing.T) {
	tests := []struct {
		name     string
		checkIn  string
		checkOut string
	}{
		{"same day", "2024-06-10", "2024-06-10"},
		{"checkout before checkin", "2024-06-12", "2024-06-10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()

			_, err := f.store.CreateReservation(context.Background(), request("Alice", "a@x.com", "Double", tt.checkIn, tt.checkOut))
			if !errors.Is(err, ErrInvalidDateRange) {
				t.Fatalf("err = %v, want %v", err, ErrInvalidDateRange)
			}
			if f.db.count() != 0 {
				t.Errorf("stored %d reservations, want 0", f.db.count())
			}
			if len(f.events.events) != 0 {
				t.Errorf("published %d events, want 0", len(f.events.events))
			}
		})
	}
}

func TestCreateReservation_DateRangeCheckedBeforeDuplicate(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if _, err := f.store.CreateReservation(ctx, request("Alice", "a@x.com", "Suite", "2024-07-01", "2024-07-05")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := f.store.CreateReservation(ctx, request("Bob", "a@x.com", "Single", "2024-08-02", "2024-08-01"))
	if !errors.Is(err, ErrInvalidDateRange) {
		t.Errorf("err = %v, want %v", err, ErrInvalidDateRange)
	}
}

func TestCreateReservation_DuplicateEmail(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	first, err := f.store.CreateReservation(ctx, request("Alice", "a@x.com", "Suite", "2024-07-01", "2024-07-05"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = f.store.CreateReservation(ctx, request("Bob", "a@x.com", "Single", "2024-08-01", "2024-08-02"))
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("err = %v, want %v", err, ErrDuplicateEmail)
	}

	got, err := f.store.Reservation(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got != first {
		t.Errorf("existing reservation changed: got %+v, want %+v", got, first)
	}
	if f.db.inserts != 1 {
		t.Errorf("inserts = %d, want 1", f.db.inserts)
	}
	if got := testutil.ToFloat64(f.m.ReservationsRejected.WithLabelValues(metrics.OpCreate, "duplicate_email")); got != 1 {
		t.Errorf("duplicate_email counter = %v, want 1", got)
	}
}

func TestCreateReservation_DuplicateDetectedByStorageConstraint(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	// a concurrent request inserted the email after our existence check
	f.store.provider = racingProvider{}

	if _, err := f.db.SaveReservation(ctx, models.Reservation{CustomerEmail: "a@x.com"}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	_, err := f.store.CreateReservation(ctx, request("Bob", "a@x.com", "Single", "2024-08-01", "2024-08-02"))
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("err = %v, want %v", err, ErrDuplicateEmail)
	}
	if f.db.count() != 1 {
		t.Errorf("stored %d reservations, want 1", f.db.count())
	}
}

// racingProvider never sees existing rows, as if the competing insert had
// not been committed yet when the existence check ran.
type racingProvider struct{}

func (racingProvider) ReservationByEmail(ctx context.Context, email string) (models.Reservation, error) {
	return models.Reservation{}, storage.ErrReservationNotFound
}

func TestCreateReservation_EmailIsExactMatch(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if _, err := f.store.CreateReservation(ctx, request("Alice", "a@x.com", "Suite", "2024-07-01", "2024-07-05")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, email := range []string{"A@x.com", " a@x.com", "a@x.com "} {
		if _, err := f.store.CreateReservation(ctx, request("Alice", email, "Suite", "2024-07-01", "2024-07-05")); err != nil {
			t.Errorf("email %q: unexpected error: %v", email, err)
		}
	}

	if f.db.count() != 4 {
		t.Errorf("stored %d reservations, want 4", f.db.count())
	}
}

func TestCreateReservation_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		req  Request
	}{
		{"missing name", request("", "a@x.com", "Suite", "2024-07-01", "2024-07-05")},
		{"missing email", request("Alice", "", "Suite", "2024-07-01", "2024-07-05")},
		{"missing room type", request("Alice", "a@x.com", "", "2024-07-01", "2024-07-05")},
		{"missing checkin", request("Alice", "a@x.com", "Suite", "", "2024-07-05")},
		{"missing checkout", request("Alice", "a@x.com", "Suite", "2024-07-01", "")},
		{"unknown room type", request("Alice", "a@x.com", "Penthouse", "2024-07-01", "2024-07-05")},
		{"room type wrong case", request("Alice", "a@x.com", "suite", "2024-07-01", "2024-07-05")},
		{"malformed checkin", request("Alice", "a@x.com", "Suite", "01/07/2024", "2024-07-05")},
		{"malformed checkout", request("Alice", "a@x.com", "Suite", "2024-07-01", "2024-13-05")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()

			_, err := f.store.CreateReservation(context.Background(), tt.req)
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("err = %v, want %v", err, ErrInvalidInput)
			}
			if f.db.count() != 0 {
				t.Errorf("stored %d reservations, want 0", f.db.count())
			}
		})
	}
}

func TestCreateReservation_StorageError(t *testing.T) {
	f := newFixture()
	dbErr := errors.New("connection refused")
	f.db.saveErr = dbErr

	_, err := f.store.CreateReservation(context.Background(), request("Alice", "a@x.com", "Suite", "2024-07-01", "2024-07-05"))
	if !errors.Is(err, ErrStorage) {
		t.Fatalf("err = %v, want %v", err, ErrStorage)
	}
	if !errors.Is(err, dbErr) {
		t.Errorf("err = %v, want it to wrap %v", err, dbErr)
	}
	if len(f.events.events) != 0 {
		t.Errorf("published %d events, want 0", len(f.events.events))
	}
}

func TestCreateReservation_LookupStorageError(t *testing.T) {
	f := newFixture()
	f.db.findErr = errors.New("timeout")

	_, err := f.store.CreateReservation(context.Background(), request("Alice", "a@x.com", "Suite", "2024-07-01", "2024-07-05"))
	if !errors.Is(err, ErrStorage) {
		t.Fatalf("err = %v, want %v", err, ErrStorage)
	}
	if f.db.inserts != 0 {
		t.Errorf("inserts = %d, want 0", f.db.inserts)
	}
}

func TestCreateReservation_SideChannelFailuresDoNotFail(t *testing.T) {
	f := newFixture()
	f.cache.getErr = errors.New("redis down")
	f.cache.saveErr = errors.New("redis down")
	f.events.err = errors.New("broker down")

	res, err := f.store.CreateReservation(context.Background(), request("Alice", "a@x.com", "Suite", "2024-07-01", "2024-07-05"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ID == 0 {
		t.Error("expected a storage-assigned id")
	}
	if f.db.count() != 1 {
		t.Errorf("stored %d reservations, want 1", f.db.count())
	}
}

func TestCancelReservation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	created, err := f.store.CreateReservation(ctx, request("Carol", "c@x.com", "Triple", "2024-09-01", "2024-09-03"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := f.store.CancelReservation(ctx, "c@x.com"); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	if _, err := f.store.Reservation(ctx, "c@x.com"); !errors.Is(err, ErrNotFound) {
		t.Errorf("lookup after cancel err = %v, want %v", err, ErrNotFound)
	}
	if _, ok := f.cache.entries["c@x.com"]; ok {
		t.Error("cancelled reservation is still cached")
	}

	last := f.events.events[len(f.events.events)-1]
	if last.Kind != models.EventReservationCancelled || last.Reservation.ID != created.ID {
		t.Errorf("last event = %+v, want reservation_cancelled for id %d", last, created.ID)
	}
	if got := testutil.ToFloat64(f.m.ReservationsCancelled); got != 1 {
		t.Errorf("cancelled counter = %v, want 1", got)
	}
}

func TestCancelReservation_NotFoundIsRepeatable(t *testing.T) {
	f := newFixture()

	for i := 0; i < 3; i++ {
		if err := f.store.CancelReservation(context.Background(), "nobody@x.com"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("attempt %d: err = %v, want %v", i, err, ErrNotFound)
		}
	}
	if f.db.deletes != 0 {
		t.Errorf("deletes = %d, want 0", f.db.deletes)
	}
}

func TestCancelReservation_NoDoubleDelete(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if _, err := f.store.CreateReservation(ctx, request("Carol", "c@x.com", "Triple", "2024-09-01", "2024-09-03")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := f.store.CancelReservation(ctx, "c@x.com"); err != nil {
		t.Fatalf("first cancel: %v", err)
	}
	if err := f.store.CancelReservation(ctx, "c@x.com"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second cancel err = %v, want %v", err, ErrNotFound)
	}
	if f.db.deletes != 1 {
		t.Errorf("deletes = %d, want 1", f.db.deletes)
	}
}

func TestCancelReservation_EmptyEmail(t *testing.T) {
	f := newFixture()

	if err := f.store.CancelReservation(context.Background(), ""); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("err = %v, want %v", err, ErrInvalidInput)
	}
}

func TestCancelReservation_StorageError(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if _, err := f.store.CreateReservation(ctx, request("Carol", "c@x.com", "Triple", "2024-09-01", "2024-09-03")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f.db.deleteErr = errors.New("disk full")
	if err := f.store.CancelReservation(ctx, "c@x.com"); !errors.Is(err, ErrStorage) {
		t.Errorf("err = %v, want %v", err, ErrStorage)
	}
	if f.db.count() != 1 {
		t.Errorf("stored %d reservations, want 1", f.db.count())
	}
}

func TestCancelThenRebook(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	first, err := f.store.CreateReservation(ctx, request("Carol", "c@x.com", "Single", "2024-09-01", "2024-09-03"))
	if err != nil {
		t.Fatalf("first create: %v", err)
	}
	if err := f.store.CancelReservation(ctx, "c@x.com"); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	second, err := f.store.CreateReservation(ctx, request("Carol", "c@x.com", "Double", "2024-10-01", "2024-10-03"))
	if err != nil {
		t.Fatalf("second create: %v", err)
	}
	if second.ID == first.ID {
		t.Errorf("rebooking reused id %d", first.ID)
	}
}

func TestCancelThenRebook_EvictionFails(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.cache.delErr = errors.New("redis down")

	if _, err := f.store.CreateReservation(ctx, request("Carol", "c@x.com", "Single", "2024-09-01", "2024-09-03")); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if err := f.store.CancelReservation(ctx, "c@x.com"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, ok := f.cache.entries["c@x.com"]; !ok {
		t.Fatal("expected the cancelled reservation to linger in the cache")
	}

	second, err := f.store.CreateReservation(ctx, request("Carol", "c@x.com", "Double", "2024-10-01", "2024-10-03"))
	if err != nil {
		t.Fatalf("second create: %v", err)
	}
	if second.RoomType != models.RoomDouble {
		t.Errorf("room type = %q, want %q", second.RoomType, models.RoomDouble)
	}
	if f.db.count() != 1 {
		t.Errorf("stored %d reservations, want 1", f.db.count())
	}
}

func TestCreateReservation_IgnoresCachedEntryMissingFromStorage(t *testing.T) {
	f := newFixture()
	f.cache.entries["e@x.com"] = models.Reservation{ID: 42, CustomerEmail: "e@x.com"}

	res, err := f.store.CreateReservation(context.Background(), request("Eve", "e@x.com", "Suite", "2024-07-01", "2024-07-05"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := f.cache.entries["e@x.com"]; got.ID != res.ID {
		t.Errorf("cached id = %d, want %d", got.ID, res.ID)
	}
}

func TestUniqueEmailUnderConcurrentCreates(t *testing.T) {
	f := newFixture()
	f.store.cache = &lockedCache{inner: f.cache}

	const workers = 16

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			_, err := f.store.CreateReservation(context.Background(), request("Dan", "d@x.com", "Suite", "2024-07-01", "2024-07-05"))
			if err != nil && !errors.Is(err, ErrDuplicateEmail) {
				t.Errorf("unexpected error: %v", err)
				return
			}
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if succeeded != 1 {
		t.Errorf("succeeded = %d, want 1", succeeded)
	}
	if f.db.count() != 1 {
		t.Errorf("stored %d reservations, want 1", f.db.count())
	}
}

type lockedCache struct {
	mu    sync.Mutex
	inner *mockCache
}

func (c *lockedCache) Reservation(ctx context.Context, email string) (models.Reservation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.inner.Reservation(ctx, email)
}

func (c *lockedCache) SaveReservation(ctx context.Context, res models.Reservation) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.inner.SaveReservation(ctx, res)
}

func (c *lockedCache) DeleteReservation(ctx context.Context, email string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.inner.DeleteReservation(ctx, email)
}
