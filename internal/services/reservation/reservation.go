package reservation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"hotel_service/internal/lib/logger/sl"
	"hotel_service/internal/metrics"
	"hotel_service/internal/models"
	"hotel_service/internal/storage"

	"github.com/go-playground/validator"
)

var (
	ErrInvalidInput     = errors.New("invalid reservation input")
	ErrInvalidDateRange = errors.New("checkout date must be after checkin date")
	ErrDuplicateEmail   = errors.New("email is already associated with a reservation")
	ErrNotFound         = errors.New("reservation not found")
	ErrStorage          = errors.New("reservation storage failure")
)

type ReservationSaver interface {
	SaveReservation(ctx context.Context, res models.Reservation) (models.Reservation, error)
}

type ReservationProvider interface {
	ReservationByEmail(ctx context.Context, email string) (models.Reservation, error)
}

type ReservationDeleter interface {
	DeleteReservation(ctx context.Context, id int64) error
}

// Cache is a best-effort lookup by email. A miss is storage.ErrCacheMiss.
type Cache interface {
	Reservation(ctx context.Context, email string) (models.Reservation, error)
	SaveReservation(ctx context.Context, res models.Reservation) error
	DeleteReservation(ctx context.Context, email string) error
}

type EventPublisher interface {
	PublishReservationEvent(ctx context.Context, event models.ReservationEvent) error
}

// Request carries the raw booking fields. Dates use models.DateLayout.
type Request struct {
	Name     string `validate:"required"`
	Email    string `validate:"required"`
	RoomType string `validate:"required"`
	CheckIn  string `validate:"required"`
	CheckOut string `validate:"required"`
}

type Store struct {
	log      *slog.Logger
	saver    ReservationSaver
	provider ReservationProvider
	deleter  ReservationDeleter
	cache    Cache
	events   EventPublisher
	metrics  *metrics.Metrics
	validate *validator.Validate
	now      func() time.Time
}

func New(
	log *slog.Logger,
	saver ReservationSaver,
	provider ReservationProvider,
	deleter ReservationDeleter,
	cache Cache,
	events EventPublisher,
	m *metrics.Metrics,
) *Store {
	return &Store{
		log:      log,
		saver:    saver,
		provider: provider,
		deleter:  deleter,
		cache:    cache,
		events:   events,
		metrics:  m,
		validate: validator.New(),
		now:      time.Now,
	}
}

// CreateReservation validates req, rejects a date range that is not strictly
// increasing, rejects an email already bound to a reservation and stores the
// new record. The returned reservation carries the id assigned by storage.
func (s *Store) CreateReservation(ctx context.Context, req Request) (models.Reservation, error) {
	const op = "reservation.CreateReservation"

	log := s.log.With(
		slog.String("op", op),
		slog.String("email", req.Email),
	)

	res, err := s.parse(req)
	if err != nil {
		log.Warn("invalid reservation request", sl.Err(err))
		s.metrics.Rejected(metrics.OpCreate, "invalid_input")

		return models.Reservation{}, fmt.Errorf("%s: %w", op, err)
	}

	if !res.CheckIn.Before(res.CheckOut) {
		log.Warn("checkout is not after checkin",
			slog.String("checkin", req.CheckIn),
			slog.String("checkout", req.CheckOut),
		)
		s.metrics.Rejected(metrics.OpCreate, "invalid_date_range")

		return models.Reservation{}, fmt.Errorf("%s: %w", op, ErrInvalidDateRange)
	}

	// storage decides; a cached entry may outlive a cancellation
	_, err = s.provider.ReservationByEmail(ctx, res.CustomerEmail)
	switch {
	case err == nil:
		log.Warn("email already has a reservation")
		s.metrics.Rejected(metrics.OpCreate, "duplicate_email")

		return models.Reservation{}, fmt.Errorf("%s: %w", op, ErrDuplicateEmail)
	case !errors.Is(err, storage.ErrReservationNotFound):
		log.Error("failed to check existing reservation", sl.Err(err))
		s.metrics.Rejected(metrics.OpCreate, "storage")

		return models.Reservation{}, fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
	}

	saved, err := s.saver.SaveReservation(ctx, res)
	if err != nil {
		if errors.Is(err, storage.ErrReservationExists) {
			// lost the race against a concurrent booking with the same email
			log.Warn("unique email constraint rejected reservation")
			s.metrics.Rejected(metrics.OpCreate, "duplicate_email")

			return models.Reservation{}, fmt.Errorf("%s: %w", op, ErrDuplicateEmail)
		}

		log.Error("failed to save reservation", sl.Err(err))
		s.metrics.Rejected(metrics.OpCreate, "storage")

		return models.Reservation{}, fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
	}

	if err := s.cache.SaveReservation(ctx, saved); err != nil {
		log.Warn("failed to cache reservation", sl.Err(err))
	}

	s.publish(ctx, log, models.EventReservationCreated, saved)
	s.metrics.ReservationsCreated.Inc()

	log.Info("reservation created",
		slog.Int64("id", saved.ID),
		slog.String("room_type", string(saved.RoomType)),
	)

	return saved, nil
}

// CancelReservation permanently deletes the reservation bound to email.
// The email is matched exactly, without trimming or case folding.
func (s *Store) CancelReservation(ctx context.Context, email string) error {
	const op = "reservation.CancelReservation"

	log := s.log.With(
		slog.String("op", op),
		slog.String("email", email),
	)

	if email == "" {
		s.metrics.Rejected(metrics.OpCancel, "invalid_input")

		return fmt.Errorf("%s: %w: email is required", op, ErrInvalidInput)
	}

	res, err := s.provider.ReservationByEmail(ctx, email)
	if err != nil {
		return s.cancelFailed(log, op, err)
	}

	if err := s.deleter.DeleteReservation(ctx, res.ID); err != nil {
		return s.cancelFailed(log, op, err)
	}

	s.evict(ctx, log, email)

	s.publish(ctx, log, models.EventReservationCancelled, res)
	s.metrics.ReservationsCancelled.Inc()

	log.Info("reservation cancelled", slog.Int64("id", res.ID))

	return nil
}

// Reservation returns the reservation bound to email. It is served from the
// cache when possible, so a just-cancelled record may be visible until the
// cache entry expires.
func (s *Store) Reservation(ctx context.Context, email string) (models.Reservation, error) {
	const op = "reservation.Reservation"

	if email == "" {
		return models.Reservation{}, fmt.Errorf("%s: %w: email is required", op, ErrInvalidInput)
	}

	res, err := s.lookup(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrReservationNotFound) {
			return models.Reservation{}, fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		s.log.Error("failed to get reservation", slog.String("op", op), sl.Err(err))

		return models.Reservation{}, fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
	}

	return res, nil
}

func (s *Store) cancelFailed(log *slog.Logger, op string, err error) error {
	if errors.Is(err, storage.ErrReservationNotFound) {
		log.Warn("no reservation for email")
		s.metrics.Rejected(metrics.OpCancel, "not_found")

		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	log.Error("failed to cancel reservation", sl.Err(err))
	s.metrics.Rejected(metrics.OpCancel, "storage")

	return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
}

func (s *Store) evict(ctx context.Context, log *slog.Logger, email string) {
	if err := s.cache.DeleteReservation(ctx, email); err != nil {
		log.Warn("failed to evict cached reservation", sl.Err(err))
	}
}

// lookup consults the cache first and falls back to storage, filling the
// cache on a storage hit. Cache errors never fail the lookup.
func (s *Store) lookup(ctx context.Context, email string) (models.Reservation, error) {
	res, err := s.cache.Reservation(ctx, email)
	if err == nil {
		return res, nil
	}
	if !errors.Is(err, storage.ErrCacheMiss) {
		s.log.Warn("reservation cache unavailable", slog.String("email", email), sl.Err(err))
	}

	res, err = s.provider.ReservationByEmail(ctx, email)
	if err != nil {
		return models.Reservation{}, err
	}

	if err := s.cache.SaveReservation(ctx, res); err != nil {
		s.log.Warn("failed to cache reservation", slog.String("email", email), sl.Err(err))
	}

	return res, nil
}

func (s *Store) publish(ctx context.Context, log *slog.Logger, kind models.EventKind, res models.Reservation) {
	event := models.ReservationEvent{
		Kind:        kind,
		Reservation: res,
		OccurredAt:  s.now(),
	}

	if err := s.events.PublishReservationEvent(ctx, event); err != nil {
		log.Error("failed to publish reservation event", slog.String("kind", string(kind)), sl.Err(err))
	}
}

func (s *Store) parse(req Request) (models.Reservation, error) {
	if err := s.validate.Struct(req); err != nil {
		var validateErrs validator.ValidationErrors
		if errors.As(err, &validateErrs) {
			fields := make([]string, 0, len(validateErrs))
			for _, fe := range validateErrs {
				fields = append(fields, fe.Field())
			}

			return models.Reservation{}, fmt.Errorf("%w: missing %s", ErrInvalidInput, strings.Join(fields, ", "))
		}

		return models.Reservation{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	roomType, err := models.ParseRoomType(req.RoomType)
	if err != nil {
		return models.Reservation{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	checkIn, err := time.Parse(models.DateLayout, req.CheckIn)
	if err != nil {
		return models.Reservation{}, fmt.Errorf("%w: checkin: %w", ErrInvalidInput, err)
	}

	checkOut, err := time.Parse(models.DateLayout, req.CheckOut)
	if err != nil {
		return models.Reservation{}, fmt.Errorf("%w: checkout: %w", ErrInvalidInput, err)
	}

	return models.Reservation{
		CustomerName:  req.Name,
		CustomerEmail: req.Email,
		RoomType:      roomType,
		CheckIn:       checkIn,
		CheckOut:      checkOut,
	}, nil
}
