package reservations

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	resp "hotel_service/internal/lib/api/response"
	"hotel_service/internal/lib/logger/sl"
	"hotel_service/internal/models"
	"hotel_service/internal/services/reservation"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"
)

type Request struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required"`
	RoomType string `json:"room_type" validate:"required,oneof=Single Double Triple Suite"`
	CheckIn  string `json:"checkin" validate:"required"`
	CheckOut string `json:"checkout" validate:"required"`
}

type Reservation struct {
	ID            int64  `json:"id"`
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	RoomType      string `json:"room_type"`
	CheckIn       string `json:"checkin"`
	CheckOut      string `json:"checkout"`
}

type Store interface {
	CreateReservation(ctx context.Context, req reservation.Request) (models.Reservation, error)
	CancelReservation(ctx context.Context, email string) error
	Reservation(ctx context.Context, email string) (models.Reservation, error)
}

func Create(log *slog.Logger, store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.api.reservations.Create"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("failed to decode request body", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("failed to decode request"))

			return
		}

		if err := validator.New().Struct(req); err != nil {
			var validateErr validator.ValidationErrors
			if !errors.As(err, &validateErr) {
				log.Error("failed to validate request", sl.Err(err))

				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, resp.Error("internal error"))

				return
			}

			log.Warn("invalid request", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.ValidationError(validateErr))

			return
		}

		res, err := store.CreateReservation(r.Context(), reservation.Request{
			Name:     req.Name,
			Email:    req.Email,
			RoomType: req.RoomType,
			CheckIn:  req.CheckIn,
			CheckOut: req.CheckOut,
		})
		if err != nil {
			renderError(w, r, log, err)
			return
		}

		log.Info("reservation created", slog.Int64("id", res.ID))

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, resp.OKWithData(toResponse(res)))
	}
}

func Get(log *slog.Logger, store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.api.reservations.Get"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		res, err := store.Reservation(r.Context(), r.URL.Query().Get("email"))
		if err != nil {
			renderError(w, r, log, err)
			return
		}

		render.JSON(w, r, resp.OKWithData(toResponse(res)))
	}
}

func Cancel(log *slog.Logger, store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.api.reservations.Cancel"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		email := r.URL.Query().Get("email")

		if err := store.CancelReservation(r.Context(), email); err != nil {
			renderError(w, r, log, err)
			return
		}

		log.Info("reservation cancelled", slog.String("email", email))

		render.JSON(w, r, resp.OK())
	}
}

func renderError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	status, msg := http.StatusInternalServerError, "internal error"

	switch {
	case errors.Is(err, reservation.ErrInvalidInput):
		status, msg = http.StatusBadRequest, "invalid reservation data"
	case errors.Is(err, reservation.ErrInvalidDateRange):
		status, msg = http.StatusUnprocessableEntity, "checkout date must be after checkin date"
	case errors.Is(err, reservation.ErrDuplicateEmail):
		status, msg = http.StatusConflict, "email is already associated with a reservation"
	case errors.Is(err, reservation.ErrNotFound):
		status, msg = http.StatusNotFound, "reservation not found"
	}

	if status == http.StatusInternalServerError {
		log.Error("reservation operation failed", sl.Err(err))
	} else {
		log.Warn("reservation operation rejected", sl.Err(err))
	}

	render.Status(r, status)
	render.JSON(w, r, resp.Error(msg))
}

func toResponse(res models.Reservation) Reservation {
	return Reservation{
		ID:            res.ID,
		CustomerName:  res.CustomerName,
		CustomerEmail: res.CustomerEmail,
		RoomType:      string(res.RoomType),
		CheckIn:       res.CheckIn.Format(models.DateLayout),
		CheckOut:      res.CheckOut.Format(models.DateLayout),
	}
}
