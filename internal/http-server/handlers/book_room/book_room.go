package bookroom

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"hotel_service/internal/http-server/web"
	"hotel_service/internal/lib/logger/sl"
	"hotel_service/internal/models"
	"hotel_service/internal/services/reservation"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"
)

const redirectTo = "/"

type Request struct {
	Name     string `form:"nome" validate:"required"`
	Email    string `form:"email" validate:"required"`
	RoomType string `form:"tipo_stanza" validate:"required"`
	CheckIn  string `form:"checkin" validate:"required"`
	CheckOut string `form:"checkout" validate:"required"`
	Privacy  string `form:"privacy" validate:"required"`
}

type ReservationCreator interface {
	CreateReservation(ctx context.Context, req reservation.Request) (models.Reservation, error)
}

func New(log *slog.Logger, creator ReservationCreator, flashes web.FlashStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.book-room.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request
		if err := render.DecodeForm(r.Body, &req); err != nil {
			log.Error("failed to decode request form", sl.Err(err))

			web.RedirectWithFlash(w, r, log, flashes, redirectTo, web.BookingFailed(err))

			return
		}

		if err := validator.New().Struct(req); err != nil {
			log.Warn("invalid request", sl.Err(err))

			web.RedirectWithFlash(w, r, log, flashes, redirectTo, web.MissingFields())

			return
		}

		res, err := creator.CreateReservation(r.Context(), reservation.Request{
			Name:     req.Name,
			Email:    req.Email,
			RoomType: req.RoomType,
			CheckIn:  req.CheckIn,
			CheckOut: req.CheckOut,
		})
		if err != nil {
			if errors.Is(err, reservation.ErrStorage) {
				log.Error("failed to book room", sl.Err(err))
			} else {
				log.Warn("booking rejected", sl.Err(err))
			}

			web.RedirectWithFlash(w, r, log, flashes, redirectTo, web.BookingFailed(err))

			return
		}

		log.Info("room booked successfully", slog.Int64("id", res.ID))

		web.RedirectWithFlash(w, r, log, flashes, redirectTo, web.BookingSucceeded(res.CustomerName))
	}
}
