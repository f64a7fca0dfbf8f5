package cancelreservation

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"hotel_service/internal/http-server/web"
	"hotel_service/internal/lib/logger/sl"
	"hotel_service/internal/services/reservation"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"
)

const redirectTo = "/cancella-prenotazione"

type Request struct {
	Email string `form:"email" validate:"required"`
}

type ReservationCanceller interface {
	CancelReservation(ctx context.Context, email string) error
}

func New(log *slog.Logger, canceller ReservationCanceller, flashes web.FlashStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.cancel-reservation.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request
		if err := render.DecodeForm(r.Body, &req); err != nil {
			log.Error("failed to decode request form", sl.Err(err))

			web.RedirectWithFlash(w, r, log, flashes, redirectTo, web.CancellationFailed(err))

			return
		}

		if err := validator.New().Struct(req); err != nil {
			log.Warn("invalid request", sl.Err(err))

			web.RedirectWithFlash(w, r, log, flashes, redirectTo, web.CancellationFailed(reservation.ErrInvalidInput))

			return
		}

		if err := canceller.CancelReservation(r.Context(), req.Email); err != nil {
			if errors.Is(err, reservation.ErrNotFound) {
				log.Warn("reservation not found", slog.String("email", req.Email))
			} else {
				log.Error("failed to cancel reservation", sl.Err(err))
			}

			web.RedirectWithFlash(w, r, log, flashes, redirectTo, web.CancellationFailed(err))

			return
		}

		log.Info("reservation cancelled successfully", slog.String("email", req.Email))

		web.RedirectWithFlash(w, r, log, flashes, redirectTo, web.CancellationSucceeded(req.Email))
	}
}
