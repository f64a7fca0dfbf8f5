package bookingform

import (
	"log/slog"
	"net/http"

	"hotel_service/internal/http-server/web"
	"hotel_service/internal/lib/logger/sl"

	"github.com/go-chi/chi/middleware"
)

func New(log *slog.Logger, flashes web.FlashStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.booking-form.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		page := web.Page{
			Title:     "Albergo - Prenota la tua stanza",
			Flashes:   web.Flashes(r, log, flashes),
			RoomTypes: web.RoomOptions(),
		}

		if err := web.Render(w, web.PageBooking, page); err != nil {
			log.Error("failed to render booking form", sl.Err(err))
		}
	}
}
