package cancelform

import (
	"log/slog"
	"net/http"

	"hotel_service/internal/http-server/web"
	"hotel_service/internal/lib/logger/sl"

	"github.com/go-chi/chi/middleware"
)

func New(log *slog.Logger, flashes web.FlashStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.cancel-form.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		page := web.Page{
			Title:   "Albergo - Cancella Prenotazione",
			Flashes: web.Flashes(r, log, flashes),
		}

		if err := web.Render(w, web.PageCancel, page); err != nil {
			log.Error("failed to render cancellation form", sl.Err(err))
		}
	}
}
