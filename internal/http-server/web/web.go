package web

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"hotel_service/internal/lib/logger/sl"
	"hotel_service/internal/lib/session"
	"hotel_service/internal/models"
)

const (
	PageBooking = "booking.html"
	PageCancel  = "cancel.html"
)

//go:embed templates/*.html
var templatesFS embed.FS

var pages = template.Must(template.ParseFS(templatesFS, "templates/*.html"))

var roomLabels = map[models.RoomType]string{
	models.RoomSingle: "Singola",
	models.RoomDouble: "Doppia",
	models.RoomTriple: "Tripla",
	models.RoomSuite:  "Suite",
}

type RoomOption struct {
	Value string
	Label string
}

type Page struct {
	Title     string
	Flashes   []models.Flash
	RoomTypes []RoomOption
}

type FlashStore interface {
	AddFlash(ctx context.Context, sessionID string, flash models.Flash) error
	PopFlashes(ctx context.Context, sessionID string) ([]models.Flash, error)
}

func RoomOptions() []RoomOption {
	types := models.RoomTypes()
	opts := make([]RoomOption, 0, len(types))

	for _, rt := range types {
		opts = append(opts, RoomOption{Value: string(rt), Label: roomLabels[rt]})
	}

	return opts
}

// Render executes the named page into a buffer so a template failure can
// still be reported as a 500 instead of a truncated page.
func Render(w http.ResponseWriter, name string, page Page) error {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, page); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, err := buf.WriteTo(w)

	return err
}

// Flashes pops the pending flashes of the request's session.
func Flashes(r *http.Request, log *slog.Logger, store FlashStore) []models.Flash {
	sid := session.ID(r.Context())
	if sid == "" {
		return nil
	}

	flashes, err := store.PopFlashes(r.Context(), sid)
	if err != nil {
		log.Error("failed to load flash messages", sl.Err(err))
		return nil
	}

	return flashes
}

// RedirectWithFlash stores flash for the next page view and redirects to
// target. A lost flash never blocks the redirect.
func RedirectWithFlash(w http.ResponseWriter, r *http.Request, log *slog.Logger, store FlashStore, target string, flash models.Flash) {
	if sid := session.ID(r.Context()); sid != "" {
		if err := store.AddFlash(r.Context(), sid, flash); err != nil {
			log.Error("failed to store flash message", sl.Err(err))
		}
	}

	http.Redirect(w, r, target, http.StatusSeeOther)
}
