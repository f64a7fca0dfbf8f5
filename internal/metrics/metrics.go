package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OpCreate = "create"
	OpCancel = "cancel"
)

// Metrics holds the Prometheus collectors of the hotel service.
type Metrics struct {
	ReservationsCreated   prometheus.Counter
	ReservationsCancelled prometheus.Counter
	ReservationsRejected  *prometheus.CounterVec
	RequestDuration       *prometheus.HistogramVec
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ReservationsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "hotel_reservations_created_total",
			Help: "Total number of reservations created",
		}),

		ReservationsCancelled: factory.NewCounter(prometheus.CounterOpts{
			Name: "hotel_reservations_cancelled_total",
			Help: "Total number of reservations cancelled",
		}),

		ReservationsRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hotel_reservation_failures_total",
			Help: "Total number of failed reservation operations by operation and reason",
		}, []string{"operation", "reason"}),

		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "hotel_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

func (m *Metrics) Rejected(operation, reason string) {
	m.ReservationsRejected.WithLabelValues(operation, reason).Inc()
}

// Middleware observes request latency labelled by the matched chi route.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.RequestDuration.
			WithLabelValues(r.Method, route, strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
	})
}
