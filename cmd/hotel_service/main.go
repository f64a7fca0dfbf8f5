package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hotel_service/internal/config"
	"hotel_service/internal/http-server/handlers/api/reservations"
	bookroom "hotel_service/internal/http-server/handlers/book_room"
	bookingform "hotel_service/internal/http-server/handlers/booking_form"
	cancelform "hotel_service/internal/http-server/handlers/cancel_form"
	cancelreservation "hotel_service/internal/http-server/handlers/cancel_reservation"
	"hotel_service/internal/lib/logger/sl"
	"hotel_service/internal/lib/session"
	"hotel_service/internal/metrics"
	"hotel_service/internal/rabbitmq"
	"hotel_service/internal/services/reservation"
	"hotel_service/internal/storage/postgres"
	"hotel_service/internal/storage/redis"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	cfg := config.MustLoad()
	log := setupLogger(cfg.Env)

	log.Info("starting hotel service", slog.String("env", cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("hotel service failed", sl.Err(err))
		os.Exit(1)
	}

	log.Info("hotel service gracefully stopped")
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	initCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// * RabbitMQ
	publisher, err := rabbitmq.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.QueueName)
	if err != nil {
		return err
	}
	defer publisher.Close()

	// * Postgres
	postgresRepo, err := postgres.Connect(initCtx, cfg)
	if err != nil {
		return err
	}
	defer postgresRepo.Close()

	if err := postgresRepo.Migrate(initCtx); err != nil {
		return err
	}

	// * Redis
	redisRepo, err := redis.New(
		initCtx,
		cfg.Redis.Host,
		cfg.Redis.Password,
		cfg.Redis.DB,
		cfg.Redis.CacheTTL,
		cfg.Session.FlashTTL,
	)
	if err != nil {
		return err
	}
	defer redisRepo.Close()

	// * Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	store := reservation.New(log, postgresRepo, postgresRepo, postgresRepo, redisRepo, publisher, m)

	// * Routing
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(m.Middleware)

	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	// * Handlers
	r.Group(func(r chi.Router) {
		r.Use(session.Middleware(cfg.Session.Secret, cfg.Session.TTL))

		r.Get("/", bookingform.New(log, redisRepo))
		r.Post("/prenota", bookroom.New(log, store, redisRepo))
		r.Get("/cancella-prenotazione", cancelform.New(log, redisRepo))
		r.Post("/cancella", cancelreservation.New(log, store, redisRepo))
	})

	r.Post("/api/reservations", reservations.Create(log, store))
	r.Get("/api/reservations", reservations.Get(log, store))
	r.Delete("/api/reservations", reservations.Cancel(log, store))

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      r,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server starting", slog.String("addr", cfg.HTTPServer.Address))

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down HTTP server")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.HTTPServer.ShutdownTimeout)
	defer cancelShutdown()

	return srv.Shutdown(shutdownCtx)
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = slog.New(slog.NewTextHandler(os.Stdout, nil))
	}

	return log
}
