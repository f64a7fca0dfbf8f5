package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"hotel_service/internal/config"
	"hotel_service/internal/lib/logger/sl"
	"hotel_service/internal/notifications"
	emailsender "hotel_service/internal/notifications/email_sender"
	"hotel_service/internal/rabbitmq"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.MustLoadNotifier()
	log := setupLogger(cfg.Env)

	startConsumer(ctx, cfg, log)
}

func startConsumer(ctx context.Context, cfg *config.NotifierConfig, log *slog.Logger) {
	log.Info("starting notification service", slog.String("env", cfg.Env))

	consumer, err := rabbitmq.NewConsumer(log, cfg.RabbitMQURL, cfg.QueueName)
	if err != nil {
		log.Error("failed to init rabbitmq", sl.Err(err))
		return
	}
	defer consumer.Close()

	mailer := &emailsender.Mailer{
		Host:     cfg.Email.Host,
		Port:     cfg.Email.Port,
		Username: cfg.Email.Username,
		Password: cfg.Email.Password,
	}

	notifier := notifications.New(log, mailer, cfg.AdministratorEmail)

	done := make(chan struct{})

	go func() {
		defer close(done)

		if err := consumer.StartReading(ctx, notifier.HandleMessage); err != nil {
			log.Error("failed to start reading", sl.Err(err))
		}
	}()

	log.Info("notification service successfully started")

	select {
	case <-ctx.Done():
		log.Info("shutting down consumer...")
		// the delivery in flight must be acked before the channel closes
		<-done
	case <-done:
		log.Info("notification service finished the work")
	}

	log.Info("notification service gracefully stopped")
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
