package notifications

import (
	"encoding/json"
	"log/slog"

	"hotel_service/internal/lib/logger/sl"
	"hotel_service/internal/models"
	emailsender "hotel_service/internal/notifications/email_sender"
)

type Sender interface {
	Send(to, subject, body string, bcc ...string) error
}

// Notifier turns reservation events into customer emails.
type Notifier struct {
	log        *slog.Logger
	sender     Sender
	adminEmail string
}

// New returns a Notifier. A non-empty adminEmail receives a hidden copy of
// every email.
func New(log *slog.Logger, sender Sender, adminEmail string) *Notifier {
	return &Notifier{
		log:        log,
		sender:     sender,
		adminEmail: adminEmail,
	}
}

// HandleMessage processes one queue delivery. Failures are logged; the
// message is never redelivered.
func (n *Notifier) HandleMessage(msg []byte) {
	const op = "notifications.HandleMessage"

	log := n.log.With(slog.String("op", op))

	var event models.ReservationEvent
	if err := json.Unmarshal(msg, &event); err != nil {
		log.Error("failed to unmarshal message", sl.Err(err))
		return
	}

	subject, body, err := emailsender.CreateMessage(event)
	if err != nil {
		log.Error("failed to create message", sl.Err(err))
		return
	}

	var bcc []string
	if n.adminEmail != "" {
		bcc = append(bcc, n.adminEmail)
	}

	if err := n.sender.Send(event.Reservation.CustomerEmail, subject, body, bcc...); err != nil {
		log.Error("failed to send message",
			slog.String("kind", string(event.Kind)),
			slog.Int64("reservation_id", event.Reservation.ID),
			sl.Err(err),
		)
		return
	}

	log.Info("message sent successfully",
		slog.String("kind", string(event.Kind)),
		slog.Int64("reservation_id", event.Reservation.ID),
	)
}
