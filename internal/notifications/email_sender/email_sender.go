package emailsender

import (
	"fmt"

	"hotel_service/internal/models"

	"gopkg.in/gomail.v2"
)

const dateFormat = "02/01/2006"

type Mailer struct {
	Host     string
	Port     int
	Username string
	Password string
}

// Send delivers a plain-text email. Addresses in bcc receive a hidden copy.
func (m *Mailer) Send(to, subject, body string, bcc ...string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.Username)
	msg.SetHeader("To", to)
	if len(bcc) > 0 {
		msg.SetHeader("Bcc", bcc...)
	}

	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	dialer := gomail.NewDialer(m.Host, m.Port, m.Username, m.Password)
	return dialer.DialAndSend(msg)
}

// CreateMessage builds the subject and body sent to the customer for event.
func CreateMessage(event models.ReservationEvent) (string, string, error) {
	res := event.Reservation

	switch event.Kind {
	case models.EventReservationCreated:
		return "Conferma prenotazione", fmt.Sprintf(
			"Gentile %s,\n\nla tua prenotazione n. %d è confermata.\nStanza: %s\nCheck-in: %s\nCheck-out: %s\n\nA presto!",
			res.CustomerName,
			res.ID,
			res.RoomType,
			res.CheckIn.Format(dateFormat),
			res.CheckOut.Format(dateFormat),
		), nil
	case models.EventReservationCancelled:
		return "Prenotazione cancellata", fmt.Sprintf(
			"Gentile %s,\n\nla tua prenotazione n. %d (stanza %s, dal %s al %s) è stata cancellata.",
			res.CustomerName,
			res.ID,
			res.RoomType,
			res.CheckIn.Format(dateFormat),
			res.CheckOut.Format(dateFormat),
		), nil
	default:
		return "", "", fmt.Errorf("unknown event kind %q", event.Kind)
	}
}
