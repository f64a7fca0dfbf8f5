package web

import (
	"errors"
	"fmt"

	"hotel_service/internal/models"
	"hotel_service/internal/services/reservation"
)

func BookingSucceeded(name string) models.Flash {
	return models.Flash{
		Category: models.FlashSuccess,
		Message:  fmt.Sprintf("Grazie %s, la tua stanza è stata prenotata con successo!", name),
	}
}

func MissingFields() models.Flash {
	return models.Flash{
		Category: models.FlashError,
		Message:  "Errore: compila tutti i campi obbligatori e accetta la privacy policy.",
	}
}

func BookingFailed(err error) models.Flash {
	var msg string

	switch {
	case errors.Is(err, reservation.ErrInvalidDateRange):
		msg = "Errore: La data di check-out deve essere successiva a quella di check-in."
	case errors.Is(err, reservation.ErrDuplicateEmail):
		msg = "Errore: Questa email è già associata a una prenotazione esistente."
	case errors.Is(err, reservation.ErrInvalidInput):
		msg = "Errore: i dati della prenotazione non sono validi."
	default:
		msg = "Si è verificato un errore durante la prenotazione. Riprova più tardi."
	}

	return models.Flash{Category: models.FlashError, Message: msg}
}

func CancellationSucceeded(email string) models.Flash {
	return models.Flash{
		Category: models.FlashSuccess,
		Message:  fmt.Sprintf("La prenotazione associata all'email %s è stata cancellata con successo.", email),
	}
}

func CancellationFailed(err error) models.Flash {
	var msg string

	switch {
	case errors.Is(err, reservation.ErrNotFound), errors.Is(err, reservation.ErrInvalidInput):
		msg = "Nessuna prenotazione trovata con questa email."
	default:
		msg = "Si è verificato un errore durante la cancellazione. Riprova più tardi."
	}

	return models.Flash{Category: models.FlashError, Message: msg}
}
