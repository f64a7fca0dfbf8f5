package models

import (
	"fmt"
	"time"
)

// DateLayout is the calendar date format used by forms, the API and storage.
const DateLayout = "2006-01-02"

type RoomType string

const (
	RoomSingle RoomType = "Single"
	RoomDouble RoomType = "Double"
	RoomTriple RoomType = "Triple"
	RoomSuite  RoomType = "Suite"
)

var roomTypes = []RoomType{RoomSingle, RoomDouble, RoomTriple, RoomSuite}

// ParseRoomType matches s exactly against the known room types.
func ParseRoomType(s string) (RoomType, error) {
	for _, rt := range roomTypes {
		if string(rt) == s {
			return rt, nil
		}
	}

	return "", fmt.Errorf("unknown room type %q", s)
}

// RoomTypes returns the room types in display order.
func RoomTypes() []RoomType {
	out := make([]RoomType, len(roomTypes))
	copy(out, roomTypes)

	return out
}

type Reservation struct {
	ID            int64     `json:"id"`
	CustomerName  string    `json:"customer_name"`
	CustomerEmail string    `json:"customer_email"`
	RoomType      RoomType  `json:"room_type"`
	CheckIn       time.Time `json:"checkin_date"`
	CheckOut      time.Time `json:"checkout_date"`
	CreatedAt     time.Time `json:"created_at"`
}

type EventKind string

const (
	EventReservationCreated   EventKind = "reservation_created"
	EventReservationCancelled EventKind = "reservation_cancelled"
)

type ReservationEvent struct {
	Kind        EventKind   `json:"kind"`
	Reservation Reservation `json:"reservation"`
	OccurredAt  time.Time   `json:"occurred_at"`
}

const (
	FlashSuccess = "success"
	FlashError   = "error"
)

type Flash struct {
	Category string `json:"category"`
	Message  string `json:"message"`
}
