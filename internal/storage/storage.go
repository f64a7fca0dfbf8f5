package storage

import "errors"

var (
	ErrReservationExists   = errors.New("reservation with this email already exists")
	ErrReservationNotFound = errors.New("reservation is not found")
	ErrCacheMiss           = errors.New("reservation is not cached")
)
