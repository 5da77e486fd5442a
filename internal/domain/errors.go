package domain

import "errors"

var (
	// ErrInvalidInput marks request payloads rejected before the
	// transaction starts. Handlers report it as a client error.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInsufficientSeats is a normal outcome of reservation, not a
	// store failure. It aborts the transaction before anything else is
	// written.
	ErrInsufficientSeats = errors.New("insufficient seats")

	ErrFlightNotFound  = errors.New("flight not found")
	ErrBookingNotFound = errors.New("booking not found")
	ErrNotOwner        = errors.New("booking belongs to another user")

	// ErrAlreadyCancelled reports the idempotent-guard outcome of
	// cancelling a booking twice.
	ErrAlreadyCancelled = errors.New("booking is already cancelled")

	// ErrPassengerExists is returned by the passenger insert when the
	// uniqueness constraint fires; the resolver recovers by re-querying.
	ErrPassengerExists = errors.New("passenger already exists")
)
