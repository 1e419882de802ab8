package storage

import "errors"

// Storage errors.
var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when attempting to insert a record
	// with a key that already exists.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrDuplicateClaim is returned when a wallet already holds a success record.
	ErrDuplicateClaim = errors.New("wallet already has a successful mint")

	// ErrInvalidTransition is returned when a status update targets a record
	// that is no longer pending.
	ErrInvalidTransition = errors.New("mint record is not pending")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
)
