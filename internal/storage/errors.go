package storage

import "errors"

// Storage errors shared by every RunStore implementation.
var (
	// ErrNotFound is returned when a requested run does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when saving a run whose ID is taken.
	// Runs are immutable once saved.
	ErrDuplicateKey = errors.New("duplicate key: runs are immutable")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
)
