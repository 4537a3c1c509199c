package store

import "errors"

var (
	// ErrConflict is returned when an incident with the same case number
	// already exists.
	ErrConflict = errors.New("already exists")

	// ErrNotFound is returned when no incident has the requested case number.
	ErrNotFound = errors.New("not found")
)
