package repository

import "errors"

var (
	// ErrNotFound is returned when the requested document does not exist.
	ErrNotFound = errors.New("repository: not found")

	// ErrVersionConflict is returned by Update when the stored version moved on
	// since the ticket was read.
	ErrVersionConflict = errors.New("repository: version conflict")

	// ErrDuplicateEmail is returned when a user with the same email exists.
	ErrDuplicateEmail = errors.New("repository: duplicate email")
)

// Store labels used for metrics.
const (
	storePostgres = "postgres"
	storeMongo    = "mongo"
	storeMemory   = "memory"
)
