package storage

import "errors"

// Common storage errors.
var (
	// ErrNotFound is returned when no snapshot is stored under a name.
	ErrNotFound = errors.New("project not found")

	// ErrInvalidName is returned for project names that cannot be used as
	// storage keys.
	ErrInvalidName = errors.New("invalid project name")

	// ErrUnknownBackend is returned by Open for an unrecognized backend.
	ErrUnknownBackend = errors.New("unknown storage backend")
)
