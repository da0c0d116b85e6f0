package storage

import "errors"

var (
	// ErrNotFound is returned when the master file does not exist yet.
	ErrNotFound = errors.New("storage: object not found")
	// ErrInvalidLocation is returned for locations that name no file.
	ErrInvalidLocation = errors.New("storage: invalid location")
)
