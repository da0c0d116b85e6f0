package roundtrip

import "errors"

var (
	// ErrNoLocaleFiles is returned when a bundle directory holds no locale files.
	ErrNoLocaleFiles = errors.New("no locale files")
	// ErrInvalidKey is returned by AddKey for keys that are not identifiers.
	ErrInvalidKey = errors.New("invalid key")
	// ErrMasterNotFound is returned by Import when there is no master file.
	ErrMasterNotFound = errors.New("master file not found")
)
