package schema

import "errors"

var (
	// ErrEmpty is returned when the store has no header row.
	ErrEmpty = errors.New("schema: master file has no header row")
	// ErrMissingKey is returned when no header cell is labelled "key".
	ErrMissingKey = errors.New("schema: no key column in header")
)
