package table

import "errors"

var (
	// ErrNotFound is returned by Read when the master file does not exist.
	ErrNotFound = errors.New("table: master file not found")
	// ErrMalformed is returned when the master file exists but cannot be parsed.
	ErrMalformed = errors.New("table: malformed master file")
	// ErrEmpty is returned when writing a grid without rows.
	ErrEmpty = errors.New("table: nothing to write")
	// ErrCellTooLong is returned when a value exceeds what a worksheet cell
	// holds.
	ErrCellTooLong = errors.New("table: value too long for a worksheet cell")
)
