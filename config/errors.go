package config

import "errors"

var (
	// ErrUnknownBundle is returned by Select for a bundle that is not configured.
	ErrUnknownBundle = errors.New("config: unknown bundle")
	// ErrNoBundles is returned when neither the settings file nor the
	// project config declares a bundle.
	ErrNoBundles = errors.New("config: no bundles configured")
	// ErrInvalidDelimiter is returned for delimiters that are not a single
	// usable character.
	ErrInvalidDelimiter = errors.New("config: delimiter must be a single character")
	// ErrInvalidBundle is returned for bundles without a name or directory,
	// or with a duplicate name.
	ErrInvalidBundle = errors.New("config: invalid bundle")
)
