package artifact

import "errors"

var (
	// ErrNoActiveBundle is returned when a target has no active bundle.
	ErrNoActiveBundle = errors.New("no active bundle")
	// ErrHashMismatch is returned when a bundle's content does not match its recorded hash.
	ErrHashMismatch = errors.New("bundle content hash mismatch")
	// ErrIncompatibleBundle is returned when a bundle cannot serve the current feature engine.
	ErrIncompatibleBundle = errors.New("incompatible bundle")
	// ErrUnknownBundle is returned when activating a key that was never registered.
	ErrUnknownBundle = errors.New("unknown bundle")
)
