package features

import "errors"

var (
	// ErrUnseenLabel is returned when a label was not present at fit time.
	ErrUnseenLabel = errors.New("label not seen during fit")
	// ErrUnknownColumn is returned for a column the engine does not produce.
	ErrUnknownColumn = errors.New("unknown feature column")
	// ErrEmptyEncoder is returned when an encoder has no classes.
	ErrEmptyEncoder = errors.New("label encoder has no classes")
)
