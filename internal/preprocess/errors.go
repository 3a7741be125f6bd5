package preprocess

import "errors"

var (
	// ErrNoTrainingRows is returned when no record survives cleaning.
	ErrNoTrainingRows = errors.New("no usable training rows")
	// ErrSchemaMismatch is returned when a transformer's parts disagree.
	ErrSchemaMismatch = errors.New("transformer schema mismatch")
)
