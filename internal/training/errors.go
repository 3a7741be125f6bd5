package training

import "errors"

var (
	// ErrNoCorpus is returned when the historical corpus cannot be read.
	ErrNoCorpus = errors.New("training corpus unavailable")
	// ErrAllTargetsFailed is returned when no target produced a bundle.
	ErrAllTargetsFailed = errors.New("no target could be trained")
)
