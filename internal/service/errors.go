package service

import "errors"

var (
	// ErrNoLeagues is returned when a fetch is asked for no leagues.
	ErrNoLeagues = errors.New("no leagues configured")
	// ErrValidationFailed is returned when the corpus has validation errors.
	ErrValidationFailed = errors.New("corpus validation failed")
	// ErrNoHistory is returned when there is no prediction history to check.
	ErrNoHistory = errors.New("no prediction history")
)
