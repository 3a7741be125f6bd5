package models

import "errors"

// Custom errors
var (
	ErrInvalidDate   = errors.New("invalid match date")
	ErrUnknownTarget = errors.New("unknown prediction target")
)
