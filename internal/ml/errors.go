// Package ml implements the tree-ensemble classifier and its evaluation.
package ml

import "errors"

var (
	// ErrNotFitted indicates the model has not been trained
	ErrNotFitted = errors.New("model not fitted")

	// ErrEmptyDataset indicates there are no training rows
	ErrEmptyDataset = errors.New("empty dataset")

	// ErrDimensionMismatch indicates a feature vector of the wrong width
	ErrDimensionMismatch = errors.New("feature dimension mismatch")

	// ErrTooFewSamples indicates a split or fold cannot be formed
	ErrTooFewSamples = errors.New("too few samples")
)
