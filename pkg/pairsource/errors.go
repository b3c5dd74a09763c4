package pairsource

import "errors"

var (
	// ErrMissingField is returned when the header lacks a required column
	ErrMissingField = errors.New("required field missing from header")

	// ErrEmptyInput is returned when the input has no header row
	ErrEmptyInput = errors.New("input has no header row")

	// ErrInvalidDelimiter is returned when the delimiter is not a single character
	ErrInvalidDelimiter = errors.New("delimiter must be a single character")
)
