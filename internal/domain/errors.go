package domain

import "errors"

var (
	// ErrInvalidInput flags a malformed date, number or empty required field.
	// Always recoverable: capture flows re-prompt the same step.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound flags an operation against an unknown batch or sale id.
	ErrNotFound = errors.New("record not found")

	// ErrExhausted flags a sale against a batch with nothing remaining.
	ErrExhausted = errors.New("batch exhausted")

	// ErrConflict flags deleting a batch that still has sales attached.
	ErrConflict = errors.New("batch has dependent sales")
)
