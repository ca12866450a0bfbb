package models

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptySearch is returned when neither a query nor any filter is given.
	ErrEmptySearch = errors.New("Please enter a search query or select filters")
	ErrUnknownKind = errors.New("unknown content type")
	ErrNotFound    = errors.New("not found")
)

// ValidationError describes a rejected field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// DecodeError reports stored data of a kind that could not be decoded.
// Index is the offending record, or -1 when the payload itself is malformed.
type DecodeError struct {
	Kind  EntityKind
	Index int
	Err   error
}

func (e *DecodeError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("decode %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("decode %s[%d]: %v", e.Kind, e.Index, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
