package entity

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is matched by every input validation failure, including
// *ValidationError values.
var ErrInvalidInput = errors.New("invalid input")

// ValidationError names the field that failed validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrInvalidInput, e.Field, e.Message)
}

// Unwrap makes errors.Is(err, ErrInvalidInput) hold.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

func emptyContent() error {
	return &ValidationError{Field: "content", Message: "must not be empty"}
}
