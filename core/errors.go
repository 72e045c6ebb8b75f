package core

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across packages.
var (
	// ErrEmptyMessage is returned when the inbound message is blank after trimming.
	ErrEmptyMessage = errors.New("message must not be empty")
	// ErrSessionBusy is returned when a turn is already in flight for the session.
	ErrSessionBusy = errors.New("session already has a turn in flight")
	// ErrTooManyTurns is returned when the concurrent turn limit is reached.
	ErrTooManyTurns = errors.New("too many concurrent turns")
	// ErrTurnNotFound is returned when cancelling an unknown or finished turn.
	ErrTurnNotFound = errors.New("turn not found")
	// ErrIllegalTransition is returned when a turn status change violates the state machine.
	ErrIllegalTransition = errors.New("illegal turn transition")
)

// ValidationError rejects a request before a turn is created. No stream is
// opened for a request that fails validation.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// NewValidationError builds a ValidationError for field.
func NewValidationError(field string, err error) *ValidationError {
	return &ValidationError{Field: field, Message: err.Error(), Err: err}
}

// Error implements error.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field '%s': %s", e.Field, e.Message)
}

// Unwrap exposes the underlying sentinel.
func (e *ValidationError) Unwrap() error { return e.Err }

// IsValidationError reports whether err is (or wraps) a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
