package model

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind distinguishes failures for internal logging and alerting. The
// user-visible handling is identical for both kinds.
type ErrorKind string

const (
	// Transient covers network, timeout and quota failures.
	Transient ErrorKind = "transient"
	// Fatal covers malformed responses and non-retryable request errors.
	Fatal ErrorKind = "fatal"
)

// ErrEmptyResponse is returned when a provider answers without any text.
var ErrEmptyResponse = errors.New("provider returned no content")

// ProviderError wraps a failure of the generation provider.
type ProviderError struct {
	Kind     ErrorKind
	Provider string
	Err      error
}

// NewProviderError wraps err with kind. Context cancellation is returned
// unchanged so callers can tell caller-initiated cancellation apart.
func NewProviderError(provider string, kind ErrorKind, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return err
	}
	return &ProviderError{Kind: kind, Provider: provider, Err: err}
}

// Error implements error.
func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s provider error (%s): %v", e.Provider, e.Kind, e.Err)
}

// Unwrap returns the cause.
func (e *ProviderError) Unwrap() error { return e.Err }

// IsTransient reports whether err is a transient ProviderError or a deadline.
func IsTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Kind == Transient
}

// KindForStatus maps an HTTP status code reported by a provider SDK.
func KindForStatus(code int) ErrorKind {
	switch {
	case code == http.StatusRequestTimeout, code == http.StatusConflict, code == http.StatusTooManyRequests:
		return Transient
	case code >= 500:
		return Transient
	default:
		return Fatal
	}
}

// Classify wraps an error without an SDK status code: deadlines are
// transient, everything else is fatal.
func Classify(provider string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return NewProviderError(provider, Transient, err)
	}
	return NewProviderError(provider, Fatal, err)
}
