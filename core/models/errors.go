package models

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrInvalidState is returned when an operation is attempted outside the
	// state that allows it, e.g. a second submit while one is in flight.
	ErrInvalidState = errors.New("invalid state")
	// ErrEmptyInput is returned by geometry and ranking functions given no data.
	ErrEmptyInput = errors.New("empty input")
	// ErrNotFound matches a RemoteError whose status is 404.
	ErrNotFound = errors.New("not found")
	// ErrSuperseded is returned when a response arrives for a request that a
	// newer request has replaced.
	ErrSuperseded = errors.New("superseded by a newer request")
)

// ValidationError reports a malformed or missing selection.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Reason
	}
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Reason)
}

// NewValidationError builds a ValidationError with a formatted reason.
func NewValidationError(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// InvalidStateError wraps ErrInvalidState with the operation and the state it
// was attempted in.
func InvalidStateError(op string, state fmt.Stringer) error {
	return fmt.Errorf("%s not allowed in state %s: %w", op, state, ErrInvalidState)
}

// RemoteError is a network or backend failure on a call to the fitting service.
type RemoteError struct {
	Op         string
	StatusCode int
	Detail     string
	Err        error
}

func (e *RemoteError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Detail != "":
		return fmt.Sprintf("%s failed with HTTP %d: %s", e.Op, e.StatusCode, e.Detail)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s failed with HTTP %d", e.Op, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
	default:
		return e.Op + " failed"
	}
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrNotFound) match 404 responses.
func (e *RemoteError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// IsValidation reports whether err is or wraps a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsRemote reports whether err is or wraps a RemoteError.
func IsRemote(err error) bool {
	var re *RemoteError
	return errors.As(err, &re)
}
