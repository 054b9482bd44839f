// Package apperr defines the typed error kinds the HTTP layer maps to
// status codes. The response envelope itself lives in the handler package.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for HTTP status mapping and logging.
type Kind string

const (
	Validation    Kind = "VALIDATION"
	DataLoad      Kind = "DATA_LOAD"
	ExternalAPI   Kind = "EXTERNAL_API"
	DataNotFound  Kind = "DATA_NOT_FOUND"
	Internal      Kind = "INTERNAL"
)

// Error wraps an underlying cause with a Kind and a caller-facing message.
type Error struct {
	Kind    Kind
	Message string
	Details string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New builds an *Error with no wrapped cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an *Error around an existing error, preserving it for
// errors.Is/errors.As and logging.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// WithDetails attaches caller-facing detail text and returns the receiver.
func (e *Error) WithDetails(details string) *Error {
	e.Details = details
	return e
}

// KindOf extracts the Kind of err if it (or something it wraps) is an
// *Error, defaulting to Internal otherwise.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return Internal
}

// IsNotFound reports whether err's Kind is DataNotFound.
func IsNotFound(err error) bool {
	return KindOf(err) == DataNotFound
}
