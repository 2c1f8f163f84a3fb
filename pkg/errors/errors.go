package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType classifies the fatal conditions a collection run can end with.
type ErrorType string

const (
	// ErrorTypeInvalidInput marks malformed caller-supplied parameters,
	// detected before any network activity.
	ErrorTypeInvalidInput ErrorType = "invalid_input"
	// ErrorTypeInvalidQuery marks a query the remote API rejected. Never retried.
	ErrorTypeInvalidQuery ErrorType = "invalid_query"
	// ErrorTypeRequestExhausted marks a retry budget spent without a successful
	// response. The job stays resumable.
	ErrorTypeRequestExhausted ErrorType = "request_exhausted"
	// ErrorTypeNoToken marks a missing bearer token.
	ErrorTypeNoToken ErrorType = "no_token"
	// ErrorTypeNotYetFinished marks a read-only request against a job whose
	// window has not been fully walked.
	ErrorTypeNotYetFinished ErrorType = "not_yet_finished"
)

// Error is a fatal collection error with type information.
type Error struct {
	Type    ErrorType
	Message string
	// Status is the last observed HTTP status, when one applies.
	Status int
	// Detail carries the remote-supplied explanation verbatim, when present.
	Detail string
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s error (status %d): %s", e.Type, e.Status, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

// New creates an Error of the given type.
func New(t ErrorType, message string) *Error {
	return &Error{Type: t, Message: message}
}

// Newf creates an Error of the given type with a formatted message.
func Newf(t ErrorType, format string, args ...interface{}) *Error {
	return &Error{Type: t, Message: fmt.Sprintf(format, args...)}
}

// IsType reports whether err is an *Error of type t.
func IsType(err error, t ErrorType) bool {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type == t
	}
	return false
}

// IsFatal reports whether err should terminate the engine. Anything that is
// not one of the typed fatal kinds is absorbed by retry.
func IsFatal(err error) bool {
	var e *Error
	return stderrors.As(err, &e)
}

// IsRetryableStatus reports whether an HTTP status indicates a transient
// condition worth retrying.
func IsRetryableStatus(status int) bool {
	switch status {
	case 0: // network error
		return true
	case 429:
		return true
	case 500, 502, 503, 504:
		return true
	case 400, 401, 403:
		return false
	default:
		return status >= 500
	}
}
