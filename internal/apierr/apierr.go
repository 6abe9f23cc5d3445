// Package apierr defines the closed error-kind taxonomy shared by the
// store, service, and handler layers so that HTTP status codes are derived
// in one place instead of being re-guessed at each boundary.
package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error into one of a fixed set of buckets, each mapped
// to exactly one HTTP status code.
type Kind string

const (
	KindBadRequest      Kind = "bad_request"
	KindUnauthorized    Kind = "unauthorized"
	KindForbidden       Kind = "forbidden"
	KindNotFound        Kind = "not_found"
	KindConflict        Kind = "conflict"
	KindPayloadTooLarge Kind = "payload_too_large"
	KindRateLimited     Kind = "rate_limited"
	KindTimeout         Kind = "timeout"
	KindInternal        Kind = "internal"
)

// statusByKind maps each Kind to its HTTP status, 1:1 as required.
var statusByKind = map[Kind]int{
	KindBadRequest:      http.StatusBadRequest,
	KindUnauthorized:    http.StatusUnauthorized,
	KindForbidden:       http.StatusForbidden,
	KindNotFound:        http.StatusNotFound,
	KindConflict:        http.StatusConflict,
	KindPayloadTooLarge: http.StatusRequestEntityTooLarge,
	KindRateLimited:     http.StatusTooManyRequests,
	KindTimeout:         http.StatusGatewayTimeout,
	KindInternal:        http.StatusInternalServerError,
}

// Error is a typed error carrying a Kind, a stable machine-readable code,
// and an operator-facing message. The message is safe to return to callers;
// a wrapped cause (via Unwrap) is for logs only and never serialized.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Details map[string]any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Status returns the HTTP status code for this error's Kind.
func (e *Error) Status() int {
	if status, ok := statusByKind[e.Kind]; ok {
		return status
	}

	return http.StatusInternalServerError
}

// New constructs an *Error with no wrapped cause.
func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Wrap constructs an *Error that wraps an underlying cause. The cause is
// available via errors.Unwrap / errors.Is and is appended to Error(); it is
// never added to Message.
func Wrap(kind Kind, code, message string, cause error) *Error {
	return &Error{Kind: kind, Code: code, Message: message, Err: cause}
}

// WithDetails attaches structured, credential-free detail to the error.
func (e *Error) WithDetails(details map[string]any) *Error {
	e.Details = details
	return e
}

// BadRequest is a convenience constructor for the common malformed-input case.
func BadRequest(code, message string) *Error { return New(KindBadRequest, code, message) }

// NotFound is a convenience constructor for the common not-found case.
func NotFound(code, message string) *Error { return New(KindNotFound, code, message) }

// Internal is a convenience constructor wrapping an internal cause.
func Internal(code, message string, cause error) *Error {
	return Wrap(KindInternal, code, message, cause)
}

// As extracts an *Error from err, following the error chain. It reports
// whether an *Error was found.
func As(err error) (*Error, bool) {
	var target *Error
	if errors.As(err, &target) {
		return target, true
	}

	return nil, false
}

// KindOf returns the Kind of err if it (or something it wraps) is an
// *Error, or KindInternal otherwise. Callers use this to pick an HTTP
// status without needing to type-assert themselves.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}

	return KindInternal
}
