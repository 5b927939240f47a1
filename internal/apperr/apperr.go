// Package apperr defines the error taxonomy shared by the three services.
// Every error that should reach a client as something other than a generic
// 500 is an *Error carrying a Kind; the HTTP layer maps kinds to status
// codes in one place.
package apperr

import (
	"errors"
	"net/http"
)

// Kind is the machine-readable class of an error.
type Kind string

const (
	KindValidation     Kind = "validation_error"
	KindAuth           Kind = "auth_error"
	KindAuthorization  Kind = "authorization_error"
	KindRateLimited    Kind = "rate_limited"
	KindNotFound       Kind = "not_found"
	KindConflict       Kind = "conflict"
	KindClassification Kind = "classification_error"
	KindStorage        Kind = "storage_error"
	KindInternal       Kind = "internal_error"
)

// CodeTooLarge marks a validation failure caused by an oversized payload.
const CodeTooLarge = "payload_too_large"

// Error is a classified application error. Code narrows the kind
// (e.g. "token_expired" within auth_error); Message is safe to show to
// clients; Err is the underlying cause and is never rendered.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error by kind and code so wrapped copies of a
// sentinel still satisfy errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code
}

// HTTPStatus is Status(e.Kind) except that oversized payloads map to 413.
func (e *Error) HTTPStatus() int {
	if e.Kind == KindValidation && e.Code == CodeTooLarge {
		return http.StatusRequestEntityTooLarge
	}
	return Status(e.Kind)
}

// New creates an error of the given kind.
func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Wrap creates an error of the given kind around a cause.
func Wrap(kind Kind, code, message string, err error) *Error {
	return &Error{Kind: kind, Code: code, Message: message, Err: err}
}

// Validation is shorthand for the most common client error.
func Validation(code, message string) *Error {
	return New(KindValidation, code, message)
}

// NotFound is shorthand for an unknown or foreign resource.
func NotFound(message string) *Error {
	return New(KindNotFound, "not_found", message)
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf reports the kind of err, or KindInternal when err is unclassified.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return KindInternal
}

// Status maps a kind to its HTTP status code.
func Status(kind Kind) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuth:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindStorage:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
