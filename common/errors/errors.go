package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure so callers can react to it specifically.
type Kind string

const (
	KindNotFound        Kind = "not_found"
	KindUnauthenticated Kind = "unauthenticated"
	KindValidation      Kind = "validation"
	KindStore           Kind = "store_failure"
)

// Error represents an application error
type Error struct {
	Kind    Kind   `json:"kind"`
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches errors of the same kind, so errors.Is(err, ErrNotFound) holds
// for every not-found error regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// JSON returns the error as a JSON string
func (e *Error) JSON() string {
	b, _ := json.Marshal(e)
	return string(b)
}

// New creates a new Error
func New(kind Kind, message string, err error) *Error {
	return &Error{
		Kind:    kind,
		Code:    StatusFor(kind),
		Message: message,
		Err:     err,
	}
}

func NotFound(message string) *Error { return New(KindNotFound, message, nil) }

func Unauthenticated(message string) *Error { return New(KindUnauthenticated, message, nil) }

func Validation(message string) *Error { return New(KindValidation, message, nil) }

// Store wraps an underlying storage or network fault.
func Store(message string, err error) *Error { return New(KindStore, message, err) }

// Sentinels for errors.Is comparisons.
var (
	ErrNotFound        = NotFound("Not found")
	ErrUnauthenticated = Unauthenticated("Authentication required")
	ErrValidation      = Validation("Validation error")
	ErrStore           = Store("Store failure", nil)
)

// KindOf returns the kind of err, defaulting to KindStore for errors that
// did not originate in this package.
func KindOf(err error) Kind {
	var appErr *Error
	if stderrors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindStore
}

// StatusFor maps a kind to the HTTP status used by the API.
func StatusFor(kind Kind) int {
	switch kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}
