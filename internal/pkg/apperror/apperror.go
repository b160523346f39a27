// internal/pkg/apperror/apperror.go
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an application error for callers and the HTTP layer.
type Kind string

const (
	KindNotFound        Kind = "not_found"
	KindInvalidArgument Kind = "invalid_argument"
	KindEmptyCart       Kind = "empty_cart"
	KindUnauthorized    Kind = "unauthorized"
	KindConflict        Kind = "conflict"
	KindPersistence     Kind = "persistence"
	KindInternal        Kind = "internal"
)

// Error represents an application error
type Error struct {
	Kind    Kind   `json:"kind"`
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

// Is reports whether target is an *Error of the same kind, so the
// sentinels below work with errors.Is regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// New creates a new Error
func New(kind Kind, message string, err error) *Error {
	return &Error{
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Sentinels for errors.Is checks.
var (
	ErrNotFound        = New(KindNotFound, "Not found", nil)
	ErrInvalidArgument = New(KindInvalidArgument, "Invalid argument", nil)
	ErrEmptyCart       = New(KindEmptyCart, "Cart is empty", nil)
	ErrUnauthorized    = New(KindUnauthorized, "Unauthorized", nil)
	ErrConflict        = New(KindConflict, "Conflict", nil)
	ErrPersistence     = New(KindPersistence, "Persistence failure", nil)
)

func NotFound(format string, args ...any) *Error {
	return New(KindNotFound, fmt.Sprintf(format, args...), nil)
}

func InvalidArgument(format string, args ...any) *Error {
	return New(KindInvalidArgument, fmt.Sprintf(format, args...), nil)
}

func Unauthorized(message string) *Error {
	return New(KindUnauthorized, message, nil)
}

func Conflict(format string, args ...any) *Error {
	return New(KindConflict, fmt.Sprintf(format, args...), nil)
}

// EmptyCart is returned by checkout when the caller has nothing to order.
func EmptyCart() *Error {
	return New(KindEmptyCart, "Cart is empty.", nil)
}

// Persistence wraps a store failure that the caller cannot act on.
func Persistence(message string, err error) *Error {
	return New(KindPersistence, message, err)
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// HTTPStatus maps an error kind to its response status.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidArgument, KindEmptyCart:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
