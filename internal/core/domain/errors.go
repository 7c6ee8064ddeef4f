package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every error the core returns on purpose wraps exactly one of
// these; anything else is treated as an internal failure by the API layer.
var (
	ErrValidation      = errors.New("validation error")
	ErrUnauthenticated = errors.New("authentication error")
	ErrForbidden       = errors.New("access forbidden")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrRateLimited     = errors.New("too many requests")
)

// Error is a classified domain error. Message is safe to show to clients.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Validationf builds a validation error with a formatted, client-safe message.
func Validationf(format string, args ...any) error {
	return newError(ErrValidation, fmt.Sprintf(format, args...))
}

var (
	ErrInvalidCredentials = newError(ErrUnauthenticated, "invalid credentials")
	ErrInvalidToken       = newError(ErrUnauthenticated, "invalid or expired token")
	ErrMissingToken       = newError(ErrUnauthenticated, "missing authorization token")
	ErrInsufficientRole   = newError(ErrForbidden, "access forbidden")
	ErrUserExists         = newError(ErrConflict, "email already registered")
	ErrUserNotFound       = newError(ErrNotFound, "user not found")
	ErrSweetNotFound      = newError(ErrNotFound, "sweet not found")
	ErrOutOfStock         = newError(ErrConflict, "out of stock")
	ErrTooManyAttempts    = newError(ErrRateLimited, "too many failed login attempts, try again later")
	ErrTooManyRequests    = newError(ErrRateLimited, "too many requests, try again later")
)
