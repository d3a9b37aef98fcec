package domain

import (
	"errors"
	"fmt"
)

// Sentinel kinds. Every rule violation unwraps to exactly one of them, so
// callers classify with errors.Is.
var (
	ErrNotFound    = errors.New("not found")
	ErrForbidden   = errors.New("forbidden")
	ErrValidation  = errors.New("validation failed")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("resource unavailable")
	ErrBadRequest  = errors.New("bad request")
)

// Error is a rule violation with a message meant for the client.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func newError(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func NewNotFoundError(format string, args ...any) error {
	return newError(ErrNotFound, format, args...)
}

func NewForbiddenError(format string, args ...any) error {
	return newError(ErrForbidden, format, args...)
}

func NewValidationError(format string, args ...any) error {
	return newError(ErrValidation, format, args...)
}

func NewConflictError(format string, args ...any) error {
	return newError(ErrConflict, format, args...)
}

func NewUnavailableError(format string, args ...any) error {
	return newError(ErrUnavailable, format, args...)
}

func NewBadRequestError(format string, args ...any) error {
	return newError(ErrBadRequest, format, args...)
}

// Message returns the client-facing text of a rule violation, or fallback
// for anything else.
func Message(err error, fallback string) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return fallback
}
