// Package apperr defines the error taxonomy shared by services, stores and handlers.
// Callers classify errors with errors.Is against the Err* sentinels.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrValidation       = errors.New("validation error")
	ErrNotFound         = errors.New("not found")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")
	ErrInvalidOperation = errors.New("invalid operation")
	ErrConflict         = errors.New("conflict")
	ErrStore            = errors.New("store error")
)

// Error carries a user-facing message and the taxonomy kind it belongs to.
type Error struct {
	Kind error
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Kind == ErrStore {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func Validation(format string, args ...any) error {
	return &Error{Kind: ErrValidation, Msg: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) error {
	return &Error{Kind: ErrNotFound, Msg: fmt.Sprintf(format, args...)}
}

func Unauthorized(msg string) error {
	return &Error{Kind: ErrUnauthorized, Msg: msg}
}

func Forbidden(msg string) error {
	return &Error{Kind: ErrForbidden, Msg: msg}
}

func InvalidOperation(msg string) error {
	return &Error{Kind: ErrInvalidOperation, Msg: msg}
}

func Conflict(msg string) error {
	return &Error{Kind: ErrConflict, Msg: msg}
}

// Store wraps a backing-store failure. The message never reaches clients.
func Store(op string, err error) error {
	return &Error{Kind: ErrStore, Msg: "store: " + op, Err: err}
}

// Message returns the client-safe message for err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != ErrStore {
		return e.Msg
	}
	return "Internal server error"
}

// IsInternal reports whether err is a server-side failure rather than a
// client error of a known kind.
func IsInternal(err error) bool {
	for _, kind := range []error{ErrValidation, ErrNotFound, ErrUnauthorized, ErrForbidden, ErrInvalidOperation, ErrConflict} {
		if errors.Is(err, kind) {
			return false
		}
	}
	return true
}
