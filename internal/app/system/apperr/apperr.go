// Package apperr defines the typed failures services hand back to handlers.
//
// Services classify what went wrong (a conflict, a missing document, a
// failed precondition...) and handlers map the classification to an HTTP
// status. Anything that is not an *Error is treated as an internal failure.
package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies a failure.
type Kind int

const (
	Internal Kind = iota
	Invalid
	Unauthorized
	Forbidden
	NotFound
	Conflict
	Precondition
	TooMany
)

// Error is a classified failure carrying a caller-safe message.
// Err, when set, is the underlying cause and is only ever logged.
type Error struct {
	Kind    Kind
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

// Status maps the kind to an HTTP status code.
func (e *Error) Status() int {
	switch e.Kind {
	case Invalid:
		return http.StatusBadRequest
	case Unauthorized:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	case Conflict:
		return http.StatusConflict
	case Precondition:
		return http.StatusUnprocessableEntity
	case TooMany:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func New(kind Kind, msg string) *Error { return &Error{Kind: kind, Message: msg} }

// Wrap classifies err as an internal failure with a generic message.
func Wrap(err error, msg string) *Error {
	return &Error{Kind: Internal, Message: msg, Err: err}
}

func Invalidf(msg string) *Error      { return New(Invalid, msg) }
func NotFoundf(msg string) *Error     { return New(NotFound, msg) }
func Conflictf(msg string) *Error     { return New(Conflict, msg) }
func Forbiddenf(msg string) *Error    { return New(Forbidden, msg) }
func Unauthorizedf(msg string) *Error { return New(Unauthorized, msg) }
func Preconditionf(msg string) *Error { return New(Precondition, msg) }

// As returns the *Error in err's chain, or nil.
func As(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return nil
}

// KindOf reports the kind of err. Untyped errors are Internal.
func KindOf(err error) Kind {
	if e := As(err); e != nil {
		return e.Kind
	}
	return Internal
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	e := As(err)
	return e != nil && e.Kind == kind
}
