// Package apperr defines the error taxonomy shared by every core component.
// Handlers translate a Kind to an HTTP status through a single funnel
// (see HTTPStatus) instead of each call site picking its own status code.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure the way the core's callers need to react to it,
// not the way any one storage or transport layer happens to report it.
type Kind string

const (
	Conflict     Kind = "conflict"      // lost optimistic race on seat/hold/counter
	NotFound     Kind = "not_found"     // referenced entity missing in tenant scope
	Validation   Kind = "validation"    // invariant violated by the request
	AccessDenied Kind = "access_denied" // tenant mismatch, closed day, voided series, expired hold
	Timeout      Kind = "timeout"       // external dependency exceeded its deadline
	Internal     Kind = "internal"      // programming invariant broken
)

// Error wraps a Kind with a message and an optional underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds an *Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an *Error of the given kind around an existing cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Is reports whether err carries the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// HTTPStatus maps a Kind to the status code handlers should funnel it to.
func HTTPStatus(err error) int {
	var e *Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError
	}
	switch e.Kind {
	case Conflict:
		return http.StatusConflict
	case NotFound:
		return http.StatusNotFound
	case Validation:
		return http.StatusBadRequest
	case AccessDenied:
		return http.StatusForbidden
	case Timeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// Retriable reports whether the caller may safely retry the operation.
// Checkout never auto-retries even when this returns true: a retried
// checkout risks allocating a duplicate fiscal series.
func Retriable(err error) bool {
	return Is(err, Conflict) || Is(err, Timeout)
}
