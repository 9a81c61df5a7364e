// Package errs defines the typed error taxonomy shared by all domain
// services. Every failure a caller can react to carries a Kind; the HTTP
// layer maps kinds to status codes and renders {kind, message} bodies.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies a domain failure.
type Kind string

const (
	KindValidation             Kind = "ValidationError"
	KindNotFound               Kind = "NotFoundError"
	KindReferentialIntegrity   Kind = "ReferentialIntegrityError"
	KindSchedulingConflict     Kind = "SchedulingConflictError"
	KindInvalidStateTransition Kind = "InvalidStateTransitionError"
	KindInsufficientStock      Kind = "InsufficientStockError"
	KindInvalidAmount          Kind = "InvalidAmountError"
	KindBedUnavailable         Kind = "BedUnavailableError"
)

// Error is a typed domain error.
type Error struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// New creates a typed error with a formatted message.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...interface{}) *Error {
	return New(KindValidation, format, args...)
}

func NotFound(format string, args ...interface{}) *Error {
	return New(KindNotFound, format, args...)
}

func ReferentialIntegrity(format string, args ...interface{}) *Error {
	return New(KindReferentialIntegrity, format, args...)
}

func SchedulingConflict(format string, args ...interface{}) *Error {
	return New(KindSchedulingConflict, format, args...)
}

func InvalidStateTransition(format string, args ...interface{}) *Error {
	return New(KindInvalidStateTransition, format, args...)
}

func InsufficientStock(format string, args ...interface{}) *Error {
	return New(KindInsufficientStock, format, args...)
}

func InvalidAmount(format string, args ...interface{}) *Error {
	return New(KindInvalidAmount, format, args...)
}

func BedUnavailable(format string, args ...interface{}) *Error {
	return New(KindBedUnavailable, format, args...)
}

// KindOf extracts the Kind from err, unwrapping as needed. Untyped errors
// report an empty Kind.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
