// Package apperr defines the typed errors the yearbook engine returns to its
// callers. Every error carries a stable Code, an HTTP status for the
// presentation layer, and, for validation failures, the complete list of
// offending fields so a caller can show them all at once.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a typed domain error.
type Error struct {
	Code    string  `json:"code"`
	Message string  `json:"message"`
	Status  int     `json:"status"`
	Fields  *Fields `json:"fields,omitempty"`
	Err     error   `json:"-"`
}

// Fields lists the fields that failed validation.
type Fields struct {
	Missing []string `json:"missing,omitempty"`
	Invalid []string `json:"invalid,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches any *Error with the same Code, so a Clone with a custom message
// still satisfies errors.Is against its sentinel.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

// New creates a new Error.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches a cause to a sentinel, keeping its code and status.
func Wrap(err error, sentinel *Error, message string) *Error {
	if message == "" {
		message = sentinel.Message
	}
	return &Error{Code: sentinel.Code, Status: sentinel.Status, Message: message, Err: err}
}

// Clone returns a copy of err with an optional message override.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// FromError normalises any error into an *Error. Unknown errors become ErrInternal.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal, "")
}

// Validation builds a validation error naming every missing and invalid field.
func Validation(missing, invalid []string) *Error {
	e := Clone(ErrValidation, "")
	e.Fields = &Fields{Missing: missing, Invalid: invalid}
	switch {
	case len(missing) > 0 && len(invalid) > 0:
		e.Message = fmt.Sprintf("%d required field(s) missing and %d field(s) invalid", len(missing), len(invalid))
	case len(missing) > 0:
		e.Message = fmt.Sprintf("%d required field(s) missing", len(missing))
	case len(invalid) > 0:
		e.Message = fmt.Sprintf("%d field(s) invalid", len(invalid))
	}
	return e
}

// Predefined errors. Codes are part of the external contract.
var (
	ErrValidation             = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrUnknownSchoolYear      = New("UNKNOWN_SCHOOL_YEAR", http.StatusUnprocessableEntity, "school year not found")
	ErrUnknownVariant         = New("UNKNOWN_VARIANT", http.StatusNotFound, "unknown department")
	ErrDuplicateEmail         = New("DUPLICATE_EMAIL", http.StatusConflict, "an entry with this email already exists for this school year")
	ErrProfileAlreadyExists   = New("PROFILE_ALREADY_EXISTS", http.StatusConflict, "you already have a profile for this school year")
	ErrNotFound               = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrMissingRejectionReason = New("MISSING_REJECTION_REASON", http.StatusUnprocessableEntity, "a rejection reason is required")
	ErrInvalidTransition      = New("INVALID_TRANSITION", http.StatusConflict, "status transition not allowed")
	ErrStoreUnavailable       = New("STORE_UNAVAILABLE", http.StatusServiceUnavailable, "data store unavailable")
	ErrForbidden              = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized           = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrConflict               = New("CONFLICT", http.StatusConflict, "conflict")
	ErrRateLimited            = New("RATE_LIMITED", http.StatusTooManyRequests, "too many requests; slow down")
	ErrInternal               = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
)
