package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
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

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden          = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized       = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrConflict           = New("CONFLICT", http.StatusConflict, "conflict")
	ErrPreconditionFailed = New("PRECONDITION_FAILED", http.StatusPreconditionFailed, "precondition failed")
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss          = New("CACHE_MISS", http.StatusNotFound, "cache miss")

	// Selection-phase failures. Each names the precondition that failed so the
	// caller can decide whether to wait or pick elsewhere.
	ErrAlreadySelected    = New("ALREADY_SELECTED", http.StatusConflict, "a school is already selected, cancel it first")
	ErrSchoolFull         = New("SCHOOL_FULL", http.StatusConflict, "school has reached its capacity")
	ErrSchoolUnavailable  = New("SCHOOL_UNAVAILABLE", http.StatusConflict, "school is unavailable for this academic year")
	ErrNoPendingSelection = New("NO_PENDING_SELECTION", http.StatusPreconditionFailed, "no pending school selection")

	// Application-phase failures.
	ErrAlreadyApplied    = New("ALREADY_APPLIED", http.StatusConflict, "application already exists for this subject and school")
	ErrSubjectFull       = New("SUBJECT_FULL", http.StatusConflict, "subject has reached its capacity at this school")
	ErrSubjectNotOffered = New("SUBJECT_NOT_OFFERED", http.StatusConflict, "subject is not offered at this school")

	// ErrCapacityRaceLost reports that a concurrent request consumed the last
	// slot between the availability check and the reservation. Callers see the
	// same status as a plain full condition.
	ErrCapacityRaceLost = New("CAPACITY_RACE_LOST", http.StatusConflict, "school has reached its capacity")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
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
