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

// Predefined errors. The enrollment-specific kinds let callers branch on the
// rule that fired instead of comparing message strings.
var (
	ErrInvalidCredentials = New("INVALID_CREDENTIALS", http.StatusUnauthorized, "invalid id or password")
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden          = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized       = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrDuplicate          = New("DUPLICATE", http.StatusConflict, "duplicate identifier")
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")

	ErrCourseRejected    = New("COURSE_REJECTED", http.StatusConflict, "this course has been rejected")
	ErrCourseNotApproved = New("COURSE_NOT_APPROVED", http.StatusConflict, "this course is not yet approved")
	ErrAlreadyEnrolled   = New("ALREADY_ENROLLED", http.StatusConflict, "student is already enrolled in this course")
	ErrNotEnrolled       = New("NOT_ENROLLED", http.StatusConflict, "student is not enrolled in this course")
	ErrCapacityFull      = New("CAPACITY_FULL", http.StatusConflict, "course capacity is full")
	ErrUnitCapExceeded   = New("UNIT_CAP_EXCEEDED", http.StatusConflict, "total units may not exceed 20")
	ErrStatusUnsupported = New("STATUS_UNSUPPORTED", http.StatusConflict, "course status workflow is not available")
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

// Is reports whether err carries the same code as kind.
func Is(err error, kind *Error) bool {
	if err == nil || kind == nil {
		return false
	}
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Code == kind.Code
}
