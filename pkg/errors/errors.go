package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a unique error code
type ErrorCode int

// AppError represents an application error
type AppError struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Err       error     `json:"-"`
	Retryable bool      `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// StatusCode maps the error code to an HTTP status. It satisfies the
// interface checked by the error middleware.
func (e *AppError) StatusCode() int {
	switch e.Code {
	case ErrValidation:
		return http.StatusBadRequest
	case ErrNotFound:
		return http.StatusNotFound
	case ErrConflict:
		return http.StatusConflict
	case ErrInvalidTransition:
		return http.StatusUnprocessableEntity
	case ErrStorage:
		if e.Retryable {
			return http.StatusServiceUnavailable
		}
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// Common error codes
const (
	ErrValidation ErrorCode = iota + 1000
	ErrNotFound
	ErrConflict
	ErrInvalidTransition
	ErrStorage
)

func (c ErrorCode) String() string {
	switch c {
	case ErrValidation:
		return "validation"
	case ErrNotFound:
		return "not_found"
	case ErrConflict:
		return "conflict"
	case ErrInvalidTransition:
		return "invalid_transition"
	case ErrStorage:
		return "storage"
	default:
		return "unknown"
	}
}

// Error constructors
func Validation(message string) *AppError {
	return &AppError{
		Code:    ErrValidation,
		Message: message,
	}
}

func Validationf(format string, args ...interface{}) *AppError {
	return Validation(fmt.Sprintf(format, args...))
}

func NotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Err:     err,
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Code:    ErrConflict,
		Message: message,
	}
}

func InvalidTransition(from, to string) *AppError {
	return &AppError{
		Code:    ErrInvalidTransition,
		Message: fmt.Sprintf("invalid transition from %s to %s", from, to),
	}
}

// Storage wraps a persistence failure. Retryable marks serialization
// failures, for which the whole operation may be run again.
func Storage(err error, retryable bool) *AppError {
	return &AppError{
		Code:      ErrStorage,
		Message:   "storage failure",
		Err:       err,
		Retryable: retryable,
	}
}

// Code returns the code of the first AppError in err's chain, or 0.
func Code(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return 0
}

func IsValidation(err error) bool {
	return Code(err) == ErrValidation
}

func IsNotFound(err error) bool {
	return Code(err) == ErrNotFound
}

func IsConflict(err error) bool {
	return Code(err) == ErrConflict
}

func IsInvalidTransition(err error) bool {
	return Code(err) == ErrInvalidTransition
}

func IsStorage(err error) bool {
	return Code(err) == ErrStorage
}

// IsRetryable reports whether err is a storage error that is safe to retry.
func IsRetryable(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == ErrStorage && appErr.Retryable
	}
	return false
}
