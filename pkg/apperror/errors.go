package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound          = errors.New("resource not found")
	ErrUnauthorized      = errors.New("access unauthorized")
	ErrValidation        = errors.New("validation failed")
	ErrDuplicate         = errors.New("already exists")
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	ErrInternal          = errors.New("internal server error")

	// ErrForgery is its own kind but answers like ErrUnauthorized at the boundary.
	ErrForgery = fmt.Errorf("%w: invalid anti-forgery token", ErrUnauthorized)
)

// AppError is a custom error type that can hold an HTTP status code
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return http.StatusText(e.Code)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError
func New(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Validation wraps ErrValidation with a human readable reason.
func Validation(message string) *AppError {
	return New(http.StatusBadRequest, message, ErrValidation)
}

// Duplicate wraps ErrDuplicate with the conflicting field.
func Duplicate(message string) *AppError {
	return New(http.StatusConflict, message, ErrDuplicate)
}

// NotFound wraps ErrNotFound naming the missing resource.
func NotFound(resource string) *AppError {
	return New(http.StatusNotFound, resource+" not found", ErrNotFound)
}

// MapErrorToStatus maps common errors to HTTP status codes
func MapErrorToStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Code != 0 {
		return appErr.Code
	}
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrUnauthorized) {
		return http.StatusUnauthorized
	}
	if errors.Is(err, ErrValidation) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrRateLimitExceeded) {
		return http.StatusTooManyRequests
	}
	// Default to internal server error
	return http.StatusInternalServerError
}
