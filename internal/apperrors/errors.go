package apperrors

import (
	"errors"
	"fmt"
)

// Sentinel errors callers match with errors.Is.
var (
	ErrNotFound       = errors.New("resource not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrConflict       = errors.New("conflict")
	ErrServiceUnavail = errors.New("service unavailable")
)

// AppError is a classified failure surfaced to the UI collaborator.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s %q not found", resource, id),
		Err:     ErrNotFound,
	}
}

func InvalidInput(message string) *AppError {
	return &AppError{Code: "INVALID_INPUT", Message: message, Err: ErrInvalidInput}
}

func Unauthorized(message string) *AppError {
	return &AppError{Code: "UNAUTHORIZED", Message: message, Err: ErrUnauthorized}
}

func Conflict(message string) *AppError {
	return &AppError{Code: "CONFLICT", Message: message, Err: ErrConflict}
}

// Unavailable classifies a failed call to the remote service.
func Unavailable(service string, err error) *AppError {
	return &AppError{
		Code:    "SERVICE_UNAVAILABLE",
		Message: service + " is unavailable",
		Err:     errors.Join(ErrServiceUnavail, err),
	}
}

// Code returns the AppError code carried by err, or "INTERNAL_ERROR".
func Code(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return "INTERNAL_ERROR"
}
