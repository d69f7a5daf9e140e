package errors

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
)

// Error codes used across the conversation engine
const (
	CodeStorageError         = "STORAGE_ERROR"
	CodeBackendError         = "BACKEND_ERROR"
	CodeExtractionError      = "EXTRACTION_ERROR"
	CodeThreadNotFound       = "THREAD_NOT_FOUND"
	CodeMessageNotFound      = "MESSAGE_NOT_FOUND"
	CodeValidationError      = "VALIDATION_ERROR"
	CodeGenerationInProgress = "GENERATION_IN_PROGRESS"
	CodeRateLimited          = "RATE_LIMITED"
	CodeInternalError        = "INTERNAL_ERROR"
)

// AppError represents an application error with HTTP status code and error code
type AppError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    any    `json:"details,omitempty"`
	Stack      string `json:"-"`
	cause      error
}

// Error implements the error interface
func (e *AppError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is/As
func (e *AppError) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *AppError) WithDetails(details any) *AppError {
	e.Details = details
	return e
}

// NewError creates a new application error
func NewError(statusCode int, code string, message string) *AppError {
	return &AppError{
		StatusCode: statusCode,
		Code:       code,
		Message:    message,
		Stack:      string(debug.Stack()),
	}
}

// NewStorageError wraps a persistent-store failure. Storage failures are
// terminal for the request that triggered them.
func NewStorageError(err error) *AppError {
	e := NewError(http.StatusInternalServerError, CodeStorageError, "persistent store operation failed")
	e.cause = err
	if err != nil {
		e.Details = err.Error()
	}
	return e
}

// NewBackendError wraps a failure from the inference backend: network error,
// non-success status, or stream abort.
func NewBackendError(message string, err error) *AppError {
	e := NewError(http.StatusBadGateway, CodeBackendError, message)
	e.cause = err
	if err != nil {
		e.Details = err.Error()
	}
	return e
}

// NewExtractionError wraps an attachment text-extraction failure
func NewExtractionError(err error) *AppError {
	e := NewError(http.StatusUnprocessableEntity, CodeExtractionError, "failed to extract attachment text")
	e.cause = err
	if err != nil {
		e.Details = err.Error()
	}
	return e
}

// NewThreadNotFoundError creates a 404 for a missing thread
func NewThreadNotFoundError(threadID int64) *AppError {
	return NewError(http.StatusNotFound, CodeThreadNotFound, fmt.Sprintf("thread %d not found", threadID))
}

// NewMessageNotFoundError creates a 404 for a missing message
func NewMessageNotFoundError(messageID int64) *AppError {
	return NewError(http.StatusNotFound, CodeMessageNotFound, fmt.Sprintf("message %d not found", messageID))
}

// NewValidationError creates a 400 Bad Request error
func NewValidationError(message string) *AppError {
	return NewError(http.StatusBadRequest, CodeValidationError, message)
}

// NewGenerationInProgressError signals that the thread already has an
// in-flight generation
func NewGenerationInProgressError(threadID int64) *AppError {
	return NewError(http.StatusConflict, CodeGenerationInProgress,
		fmt.Sprintf("a generation is already running for thread %d", threadID))
}

// NewRateLimitedError creates a 429 Too Many Requests error
func NewRateLimitedError() *AppError {
	return NewError(http.StatusTooManyRequests, CodeRateLimited, "too many requests")
}

// NewInternalServerError creates a 500 Internal Server Error
func NewInternalServerError(message string) *AppError {
	return NewError(http.StatusInternalServerError, CodeInternalError, message)
}

// FromError converts any error into an AppError, passing AppErrors through
func FromError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	e := NewError(http.StatusInternalServerError, CodeInternalError, "an unexpected error occurred")
	e.cause = err
	if err != nil {
		e.Details = err.Error()
	}
	return e
}

// HasCode reports whether err is an AppError with the given code
func HasCode(err error, code string) bool {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return false
	}
	return appErr.Code == code
}
