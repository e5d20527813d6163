package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a domain error code.
type ErrorCode string

const (
	ErrCodeNotFound         ErrorCode = "NOT_FOUND"
	ErrCodeFileNotFound     ErrorCode = "FILE_NOT_FOUND"
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeUnauthorized     ErrorCode = "UNAUTHORIZED"
	ErrCodeInternalError    ErrorCode = "INTERNAL_ERROR"
)

// DomainError represents an error in the domain layer with context.
// Message is user facing and is rendered as-is by the web layer.
type DomainError struct {
	Code    ErrorCode
	Message string
	Context map[string]interface{}
	cause   error
}

func (e *DomainError) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause, if any.
func (e *DomainError) Unwrap() error {
	return e.cause
}

// NewNotFoundError creates a not found error for the given entity.
func NewNotFoundError(entity string, id int64) *DomainError {
	return &DomainError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s tidak ditemukan", entity),
		Context: map[string]interface{}{"entity": entity, "id": id},
	}
}

// NewFileNotFoundError creates an error for an attachment missing on disk or in the record.
func NewFileNotFoundError(message string) *DomainError {
	return &DomainError{
		Code:    ErrCodeFileNotFound,
		Message: message,
		Context: map[string]interface{}{},
	}
}

// NewValidationError creates a validation error. The first detail becomes the message.
func NewValidationError(details []string) *DomainError {
	msg := "Validasi gagal"
	if len(details) > 0 {
		msg = details[0]
	}
	return &DomainError{
		Code:    ErrCodeValidationFailed,
		Message: msg,
		Context: map[string]interface{}{"details": details},
	}
}

// NewUnauthorizedError creates an error for a missing or invalid session.
func NewUnauthorizedError(message string) *DomainError {
	return &DomainError{
		Code:    ErrCodeUnauthorized,
		Message: message,
		Context: map[string]interface{}{},
	}
}

// NewInternalError creates an internal error.
func NewInternalError(err error) *DomainError {
	return &DomainError{
		Code:    ErrCodeInternalError,
		Message: "Terjadi kesalahan server.",
		Context: map[string]interface{}{},
		cause:   err,
	}
}

// IsCode reports whether err is a DomainError with the given code.
func IsCode(err error, code ErrorCode) bool {
	var de *DomainError
	return errors.As(err, &de) && de.Code == code
}
