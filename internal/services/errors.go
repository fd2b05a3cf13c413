package services

import (
	"errors"
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType int

const (
	ErrTypeBadRequest ErrorType = iota
	ErrTypeUnauthorized
	ErrTypeRateLimited
	ErrTypeUnavailable
	ErrTypeInternal
)

// ServiceError is a standardized error returned by all services.
// Message is safe to show to the client; Err is for logs only.
type ServiceError struct {
	Type       ErrorType
	Message    string
	Err        error
	RetryAfter time.Duration // set for ErrTypeRateLimited
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewBadRequestError creates a new bad request error
func NewBadRequestError(message string) *ServiceError {
	return &ServiceError{
		Type:    ErrTypeBadRequest,
		Message: message,
	}
}

// NewUnauthorizedError creates a new unauthorized error
func NewUnauthorizedError(message string) *ServiceError {
	return &ServiceError{
		Type:    ErrTypeUnauthorized,
		Message: message,
	}
}

// NewRateLimitedError creates a new rate limited error
func NewRateLimitedError(message string, retryAfter time.Duration) *ServiceError {
	return &ServiceError{
		Type:       ErrTypeRateLimited,
		Message:    message,
		RetryAfter: retryAfter,
	}
}

// NewUnavailableError creates a new error for an unreachable dependency
func NewUnavailableError(message string, err error) *ServiceError {
	return &ServiceError{
		Type:    ErrTypeUnavailable,
		Message: message,
		Err:     err,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *ServiceError {
	return &ServiceError{
		Type:    ErrTypeInternal,
		Message: message,
		Err:     err,
	}
}

// AsServiceError extracts a ServiceError from err, wrapping unknown errors as internal
func AsServiceError(err error) *ServiceError {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr
	}
	return NewInternalError("Internal server error", err)
}
