package errors

import (
	"errors"
	"fmt"
)

// Error types for the failures that cross a stage boundary. Syntax,
// blacklist and duplicate outcomes are not errors: they fold into the
// validation result's terminal status instead.
type ErrorType string

const (
	ErrorTypeDomain   ErrorType = "domain"
	ErrorTypeDNS      ErrorType = "dns"
	ErrorTypeExternal ErrorType = "external"
	ErrorTypeInternal ErrorType = "internal"
	ErrorTypeConfig   ErrorType = "config"
)

// AppError represents a structured application error
type AppError struct {
	Type      ErrorType              `json:"type"`
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Cause     error                  `json:"-"`
	Retryable bool                   `json:"retryable"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// Error constructors
func NewDomainError(message string) *AppError {
	return &AppError{
		Type:      ErrorTypeDomain,
		Code:      "INVALID_DOMAIN",
		Message:   message,
		Retryable: false,
	}
}

func NewDNSError(message string) *AppError {
	return &AppError{
		Type:      ErrorTypeDNS,
		Code:      "DNS_ERROR",
		Message:   message,
		Retryable: true,
	}
}

func NewExternalError(service, message string) *AppError {
	return &AppError{
		Type:      ErrorTypeExternal,
		Code:      "EXTERNAL_SERVICE_ERROR",
		Message:   fmt.Sprintf("%s service error: %s", service, message),
		Retryable: true,
		Details:   map[string]interface{}{"service": service},
	}
}

func NewRateLimitError(message string) *AppError {
	return &AppError{
		Type:      ErrorTypeExternal,
		Code:      "RATE_LIMIT_EXCEEDED",
		Message:   message,
		Retryable: true,
	}
}

func NewInternalError(message string) *AppError {
	return &AppError{
		Type:      ErrorTypeInternal,
		Code:      "INTERNAL_ERROR",
		Message:   message,
		Retryable: true,
	}
}

func NewConfigError(field, message string) *AppError {
	return &AppError{
		Type:      ErrorTypeConfig,
		Code:      "CONFIGURATION_ERROR",
		Message:   message,
		Retryable: false,
		Details:   map[string]interface{}{"field": field},
	}
}

// IsType checks if an error is of a specific type
func IsType(err error, errorType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errorType
	}
	return false
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Retryable
	}
	return false
}
