// Package domain provides the receptionist data model and canonical error types.
package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents the category of an API error.
type ErrorType string

const (
	// ErrorTypeInvalidRequest indicates a request body that could not be decoded.
	ErrorTypeInvalidRequest ErrorType = "invalid_request"

	// ErrorTypeNotFound indicates the requested tenant does not exist.
	ErrorTypeNotFound ErrorType = "not_found"

	// ErrorTypeConfiguration indicates a tenant record unusable for prompting.
	ErrorTypeConfiguration ErrorType = "configuration"

	// ErrorTypeUpstream indicates the completion API failed or answered badly.
	ErrorTypeUpstream ErrorType = "upstream"

	// ErrorTypeInfrastructure indicates the tenant store is unreachable or
	// the process is missing configuration.
	ErrorTypeInfrastructure ErrorType = "infrastructure"

	// ErrorTypeTimeout indicates the completion call exceeded its bound.
	ErrorTypeTimeout ErrorType = "timeout"

	// ErrorTypeServer indicates an internal server error.
	ErrorTypeServer ErrorType = "server"
)

// ErrorCode provides additional specificity beyond the error type.
type ErrorCode string

const (
	ErrorCodeTenantNotFound   ErrorCode = "tenant_not_found"
	ErrorCodeAmbiguousTenant  ErrorCode = "ambiguous_tenant"
	ErrorCodeMissingName      ErrorCode = "missing_tenant_name"
	ErrorCodeUpstreamStatus   ErrorCode = "upstream_status"
	ErrorCodeParseError       ErrorCode = "parse_error"
	ErrorCodeNotConfigured    ErrorCode = "not_configured"
	ErrorCodeStoreUnavailable ErrorCode = "store_unavailable"
)

// APIError is the canonical error returned by every pipeline step and
// rendered by the HTTP frontdoor.
type APIError struct {
	// Type is the category of error
	Type ErrorType `json:"type"`

	// Code is an optional specific error code
	Code ErrorCode `json:"code,omitempty"`

	// Message is the human-readable error message
	Message string `json:"message"`

	// UpstreamStatus is the HTTP status returned by the completion API, if any.
	UpstreamStatus int `json:"upstream_status,omitempty"`

	// StatusCode overrides the HTTP status derived from Type.
	StatusCode int `json:"-"`

	cause error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Type, e.Message)
	if e.Code != "" {
		msg = fmt.Sprintf("%s (%s): %s", e.Type, e.Code, e.Message)
	}
	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *APIError) Unwrap() error {
	return e.cause
}

// HTTPStatusCode returns the appropriate HTTP status code for this error.
func (e *APIError) HTTPStatusCode() int {
	if e.StatusCode != 0 {
		return e.StatusCode
	}

	switch e.Type {
	case ErrorTypeInvalidRequest:
		return http.StatusBadRequest
	case ErrorTypeNotFound:
		return http.StatusNotFound
	case ErrorTypeUpstream:
		return http.StatusBadGateway
	case ErrorTypeInfrastructure:
		return http.StatusServiceUnavailable
	case ErrorTypeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// NewAPIError creates a new API error.
func NewAPIError(errType ErrorType, message string) *APIError {
	return &APIError{
		Type:    errType,
		Message: message,
	}
}

// WithCode adds an error code to the error.
func (e *APIError) WithCode(code ErrorCode) *APIError {
	e.Code = code
	return e
}

// WithUpstreamStatus records the status code returned by the upstream service.
func (e *APIError) WithUpstreamStatus(status int) *APIError {
	e.UpstreamStatus = status
	return e
}

// WithStatusCode sets a specific HTTP status code.
func (e *APIError) WithStatusCode(code int) *APIError {
	e.StatusCode = code
	return e
}

// WithCause attaches the error that triggered this one.
func (e *APIError) WithCause(err error) *APIError {
	e.cause = err
	return e
}

// Convenience constructors for common errors

// ErrInvalidRequest creates an invalid request error.
func ErrInvalidRequest(message string) *APIError {
	return NewAPIError(ErrorTypeInvalidRequest, message)
}

// ErrNotFound creates a not found error.
func ErrNotFound(message string) *APIError {
	return NewAPIError(ErrorTypeNotFound, message).
		WithCode(ErrorCodeTenantNotFound)
}

// ErrConfiguration creates a configuration error.
func ErrConfiguration(message string) *APIError {
	return NewAPIError(ErrorTypeConfiguration, message)
}

// ErrUpstream creates an upstream error.
func ErrUpstream(message string) *APIError {
	return NewAPIError(ErrorTypeUpstream, message)
}

// ErrInfrastructure creates an infrastructure error.
func ErrInfrastructure(message string) *APIError {
	return NewAPIError(ErrorTypeInfrastructure, message)
}

// ErrTimeout creates a timeout error.
func ErrTimeout(message string) *APIError {
	return NewAPIError(ErrorTypeTimeout, message)
}

// ErrServer creates a server error.
func ErrServer(message string) *APIError {
	return NewAPIError(ErrorTypeServer, message)
}

// ToAPIError converts any error to an APIError. Errors that are not already
// canonical become server errors.
func ToAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return ErrServer("internal error").WithCause(err)
}

// IsType reports whether err is an APIError of the given type.
func IsType(err error, t ErrorType) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Type == t
}
