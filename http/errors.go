package http

import (
	"errors"
	"fmt"
	"time"

	"github.com/gaborage/httpretry/retry"
)

// ErrTimeout is matched by every error that reports an attempt timing out.
var ErrTimeout = errors.New("request timed out")

// ErrMaxRetriesExceeded is returned (wrapped in *MaxRetriesExceededError) when the final
// attempt of a request timed out.
var ErrMaxRetriesExceeded = retry.ErrMaxRetriesExceeded

// MaxRetriesExceededError carries the URL and the number of retries performed.
type MaxRetriesExceededError = retry.MaxRetriesExceededError

// maxRetriesError gives *MaxRetriesExceededError its ClientError type.
type maxRetriesError struct {
	*MaxRetriesExceededError
}

func (e *maxRetriesError) Type() ErrorType {
	return MaxRetriesExceededErrorType
}

func (e *maxRetriesError) Unwrap() error {
	return e.MaxRetriesExceededError
}

// ClientError represents different types of REST client errors
type ClientError interface {
	error
	Type() ErrorType
}

// ErrorType defines the category of client error
type ErrorType string

const (
	NetworkError     ErrorType = "network"
	TimeoutError     ErrorType = "timeout"
	ValidationError  ErrorType = "validation"
	InterceptorError ErrorType = "interceptor"
	EncodingError    ErrorType = "encoding"

	MaxRetriesExceededErrorType ErrorType = "max_retries_exceeded"
)

// networkError represents a transport failure that produced no response and was not a timeout
type networkError struct {
	message string
	wrapped error
}

func (e *networkError) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("network error: %s: %v", e.message, e.wrapped)
	}
	return fmt.Sprintf("network error: %s", e.message)
}

func (e *networkError) Type() ErrorType {
	return NetworkError
}

func (e *networkError) Unwrap() error {
	return e.wrapped
}

// timeoutError represents an attempt that exceeded its timeout
type timeoutError struct {
	message string
	timeout time.Duration
	wrapped error
}

func (e *timeoutError) Error() string {
	return fmt.Sprintf("timeout error: %s (timeout: %v)", e.message, e.timeout)
}

func (e *timeoutError) Type() ErrorType {
	return TimeoutError
}

func (e *timeoutError) Is(target error) bool {
	return target == ErrTimeout
}

func (e *timeoutError) Unwrap() error {
	return e.wrapped
}

// validationError represents request or configuration validation errors
type validationError struct {
	message string
	field   string
}

func (e *validationError) Error() string {
	if e.field != "" {
		return fmt.Sprintf("validation error: %s (field: %s)", e.message, e.field)
	}
	return fmt.Sprintf("validation error: %s", e.message)
}

func (e *validationError) Type() ErrorType {
	return ValidationError
}

// interceptorError represents interceptor-related errors
type interceptorError struct {
	message string
	wrapped error
}

func (e *interceptorError) Error() string {
	return fmt.Sprintf("interceptor error: %s: %v", e.message, e.wrapped)
}

func (e *interceptorError) Type() ErrorType {
	return InterceptorError
}

func (e *interceptorError) Unwrap() error {
	return e.wrapped
}

// encodingError represents a payload that could not be serialized
type encodingError struct {
	wrapped error
}

func (e *encodingError) Error() string {
	return fmt.Sprintf("encoding error: failed to encode payload: %v", e.wrapped)
}

func (e *encodingError) Type() ErrorType {
	return EncodingError
}

func (e *encodingError) Unwrap() error {
	return e.wrapped
}

// NewNetworkError creates a new network error
func NewNetworkError(message string, wrapped error) ClientError {
	return &networkError{message: message, wrapped: wrapped}
}

// NewTimeoutError creates a new timeout error; it matches ErrTimeout.
func NewTimeoutError(message string, timeout time.Duration, wrapped error) ClientError {
	return &timeoutError{message: message, timeout: timeout, wrapped: wrapped}
}

// NewValidationError creates a new validation error
func NewValidationError(message, field string) ClientError {
	return &validationError{message: message, field: field}
}

// NewInterceptorError creates a new interceptor error
func NewInterceptorError(message string, wrapped error) ClientError {
	return &interceptorError{message: message, wrapped: wrapped}
}

// NewEncodingError creates a new encoding error
func NewEncodingError(wrapped error) ClientError {
	return &encodingError{wrapped: wrapped}
}

// NewMaxRetriesExceededError creates the error returned when the last attempt for url timed out.
func NewMaxRetriesExceededError(url string, retries int) ClientError {
	return &maxRetriesError{&MaxRetriesExceededError{URL: url, Retries: retries}}
}

// asClientError tags a retry loop error with its ClientError type.
func asClientError(err error) error {
	var exceeded *MaxRetriesExceededError
	if errors.As(err, &exceeded) {
		return &maxRetriesError{exceeded}
	}
	return err
}

// IsErrorType checks if an error is of a specific type
func IsErrorType(err error, errorType ErrorType) bool {
	if err == nil {
		return false
	}
	var clientErr ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type() == errorType
	}
	return false
}

// IsMaxRetriesExceeded reports whether err is the exhausted-retries error.
func IsMaxRetriesExceeded(err error) bool {
	return errors.Is(err, ErrMaxRetriesExceeded)
}

// IsSuccessStatus checks if a status code represents success (2xx)
func IsSuccessStatus(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}
