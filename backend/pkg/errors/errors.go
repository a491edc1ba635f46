package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeInvalidArgument represents malformed caller input
	ErrorTypeInvalidArgument ErrorType = "invalid_argument"
	// ErrorTypeNotFound represents a referenced node that does not exist
	ErrorTypeNotFound ErrorType = "not_found"
	// ErrorTypeUnauthorized represents an identity-scoped call without a verified subject
	ErrorTypeUnauthorized ErrorType = "unauthorized"
	// ErrorTypeStore represents graph storage failures (transport, timeout, open circuit)
	ErrorTypeStore ErrorType = "store"
	// ErrorTypeCircuitOpen represents a store call rejected by an open circuit breaker
	ErrorTypeCircuitOpen ErrorType = "circuit_open"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
)

// Stable codes surfaced to callers. These never change once published.
const (
	CodeInvalidArgument  = "INVALID_ARGUMENT"
	CodeNotFound         = "NOT_FOUND"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeStoreUnavailable = "STORE_UNAVAILABLE"
	CodeConfig           = "CONFIG"
	CodeInternal         = "INTERNAL"
)

var codes = map[ErrorType]string{
	ErrorTypeInvalidArgument: CodeInvalidArgument,
	ErrorTypeNotFound:        CodeNotFound,
	ErrorTypeUnauthorized:    CodeUnauthorized,
	ErrorTypeStore:           CodeStoreUnavailable,
	ErrorTypeCircuitOpen:     CodeStoreUnavailable,
	ErrorTypeConfig:          CodeConfig,
}

// BaseError is the base error type with common fields
type BaseError struct {
	Type      ErrorType
	Message   string
	Timestamp time.Time
	Err       error // Wrapped error
}

// Error implements the error interface
func (e *BaseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error for error unwrapping
func (e *BaseError) Unwrap() error {
	return e.Err
}

// Base lets typed errors be found with errors.As through their embedded BaseError.
func (e *BaseError) Base() *BaseError {
	return e
}

// NewBaseError creates a new base error
func NewBaseError(errType ErrorType, message string, err error) *BaseError {
	return &BaseError{
		Type:      errType,
		Message:   message,
		Timestamp: time.Now(),
		Err:       err,
	}
}

type baser interface {
	Base() *BaseError
}

// Argument Errors

// ErrInvalidArgument is returned when a request fails validation before reaching the store
type ErrInvalidArgument struct {
	*BaseError
	Field  string
	Reason string
}

func NewInvalidArgument(field, reason string) *ErrInvalidArgument {
	return &ErrInvalidArgument{
		BaseError: NewBaseError(ErrorTypeInvalidArgument, fmt.Sprintf("invalid %s: %s", field, reason), nil),
		Field:     field,
		Reason:    reason,
	}
}

// Lookup Errors

// ErrNotFound is returned when a referenced node does not exist.
// An empty result set is never reported with this error.
type ErrNotFound struct {
	*BaseError
	Kind string
	ID   string
}

func NewNotFound(kind, id string) *ErrNotFound {
	return &ErrNotFound{
		BaseError: NewBaseError(ErrorTypeNotFound, fmt.Sprintf("%s not found: %s", kind, id), nil),
		Kind:      kind,
		ID:        id,
	}
}

// Identity Errors

// ErrUnauthorized is returned when an identity-scoped query has no verified subject
type ErrUnauthorized struct {
	*BaseError
	Reason string
}

func NewUnauthorized(reason string) *ErrUnauthorized {
	return &ErrUnauthorized{
		BaseError: NewBaseError(ErrorTypeUnauthorized, "verified subject required", nil),
		Reason:    reason,
	}
}

// Store Errors

// ErrStoreUnavailable is returned when the graph store fails, times out or the circuit is open
type ErrStoreUnavailable struct {
	*BaseError
	Operation string
	Attempts  int
}

func NewStoreUnavailable(operation string, attempts int, err error) *ErrStoreUnavailable {
	return &ErrStoreUnavailable{
		BaseError: NewBaseError(ErrorTypeStore, fmt.Sprintf("graph store unavailable: %s", operation), err),
		Operation: operation,
		Attempts:  attempts,
	}
}

// Config Errors

// ErrConfigValidationFailed is returned when configuration validation fails
type ErrConfigValidationFailed struct {
	*BaseError
	Field  string
	Reason string
}

func NewConfigValidationFailed(field, reason string) *ErrConfigValidationFailed {
	return &ErrConfigValidationFailed{
		BaseError: NewBaseError(ErrorTypeConfig, fmt.Sprintf("config validation failed: %s - %s", field, reason), nil),
		Field:     field,
		Reason:    reason,
	}
}

// ErrConfigMissingRequired is returned when a required config value is missing
type ErrConfigMissingRequired struct {
	*BaseError
	Field string
}

func NewConfigMissingRequired(field string) *ErrConfigMissingRequired {
	return &ErrConfigMissingRequired{
		BaseError: NewBaseError(ErrorTypeConfig, fmt.Sprintf("missing required config: %s", field), nil),
		Field:     field,
	}
}

// Helper functions

func typeOf(err error) (ErrorType, bool) {
	var b baser
	if stderrors.As(err, &b) {
		return b.Base().Type, true
	}
	return "", false
}

// IsErrorType checks if an error (or anything it wraps) is of a specific type
func IsErrorType(err error, errType ErrorType) bool {
	t, ok := typeOf(err)
	return ok && t == errType
}

// Code returns the stable caller-facing code for an error
func Code(err error) string {
	if err == nil {
		return ""
	}
	if t, ok := typeOf(err); ok {
		if code, ok := codes[t]; ok {
			return code
		}
	}
	return CodeInternal
}

// IsRetryable checks if an error is retryable. Only store failures are; an open
// circuit is rejected until the breaker half-opens.
func IsRetryable(err error) bool {
	// The caller gave up; retrying would outlive its deadline
	if stderrors.Is(err, context.Canceled) {
		return false
	}
	return IsErrorType(err, ErrorTypeStore)
}

// Message returns the caller-facing message of a typed error. Untyped errors
// are not exposed.
func Message(err error) string {
	var b baser
	if stderrors.As(err, &b) {
		return b.Base().Message
	}
	return "internal error"
}
