package apperr

import (
	"fmt"
)

// Error is the structured error type for ctxd. It carries a stable code so
// callers and adapters can classify failures without string matching.
type Error struct {
	// Code is the unique error code (e.g., "ERR_201_CONTEXT_NOT_FOUND").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Validation, Existence, etc.).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with *Error.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *Error) WithDetail(key, value string) *Error {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// New creates a new Error with the given code and message.
// Category and severity are derived from the code.
func New(code string, message string, cause error) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Category: categoryFromCode(code),
		Severity: severityFromCode(code),
		Cause:    cause,
	}
}

// ContextNotFound creates a not-found error for a context id.
func ContextNotFound(id string) *Error {
	return New(CodeContextNotFound, fmt.Sprintf("context not found: %s", id), nil)
}

// ChunksNotFound creates a not-found error for a context's chunk set.
func ChunksNotFound(contextID string) *Error {
	return New(CodeChunksNotFound, fmt.Sprintf("no chunk set stored for context: %s", contextID), nil)
}

// AlreadyExists creates a duplicate-id error.
func AlreadyExists(id string) *Error {
	return New(CodeAlreadyExists, fmt.Sprintf("context already exists: %s", id), nil)
}

// Validation creates an input validation error.
func Validation(message string, cause error) *Error {
	return New(CodeInvalidInput, message, cause)
}

// Config creates a configuration error.
func Config(message string, cause error) *Error {
	return New(CodeInvalidConfig, message, cause)
}

// InvalidReference creates an invalid context reference error.
func InvalidReference(message string) *Error {
	return New(CodeInvalidReference, message, nil)
}

// Storage creates a persistence-layer error.
func Storage(message string, cause error) *Error {
	return New(CodeStorage, message, cause)
}

// Embedding creates an embedding-layer error.
func Embedding(message string, cause error) *Error {
	return New(CodeEmbedding, message, cause)
}

// Internal creates an internal error.
func Internal(message string, cause error) *Error {
	return New(CodeInternal, message, cause)
}

// IsNotFound reports whether err is a context or chunk-set not-found error.
func IsNotFound(err error) bool {
	code := GetCode(err)
	return code == CodeContextNotFound || code == CodeChunksNotFound
}

// GetCode extracts the error code from an *Error.
// Returns empty string if not an *Error.
func GetCode(err error) string {
	if ae, ok := err.(*Error); ok {
		return ae.Code
	}
	return ""
}

// GetCategory extracts the category from an *Error.
// Returns empty string if not an *Error.
func GetCategory(err error) Category {
	if ae, ok := err.(*Error); ok {
		return ae.Category
	}
	return ""
}
