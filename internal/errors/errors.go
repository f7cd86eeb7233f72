// Package errors provides a lightweight structured error type (PagegenError)
// for category-based classification of build failures in the engine and CLI.
package errors

import (
	stdErrors "errors"
	"fmt"
)

// ErrorCategory represents the category of a pagegen error for classification
type ErrorCategory string

const (
	// User-facing configuration and input errors
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"

	// Page resolution errors
	CategoryRedirect ErrorCategory = "redirect"
	CategoryTemplate ErrorCategory = "template"
	CategoryRender   ErrorCategory = "render"

	// Persistence errors
	CategoryFileSystem ErrorCategory = "filesystem"
	CategoryLedger     ErrorCategory = "ledger"

	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops execution
	SeverityError   ErrorSeverity = "error"   // Error, but not fatal
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded functionality
	SeverityInfo    ErrorSeverity = "info"    // Informational, no impact
)

// PagegenError is a structured error with category, severity, and context
type PagegenError struct {
	Category ErrorCategory `json:"category"`
	Severity ErrorSeverity `json:"severity"`
	Message  string        `json:"message"`
	Cause    error         `json:"cause,omitempty"`
	Context  ContextFields `json:"context,omitempty"`
}

// ContextFields carries structured context for PagegenError
type ContextFields map[string]any

// Error implements the error interface
func (e *PagegenError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, e.Message)
}

// Unwrap implements error unwrapping for Go 1.13+ error handling
func (e *PagegenError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *PagegenError) WithContext(key string, value any) *PagegenError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// IsFatal reports whether the error aborts the build.
func (e *PagegenError) IsFatal() bool {
	return e.Severity == SeverityFatal
}

// New creates a new PagegenError
func New(category ErrorCategory, severity ErrorSeverity, message string) *PagegenError {
	return &PagegenError{
		Category: category,
		Severity: severity,
		Message:  message,
	}
}

// Wrap creates a new PagegenError that wraps an existing error
func Wrap(err error, category ErrorCategory, severity ErrorSeverity, message string) *PagegenError {
	return &PagegenError{
		Category: category,
		Severity: severity,
		Message:  message,
		Cause:    err,
	}
}

// As finds the first PagegenError in err's chain.
func As(err error) (*PagegenError, bool) {
	var pe *PagegenError
	if stdErrors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// IsCategory checks if an error (or anything it wraps) belongs to a specific category
func IsCategory(err error, category ErrorCategory) bool {
	if pe, ok := As(err); ok {
		return pe.Category == category
	}
	return false
}

// GetCategory extracts the category from an error, or returns CategoryInternal if not a PagegenError
func GetCategory(err error) ErrorCategory {
	if pe, ok := As(err); ok {
		return pe.Category
	}
	return CategoryInternal
}

// ValidationError creates a new validation error
func ValidationError(message string) *PagegenError {
	return &PagegenError{
		Category: CategoryValidation,
		Severity: SeverityFatal,
		Message:  message,
	}
}
