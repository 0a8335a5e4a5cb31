package issuecache

import (
	"errors"
	"fmt"
)

// ErrorType represents the category of an error
type ErrorType string

const (
	// ErrorTypeConfig represents configuration-related errors
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeFS represents file system-related errors
	ErrorTypeFS ErrorType = "filesystem"
	// ErrorTypeParse represents parsing-related errors
	ErrorTypeParse ErrorType = "parse"
	// ErrorTypeStore represents durable store I/O errors
	ErrorTypeStore ErrorType = "store"
	// ErrorTypeAnalysis represents errors raised while analyzing a file
	ErrorTypeAnalysis ErrorType = "analysis"
)

// AppError is a custom error type that provides context about the error
type AppError struct {
	Type    ErrorType // The category of the error
	Message string    // A human-readable error message
	Err     error     // The underlying error, if any
	File    string    // The file related to the error, if applicable
	Details string    // Additional details about the error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithFile adds file information to an error. Errors that are not an
// *AppError are returned unchanged.
func WithFile(err error, file string) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		appErr.File = file
	}
	return err
}

// WithDetails adds additional details to an error. Errors that are not an
// *AppError are returned unchanged.
func WithDetails(err error, details string) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		appErr.Details = details
	}
	return err
}

// GetErrorInfo extracts the AppError from an error chain.
func GetErrorInfo(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsStoreError reports whether err is a durable store failure.
func IsStoreError(err error) bool {
	info, ok := GetErrorInfo(err)
	return ok && info.Type == ErrorTypeStore
}

// NewConfigError creates a new configuration error
func NewConfigError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeConfig,
		Message: message,
		Err:     err,
	}
}

// NewFSError creates a new file system error
func NewFSError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeFS,
		Message: message,
		Err:     err,
	}
}

// NewParseError creates a new parsing error
func NewParseError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeParse,
		Message: message,
		Err:     err,
	}
}

// NewStoreError creates a new durable store error
func NewStoreError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeStore,
		Message: message,
		Err:     err,
	}
}

// NewAnalysisError creates a new analysis error
func NewAnalysisError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeAnalysis,
		Message: message,
		Err:     err,
	}
}
