package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	// ErrTypeExtraction indicates the source database was unreachable
	// or a metadata query failed; schema context cannot be built.
	ErrTypeExtraction ErrorType = "extraction"
	// ErrTypePartialExtraction indicates some tables could not be
	// introspected while the rest succeeded.
	ErrTypePartialExtraction ErrorType = "partial_extraction"
	// ErrTypeIndexUnavailable indicates the vector store is unreachable.
	// Non-fatal: the retriever degrades to text matching.
	ErrTypeIndexUnavailable ErrorType = "index_unavailable"
	// ErrTypeGeneration indicates both the primary generation path and
	// the pattern fallback failed.
	ErrTypeGeneration ErrorType = "generation"
	// ErrTypeExecution indicates generated SQL failed to run. Reported
	// as partial success: SQL was produced but could not execute.
	ErrTypeExecution ErrorType = "execution"
	// ErrTypeValidation indicates bad caller input (empty question).
	ErrTypeValidation ErrorType = "validation"

	ErrTypeDatabase ErrorType = "database"
	ErrTypeConfig   ErrorType = "config"
	ErrTypeNetwork  ErrorType = "network"
	ErrTypeInternal ErrorType = "internal"
)

// Error represents a structured error with type and optional suggestions
type Error struct {
	Type        ErrorType
	Message     string
	Cause       error
	Suggestions []string
	// Tables names the tables a partial-extraction error could not
	// introspect; empty for other types.
	Tables []string
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}

	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// WithSuggestion adds a suggestion for resolving the error
func (e *Error) WithSuggestion(suggestion string) *Error {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// New creates a new structured error
func New(errType ErrorType, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
	}
}

// Newf creates a new structured error with formatted message
func Newf(errType ErrorType, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(err error, errType ErrorType, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an existing error with formatted message
func Wrapf(err error, errType ErrorType, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
		Cause:   err,
	}
}

// IsType checks if an error is of a specific type
func IsType(err error, errType ErrorType) bool {
	var structErr *Error
	if errors.As(err, &structErr) {
		return structErr.Type == errType
	}

	return false
}

// GetType returns the error type if it's a structured error
func GetType(err error) ErrorType {
	var structErr *Error
	if errors.As(err, &structErr) {
		return structErr.Type
	}

	return ErrTypeInternal
}

// NewPartialExtraction creates a partial-extraction error naming the
// tables whose metadata queries failed.
func NewPartialExtraction(failed []string, cause error) *Error {
	return &Error{
		Type:    ErrTypePartialExtraction,
		Message: fmt.Sprintf("failed to introspect tables: %s", strings.Join(failed, ", ")),
		Cause:   cause,
		Tables:  append([]string(nil), failed...),
	}
}

// FailedTables returns the table names carried by a partial-extraction
// error, or nil for any other error.
func FailedTables(err error) []string {
	var structErr *Error
	if !errors.As(err, &structErr) || structErr.Type != ErrTypePartialExtraction {
		return nil
	}

	return structErr.Tables
}
