package reporter

import (
	"errors"
	"fmt"

	"github.com/testwire/trx-reporter/format"
	"github.com/testwire/trx-reporter/trx"
)

// RuntimeError represents an operational error that should lead to exit code 2
// Examples include unreadable event logs, malformed replay input, or write
// failures on the output document.
type RuntimeError struct {
	Err error
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("runtime error: %v", e.Err)
}

// Unwrap implements the errors.Unwrap interface
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// NewRuntimeError creates a new RuntimeError
func NewRuntimeError(err error) *RuntimeError {
	return &RuntimeError{Err: err}
}

// IsRuntimeError checks if the error is or wraps a RuntimeError
func IsRuntimeError(err error) bool {
	var runtimeErr *RuntimeError
	return err != nil && errors.As(err, &runtimeErr)
}

// TestFailureError represents a failed test recorded in the document (exit code 1)
type TestFailureError struct {
	Message string
}

func (e *TestFailureError) Error() string {
	return fmt.Sprintf("test failure: %s", e.Message)
}

// NewTestFailureError creates a new TestFailureError
func NewTestFailureError(message string) *TestFailureError {
	return &TestFailureError{Message: message}
}

// IsTestFailureError checks if the error is or wraps a TestFailureError
func IsTestFailureError(err error) bool {
	var testErr *TestFailureError
	return err != nil && errors.As(err, &testErr)
}

// IsUsageError checks if the error is or wraps a trx.UsageError, i.e. the
// serializer was driven with input it cannot render.
func IsUsageError(err error) bool {
	var usageErr *trx.UsageError
	return err != nil && errors.As(err, &usageErr)
}

// IsMalformedName checks if the error is or wraps a format.MalformedNameError,
// raised when a section name carries an unclosed [tag].
func IsMalformedName(err error) bool {
	var nameErr *format.MalformedNameError
	return err != nil && errors.As(err, &nameErr)
}
