package operations

import (
	"context"
	"errors"
	"fmt"
)

// ErrorType represents the type of operation error
type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "validation"
	ErrorTypeDependency   ErrorType = "dependency"
	ErrorTypeExecution    ErrorType = "execution"
	ErrorTypeTimeout      ErrorType = "timeout"
	ErrorTypeCancellation ErrorType = "cancellation"
)

// OperationError represents a step failure inside an operation.
type OperationError struct {
	Type    ErrorType `json:"type"`
	Step    string    `json:"step,omitempty"`
	Message string    `json:"message"`
	Cause   error     `json:"-"`
}

// Error implements the error interface
func (e *OperationError) Error() string {
	msg := e.Message
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	if e.Step != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Type, e.Step, msg)
	}
	return fmt.Sprintf("[%s] %s", e.Type, msg)
}

// Unwrap returns the underlying error
func (e *OperationError) Unwrap() error {
	return e.Cause
}

// NewValidationError creates a new validation error
func NewValidationError(step, message string) *OperationError {
	return &OperationError{Type: ErrorTypeValidation, Step: step, Message: message}
}

// NewDependencyError reports a broken step graph.
func NewDependencyError(step, message string) *OperationError {
	return &OperationError{Type: ErrorTypeDependency, Step: step, Message: message}
}

// NewExecutionError wraps the error a step returned. Context errors are
// classified as timeout or cancellation.
func NewExecutionError(step string, cause error) *OperationError {
	switch {
	case errors.Is(cause, context.DeadlineExceeded):
		return &OperationError{Type: ErrorTypeTimeout, Step: step, Message: "step timed out", Cause: cause}
	case errors.Is(cause, context.Canceled):
		return &OperationError{Type: ErrorTypeCancellation, Step: step, Message: "step cancelled", Cause: cause}
	default:
		return &OperationError{Type: ErrorTypeExecution, Step: step, Message: "step failed", Cause: cause}
	}
}

// IsValidation reports whether err is a request validation error.
func IsValidation(err error) bool {
	var opErr *OperationError
	return errors.As(err, &opErr) && opErr.Type == ErrorTypeValidation
}
