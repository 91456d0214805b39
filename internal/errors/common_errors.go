package errors

import "fmt"

// ErrorType classifies failures raised below the transport layer. The
// handler maps each type to a status code and problem type.
type ErrorType string

const (
	ErrTypeValidation ErrorType = "VALIDATION_ERROR"
	ErrTypeNotFound   ErrorType = "NOT_FOUND"
	ErrTypeStorage    ErrorType = "STORAGE_ERROR"
	ErrTypeExport     ErrorType = "EXPORT_ERROR"
	ErrTypeInternal   ErrorType = "INTERNAL_ERROR"
)

// AppError is a classified error. Context entries become extensions of the
// rendered problem document.
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

func (e *AppError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("[%s] %s", e.Type, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
}

func (e *AppError) Unwrap() error { return e.Cause }

// WithContext sets a key on the error and returns it for chaining.
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{Type: errType, Message: message, Cause: cause}
}

// NewAppValidationError rejects a request parameter, e.g. an unknown format.
func NewAppValidationError(message string) *AppError {
	return NewAppError(ErrTypeValidation, message, nil)
}

func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrTypeNotFound, resource+" not found", nil)
}

func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// NewExportError records which table format failed to write.
func NewExportError(format string, cause error) *AppError {
	return NewAppError(ErrTypeExport, format+" export failed", cause).WithContext("format", format)
}

func NewInternalAppError(message string, cause error) *AppError {
	return NewAppError(ErrTypeInternal, message, cause)
}
