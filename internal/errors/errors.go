package errors

import (
	"fmt"
	"net/http"

	"github.com/go-chi/render"
)

// Error codes carried by APIError and surfaced as the error_code extension.
const (
	CodeInvalidRequest   = "INVALID_REQUEST"
	CodeValidationFailed = "VALIDATION_FAILED"
	CodeNotFound         = "NOT_FOUND"
	CodeRunNotFound      = "RUN_NOT_FOUND"
	CodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	CodeRateLimited      = "RATE_LIMIT_EXCEEDED"
	CodeUnavailable      = "SERVICE_UNAVAILABLE"
)

// codeTypes maps an error code to its problem type URI. Unknown codes are
// reported as internal errors.
var codeTypes = map[string]string{
	CodeInvalidRequest:   TypeValidation,
	CodeValidationFailed: TypeValidation,
	CodeNotFound:         TypeNotFound,
	CodeRunNotFound:      TypeNotFound,
	CodeMethodNotAllowed: TypeMethodNotAllowed,
	CodeRateLimited:      TypeRateLimit,
	CodeUnavailable:      TypeServiceDown,
}

// APIError is a transport-level failure with a fixed status code. Details is
// always a field list so clients can decode it the same way for every code.
type APIError struct {
	StatusCode int               `json:"status_code"`
	ErrorCode  string            `json:"error_code"`
	Message    string            `json:"message"`
	Details    []ValidationError `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

// Render implements render.Renderer.
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

// ValidationError describes one rejected request field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func New(statusCode int, errorCode, message string) *APIError {
	return &APIError{StatusCode: statusCode, ErrorCode: errorCode, Message: message}
}

func NewWithDetails(statusCode int, errorCode, message string, details []ValidationError) *APIError {
	e := New(statusCode, errorCode, message)
	e.Details = details
	return e
}

// InvalidRequestWithError reports a body that could not be decoded. The
// decoder message is attached to the "body" field.
func InvalidRequestWithError(err error) *APIError {
	return NewWithDetails(http.StatusBadRequest, CodeInvalidRequest, "Invalid request format",
		[]ValidationError{{Field: "body", Message: err.Error()}})
}

// NotFoundError reports an unknown route or resource.
func NotFoundError(resource string) *APIError {
	return New(http.StatusNotFound, CodeNotFound, fmt.Sprintf("%s not found", resource))
}

// NewValidationErrors creates a 400 carrying every rejected field.
func NewValidationErrors(errs []ValidationError) *APIError {
	return NewWithDetails(http.StatusBadRequest, CodeValidationFailed, "Request validation failed", errs)
}
