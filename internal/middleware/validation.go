package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	apierrors "pricecube/internal/errors"
)

// DefaultMaxBodySize bounds decoded request bodies.
const DefaultMaxBodySize = 10 << 20

// Validator decodes JSON request bodies and checks their validate tags.
type Validator struct {
	validate    *validator.Validate
	logger      *slog.Logger
	maxBodySize int64
}

// NewValidator creates a validator that reports fields by their JSON name.
func NewValidator(logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("sku", isValidSKU)
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Validator{
		validate:    v,
		logger:      logger.With(slog.String("component", "validation")),
		maxBodySize: DefaultMaxBodySize,
	}
}

// WithMaxBodySize changes the body limit.
func (m *Validator) WithMaxBodySize(n int64) *Validator {
	if n > 0 {
		m.maxBodySize = n
	}
	return m
}

// Decode reads the JSON body of r into dst and validates it. The returned
// error is an *apierrors.APIError ready for the error handler.
func (m *Validator) Decode(r *http.Request, dst interface{}) error {
	if r.ContentLength > m.maxBodySize {
		return apierrors.New(http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE",
			fmt.Sprintf("Request body of %d bytes exceeds maximum allowed size of %d", r.ContentLength, m.maxBodySize))
	}
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "application/json") {
		return apierrors.New(http.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA_TYPE",
			fmt.Sprintf("Unsupported content type %q", ct))
	}

	body := http.MaxBytesReader(nil, r.Body, m.maxBodySize)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apierrors.New(http.StatusBadRequest, "INVALID_REQUEST", "Request body is empty")
		}
		m.logger.DebugContext(r.Context(), "request body rejected",
			slog.String("error", err.Error()),
			slog.String("request_id", GetReqID(r.Context())))
		return apierrors.InvalidRequestWithError(err)
	}
	return m.Struct(dst)
}

// Struct validates v and collects every failing field.
func (m *Validator) Struct(v interface{}) error {
	err := m.validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apierrors.InvalidRequestWithError(err)
	}

	fields := make([]apierrors.ValidationError, len(verrs))
	for i, fe := range verrs {
		fields[i] = apierrors.ValidationError{
			Field:   fieldPath(fe),
			Message: formatValidationError(fe),
		}
	}
	return apierrors.NewValidationErrors(fields)
}

// fieldPath drops the top-level struct name from the namespace, so nested
// fields read like "observations[2].date".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func formatValidationError(fe validator.FieldError) string {
	field, param := fe.Field(), fe.Param()

	switch fe.Tag() {
	case "required", "required_if":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, param)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(param, " ", ", "))
	case "datetime":
		return fmt.Sprintf("%s must be a date in %s layout", field, param)
	case "sku":
		return fmt.Sprintf("%s must be an upper-case alphanumeric SKU", field)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, param)
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

// isValidSKU accepts 1 to 32 upper-case letters, digits, '-' and '_'.
func isValidSKU(fl validator.FieldLevel) bool {
	sku := fl.Field().String()
	if len(sku) < 1 || len(sku) > 32 {
		return false
	}
	for _, ch := range sku {
		if !((ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') || ch == '-' || ch == '_') {
			return false
		}
	}
	return true
}

// QueryInt reads an integer query parameter within [min, max]. A missing
// parameter yields def.
func QueryInt(r *http.Request, param string, min, max, def int) (int, error) {
	raw := r.URL.Query().Get(param)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apierrors.NewValidationErrors([]apierrors.ValidationError{{
			Field: param, Message: fmt.Sprintf("%s must be a valid integer", param),
		}})
	}
	if v < min || v > max {
		return 0, apierrors.NewValidationErrors([]apierrors.ValidationError{{
			Field: param, Message: fmt.Sprintf("%s must be between %d and %d", param, min, max),
		}})
	}
	return v, nil
}
