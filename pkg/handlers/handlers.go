// Package handlers provides JSON request decoding and response helpers
// shared by every domain handler.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// DefaultMaxBodyBytes bounds request bodies when no limit is configured.
const DefaultMaxBodyBytes int64 = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// RespondJSON writes data as a JSON body with the given status.
func RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// RespondError writes {"error": msg} with the given status. Server errors
// are logged with their full cause and masked from the client.
func RespondError(w http.ResponseWriter, logger *slog.Logger, status int, err error) {
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		logger.Error("handler error", "status", status, "error", err)
		msg = http.StatusText(status)
	}

	var verr *ValidationError
	if errors.As(err, &verr) {
		RespondJSON(w, status, map[string]any{"error": msg, "fields": verr.Fields})
		return
	}

	RespondJSON(w, status, map[string]string{"error": msg})
}

// RespondNoContent writes a 204 with no body.
func RespondNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// FieldError describes a single rejected request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError reports malformed or constraint-violating request input.
type ValidationError struct {
	Fields []FieldError
	cause  error
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "invalid request body"
	}
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return "invalid request: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return e.cause
}

// DecodeJSON reads a JSON body into dst, rejecting unknown fields and bodies
// over maxBytes, then validates dst's struct tags. Failures return a
// *ValidationError.
func DecodeJSON(w http.ResponseWriter, r *http.Request, maxBytes int64, dst any) error {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodyBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return decodeError(err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return &ValidationError{
			Fields: []FieldError{{Field: "body", Message: "must contain a single JSON value"}},
		}
	}

	return Validate(dst)
}

// Validate checks v's `validate` struct tags.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &ValidationError{cause: err}
	}

	fields := make([]FieldError, len(verrs))
	for i, fe := range verrs {
		fields[i] = FieldError{Field: fe.Field(), Message: fieldMessage(fe)}
	}
	return &ValidationError{Fields: fields, cause: err}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return "must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return "must be at most " + fe.Param()
	case "uuid", "uuid4":
		return "must be a UUID"
	}
	return fmt.Sprintf("failed %q validation", fe.Tag())
}

func decodeError(err error) error {
	var (
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
		maxErr    *http.MaxBytesError
	)

	field := FieldError{Field: "body"}
	switch {
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		field.Message = "malformed JSON"
	case errors.As(err, &typeErr):
		field.Field = typeErr.Field
		field.Message = "must be " + typeErr.Type.String()
	case errors.As(err, &maxErr):
		field.Message = fmt.Sprintf("exceeds %d bytes", maxErr.Limit)
	case errors.Is(err, io.EOF):
		field.Message = "is required"
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		field.Field = strings.Trim(strings.TrimPrefix(err.Error(), "json: unknown field "), `"`)
		field.Message = "is not allowed"
	default:
		field.Message = err.Error()
	}

	return &ValidationError{Fields: []FieldError{field}, cause: err}
}
