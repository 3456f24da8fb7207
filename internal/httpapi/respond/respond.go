// internal/httpapi/respond/respond.go

// Package respond writes JSON responses and decodes JSON request bodies in
// the shape every dotmail endpoint shares.
package respond

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// ErrorBody is the JSON error envelope.
type ErrorBody struct {
	Error   string         `json:"error"`
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// APIError is an error that knows its HTTP status and machine-readable code.
type APIError struct {
	Status  int
	Code    string
	Message string
	Details map[string]any
	Err     error
}

// NewError returns an APIError.
func NewError(status int, code, message string) *APIError {
	return &APIError{Status: status, Code: code, Message: message}
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *APIError) Unwrap() error { return e.Err }

// WithDetail adds a single detail.
func (e *APIError) WithDetail(key string, value any) *APIError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// Wrap attaches the underlying error.
func (e *APIError) Wrap(err error) *APIError {
	e.Err = err
	return e
}

// logger reports encoding failures that happen after headers are sent.
var logger = zap.NewNop()

// SetLogger configures the logger used for late encoding failures.
func SetLogger(l *zap.Logger) {
	if l != nil {
		logger = l
	}
}

// JSON writes v with the given status. Status codes outside 100-599 become
// 500.
func JSON(w http.ResponseWriter, status int, v any) {
	if status < 100 || status > 599 {
		status = http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("json encoding failed after headers sent",
			zap.String("type", fmt.Sprintf("%T", v)), zap.Error(err))
	}
}

// Error writes an ErrorBody.
func Error(w http.ResponseWriter, status int, code, message string) {
	JSON(w, status, ErrorBody{Error: code, Message: message})
}

// Fail writes err as an ErrorBody. Errors that are not APIErrors become an
// opaque 500.
func Fail(w http.ResponseWriter, err error) {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		logger.Error("unhandled error", zap.Error(err))
		Error(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}
	JSON(w, apiErr.Status, ErrorBody{
		Error:   apiErr.Code,
		Message: apiErr.Message,
		Details: apiErr.Details,
	})
}

// BindJSON decodes a single JSON object from the request body into v,
// rejecting unknown fields. Its errors are safe to show to clients.
func BindJSON(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return errors.New("request body is empty")
	}
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return parseJSONError(err)
	}
	if dec.More() {
		return errors.New("request body contains multiple JSON values")
	}
	return nil
}

// parseJSONError converts decoding errors into client-safe messages.
func parseJSONError(err error) error {
	if errors.Is(err, io.EOF) {
		return errors.New("request body is empty")
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return fmt.Errorf("malformed JSON at position %d", syntaxErr.Offset)
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return fmt.Errorf("invalid value for field %q: expected %s", typeErr.Field, typeErr.Type.String())
	}

	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return errors.New("request body too large")
	}

	if field, ok := strings.CutPrefix(err.Error(), "json: unknown field "); ok {
		return fmt.Errorf("unknown field %q", strings.Trim(field, "\""))
	}

	return errors.New("invalid JSON in request body")
}
