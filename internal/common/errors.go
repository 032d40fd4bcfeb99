package common

import (
	"errors"
	"net/http"
	"strings"
)

// Error kinds surfaced to the views. ErrAuth also covers a missing token
// before a privileged call.
var (
	ErrAuth       = errors.New("authentication failed")
	ErrValidation = errors.New("validation failed")
	ErrFetch      = errors.New("fetch failed")
	ErrMutation   = errors.New("update failed")
	ErrForbidden  = errors.New("forbidden access")
	ErrNotFound   = errors.New("requested resource not found")
)

// FieldError is one field-level complaint from the backend.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (f FieldError) String() string {
	if f.Field == "" {
		return f.Message
	}
	return f.Field + ": " + f.Message
}

// APIError is the single error shape every gateway operation returns.
// Kind is one of the sentinels above; Err is the transport cause, if any.
type APIError struct {
	Kind       error
	StatusCode int
	Message    string
	Fields     []FieldError
	Err        error
}

func (e *APIError) Error() string {
	return e.Message
}

func (e *APIError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewAPIError builds an APIError. With field errors the message lists one
// "field: message" per line and the fallback is ignored.
func NewAPIError(kind error, status int, message string, fields []FieldError) *APIError {
	if len(fields) > 0 {
		lines := make([]string, 0, len(fields))
		for _, f := range fields {
			lines = append(lines, f.String())
		}
		message = strings.Join(lines, "\n")
	}
	return &APIError{Kind: kind, StatusCode: status, Message: message, Fields: fields}
}

// Message extracts a user-facing message from err.
func Message(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}

// HTTPStatusFromError maps domain errors to HTTP status codes.
func HTTPStatusFromError(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if errors.Is(err, ErrAuth) {
		return http.StatusUnauthorized
	}
	if errors.Is(err, ErrForbidden) {
		return http.StatusForbidden
	}
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrValidation) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrFetch) || errors.Is(err, ErrMutation) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

