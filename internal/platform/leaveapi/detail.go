package leaveapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"leave_portal/internal/common"
)

// errorBody is the backend's error envelope: {"detail": ...}.
type errorBody struct {
	Detail Detail `json:"detail"`
}

// Detail is either a single message or a list of field errors, depending on
// which validation layer of the backend rejected the request.
type Detail struct {
	Message string
	Fields  []fieldError
}

type fieldError struct {
	Loc []json.RawMessage `json:"loc"`
	Msg string            `json:"msg"`
}

func (d *Detail) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	switch b[0] {
	case '"':
		return json.Unmarshal(b, &d.Message)
	case '[':
		return json.Unmarshal(b, &d.Fields)
	case '{':
		// A single field error not wrapped in a list.
		var f fieldError
		if err := json.Unmarshal(b, &f); err != nil {
			return err
		}
		d.Fields = []fieldError{f}
		return nil
	}
	// Anything else carries no usable message.
	return nil
}

func (f fieldError) path() string {
	parts := make([]string, 0, len(f.Loc))
	for _, raw := range f.Loc {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			parts = append(parts, s)
			continue
		}
		parts = append(parts, strings.Trim(string(raw), `"`))
	}
	return strings.Join(parts, ".")
}

// FieldErrors converts the wire list into the common shape.
func (d Detail) FieldErrors() []common.FieldError {
	if len(d.Fields) == 0 {
		return nil
	}
	out := make([]common.FieldError, 0, len(d.Fields))
	for _, f := range d.Fields {
		out = append(out, common.FieldError{Field: f.path(), Message: f.Msg})
	}
	return out
}

// decodeError normalizes a non-2xx response body into an APIError of kind.
func decodeError(kind error, status int, body []byte, fallback string) *common.APIError {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return common.NewAPIError(kind, status, fallback, nil)
	}
	if fields := eb.Detail.FieldErrors(); len(fields) > 0 {
		return common.NewAPIError(kind, status, fallback, fields)
	}
	if msg := strings.TrimSpace(eb.Detail.Message); msg != "" {
		return common.NewAPIError(kind, status, msg, nil)
	}
	return common.NewAPIError(kind, status, fallback, nil)
}

// transportError normalizes a failure that produced no usable response.
func transportError(kind error, fallback string, cause error) *common.APIError {
	e := common.NewAPIError(kind, 0, fallback, nil)
	e.Err = fmt.Errorf("%s: %w", fallback, cause)
	return e
}
