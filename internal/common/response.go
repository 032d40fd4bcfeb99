package common

import (
	"encoding/json"
	"errors"
	"net/http"
)

type ErrorResponse struct {
	Error  string       `json:"error"`
	Fields []FieldError `json:"fields,omitempty"`
}

func RespondWithError(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, ErrorResponse{Error: message})
}

// RespondWithAPIError writes err with the status HTTPStatusFromError picks for it.
func RespondWithAPIError(w http.ResponseWriter, err error) {
	resp := ErrorResponse{Error: Message(err)}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		resp.Fields = apiErr.Fields
	}
	RespondWithJSON(w, HTTPStatusFromError(err), resp)
}

func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Failed to marshal JSON response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
