// Package response renders the service's JSON envelope and maps errors to
// HTTP statuses.
package response

import (
	"encoding/json"
	"errors"
	"net/http"
)

// Envelope is the standard JSON response structure.
type Envelope struct {
	Data  any          `json:"data,omitempty"`
	Meta  map[string]any `json:"meta,omitempty"`
	Error *ErrorDetail `json:"error,omitempty"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string              `json:"code"`
	Message string              `json:"message,omitempty"`
	Fields  map[string][]string `json:"fields,omitempty"`
}

// HTTPError carries a status code and a stable error code string.
type HTTPError struct {
	Status  int
	Code    string
	Message string
}

// Error implements the error interface.
func (e HTTPError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Code
}

var (
	ErrBadRequest   = HTTPError{Status: http.StatusBadRequest, Code: "bad_request"}
	ErrUnauthorized = HTTPError{Status: http.StatusUnauthorized, Code: "unauthorized"}
	ErrForbidden    = HTTPError{Status: http.StatusForbidden, Code: "forbidden"}
	ErrNotFound     = HTTPError{Status: http.StatusNotFound, Code: "not_found"}
	ErrConflict     = HTTPError{Status: http.StatusConflict, Code: "conflict"}
	ErrUnprocessable = HTTPError{Status: http.StatusUnprocessableEntity, Code: "unprocessable_entity"}
	ErrInternal     = HTTPError{Status: http.StatusInternalServerError, Code: "internal_server_error"}
)

// NewHTTPError creates a custom HTTP error.
func NewHTTPError(status int, code, message string) HTTPError {
	return HTTPError{Status: status, Code: code, Message: message}
}

// ValidationError maps field names to their validation failures.
type ValidationError map[string][]string

// Error implements the error interface.
func (v ValidationError) Error() string {
	return "validation failed"
}

// JSON writes a success envelope with the given status.
func JSON(w http.ResponseWriter, status int, data any) {
	write(w, status, Envelope{Data: data})
}

// JSONMeta writes a success envelope with metadata (pagination, counts).
func JSONMeta(w http.ResponseWriter, status int, data any, meta map[string]any) {
	write(w, status, Envelope{Data: data, Meta: meta})
}

// NoContent writes 204 with an empty body.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Error writes an error envelope, resolving the status from the error's
// type: HTTPError carries its own status, ValidationError maps to 422,
// anything else is an opaque 500.
func Error(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	detail := &ErrorDetail{Code: "internal_server_error"}

	var httpErr HTTPError
	var valErr ValidationError
	switch {
	case errors.As(err, &valErr):
		status = http.StatusUnprocessableEntity
		detail.Code = "validation_error"
		detail.Fields = valErr
	case errors.As(err, &httpErr):
		status = httpErr.Status
		detail.Code = httpErr.Code
		detail.Message = httpErr.Message
	}

	write(w, status, Envelope{Error: detail})
}

func write(w http.ResponseWriter, status int, body Envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
