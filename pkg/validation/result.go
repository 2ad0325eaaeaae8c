package validation

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Machine-readable error codes.
const (
	CodeRequired    = "required"
	CodeSchema      = "schema"
	CodeInvalidJSON = "invalid_json"
	CodeNoRoute     = "no_route"
)

// Where a failing value was read from.
const (
	LocationBody   = "body"
	LocationPath   = "path"
	LocationQuery  = "query"
	LocationHeader = "header"
)

// FieldError is one validation failure.
type FieldError struct {
	// Field is the body field or dotted path that failed, empty for
	// document-level errors
	Field string `json:"field,omitempty"`

	// Location is body, path, query, or header
	Location string `json:"location,omitempty"`

	// Code identifies the failure kind
	Code string `json:"code"`

	// Message is the human-readable description
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *FieldError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// Result is the outcome of validating one request.
type Result struct {
	Valid  bool          `json:"valid"`
	Errors []*FieldError `json:"errors,omitempty"`
}

// AddError records a failure and marks the result invalid.
func (r *Result) AddError(err *FieldError) {
	r.Valid = false
	r.Errors = append(r.Errors, err)
}

// Merge folds another result into this one.
func (r *Result) Merge(other *Result) {
	if other == nil {
		return
	}
	if !other.Valid {
		r.Valid = false
	}
	r.Errors = append(r.Errors, other.Errors...)
}

// WriteFailure writes the rejection body for a failed validation.
func WriteFailure(w http.ResponseWriter, status int, result *Result) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error":   "Validation Failed",
		"message": "request did not pass validation",
		"details": result.Errors,
	})
}
