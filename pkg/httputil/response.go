// Package httputil provides shared HTTP response helpers.
//
// The mock surface speaks plain JSON shaped by each endpoint definition;
// the admin surface wraps everything in the Envelope type. Both go through
// WriteJSON so Content-Type and encoding stay consistent.
package httputil

import (
	"encoding/json"
	"net/http"
)

// Envelope is the admin API response wrapper.
// Success responses carry Data; failures carry Error and Message.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
// It sets the Content-Type header to application/json.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// WriteData writes a success envelope with the given payload.
func WriteData(w http.ResponseWriter, status int, data any) {
	WriteJSON(w, status, Envelope{Success: true, Data: data})
}

// WriteMessage writes a success envelope carrying only a message.
func WriteMessage(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, Envelope{Success: true, Message: message})
}

// WriteEnvelopeError writes a failure envelope with an error code and a
// human-readable message.
func WriteEnvelopeError(w http.ResponseWriter, status int, errCode, message string) {
	WriteJSON(w, status, Envelope{Success: false, Error: errCode, Message: message})
}

// WriteError writes a bare JSON error object. Used on the mock surface,
// where responses are not enveloped.
func WriteError(w http.ResponseWriter, status int, errMsg, message string) {
	WriteJSON(w, status, map[string]string{
		"error":   errMsg,
		"message": message,
	})
}

// WriteNoContent writes a 204 No Content response.
func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
