// Package shared holds the response envelope helpers every handler uses.
package shared

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "geoatlas/pkg/domain-errors"
)

// Envelope is the uniform response body: a payload and a human-readable
// message. Failures carry a null payload; internal storage detail never
// reaches the client.
type Envelope struct {
	Data    any    `json:"data"`
	Message string `json:"message,omitempty"`
}

// WriteJSON writes a success envelope.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Envelope{Data: data})
}

// WriteError maps a domain error code to an HTTP status and writes the
// failure envelope.
func WriteError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch dErrors.CodeOf(err) {
	case dErrors.CodeValidation, dErrors.CodeBadRequest:
		status = http.StatusBadRequest
	case dErrors.CodeForbidden:
		status = http.StatusForbidden
	case dErrors.CodeNotFound:
		status = http.StatusNotFound
	case dErrors.CodeConflict:
		status = http.StatusConflict
	case dErrors.CodeStorage:
		status = http.StatusBadGateway
	}

	message := "operation failed"
	var de *dErrors.Error
	if errors.As(err, &de) && de.Code != dErrors.CodeStorage && de.Code != dErrors.CodeInternal {
		message = de.Message
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Envelope{Data: nil, Message: message})
}
