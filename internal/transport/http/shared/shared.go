// Package shared holds the HTTP response helpers every handler uses, so the
// JSON envelopes stay consistent across modules.
package shared

import (
	"encoding/json"
	"net/http"

	dErrors "onestop/pkg/domain-errors"
)

// WriteJSON encodes payload with the given status.
func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// WriteError translates a domain error into the JSON error envelope. Messages
// on coded errors are user-facing; anything uncoded maps to a generic 500.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	WriteJSON(w, dErrors.ToHTTPStatus(code), map[string]string{
		"error":   string(code),
		"message": dErrors.MessageOf(err),
	})
}
