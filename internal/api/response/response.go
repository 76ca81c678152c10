// Package response writes the JSON bodies and error envelopes of the API.
package response

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/bolsamaster/bolsamaster-backend/internal/validation"
)

// ErrorResponse is the body of every non-2xx response.
// Details holds the offending fields for validation failures, the rejected
// rows for imports, or the underlying error text otherwise.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// RespondJSON writes data as JSON with the given status.
// A nil data writes only the header. Encoding errors are logged since the
// status line has already been sent.
func RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode JSON response: %v", err)
	}
}

// RespondNoContent writes 204 with no body.
func RespondNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// RespondError writes an ErrorResponse.
//
// Example:
//
//	response.RespondError(w, http.StatusNotFound, "transaction not found", "")
func RespondError(w http.ResponseWriter, status int, message string, details any) {
	if s, ok := details.(string); ok && s == "" {
		details = nil
	}
	RespondJSON(w, status, ErrorResponse{
		Error:   message,
		Details: details,
	})
}

// RespondValidationError writes 400 for a failed request check. A
// *validation.Error is reported field by field:
//
//	{"error": "validation failed", "details": {"price": "price must not be negative"}}
func RespondValidationError(w http.ResponseWriter, err error) {
	var verr *validation.Error
	if errors.As(err, &verr) {
		RespondError(w, http.StatusBadRequest, "validation failed", verr.Fields)
		return
	}
	RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
}
