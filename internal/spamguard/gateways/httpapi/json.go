package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/haukened/spamguard/internal/spamguard/common/log"
)

// Error bodies returned by the check endpoint.
const (
	errMissingEmail  = "Missing required parameter: email"
	errInvalidFormat = "Invalid email format"
	errInternal      = "Internal server error"
	errInvalidBody   = "Invalid request body"

	usageHint       = "GET /api/check?email=user@example.com"
	internalMessage = "Failed to validate email"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type missingResponse struct {
	Error string `json:"error"`
	Usage string `json:"usage"`
}

type invalidFormatResponse struct {
	Error string `json:"error"`
	Email string `json:"email"`
}

// writeJSON writes v with status. Encoding failures can only be logged since
// the header is already out.
func writeJSON(w http.ResponseWriter, logger log.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error(map[string]any{
			"status": status,
			"error":  err,
		}, "Failed to encode JSON response")
	}
}
