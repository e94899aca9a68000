package linksdk

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/lanternauth/qrlink/pkg/httpx"
)

// Error codes carried in the "error" field of error responses.
const (
	ErrorCodeInvalidRequest    = "invalid_request"
	ErrorCodeBanned            = "banned"
	ErrorCodeForbiddenSource   = "forbidden_source"
	ErrorCodeSessionExpired    = "session_expired"
	ErrorCodeInvalidTransition = "invalid_transition"
	ErrorCodeUserNotFound      = "user_not_found"
	ErrorCodeServerError       = "server_error"
)

// APIError is a structured error response from the handshake service. It is
// used by the server handlers to write error replies and by the client to
// represent them, so both sides agree on the shape.
type APIError struct {
	// StatusCode is the HTTP status code for this error
	StatusCode int `json:"-"`

	// Code is the machine-readable error code
	Code string `json:"error"`

	// Description is a human-readable description of the error
	Description string `json:"error_description"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// WriteError writes this APIError to an HTTP response writer.
func (e *APIError) WriteError(w http.ResponseWriter) {
	httpx.NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.StatusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":             e.Code,
		"error_description": e.Description,
	})
}

var (
	// ErrInvalidRequest covers malformed ids, bodies, and parameters.
	ErrInvalidRequest = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidRequest,
		Description: "the request is malformed or missing required parameters",
	}

	// ErrBanned is returned when an IP or device-fingerprint ban blocks
	// the request.
	ErrBanned = &APIError{
		StatusCode:  http.StatusForbidden,
		Code:        ErrorCodeBanned,
		Description: "requests from this origin are not accepted",
	}

	// ErrForbiddenSource is returned when a confirmation comes from a
	// client surface that is not on the allow-list.
	ErrForbiddenSource = &APIError{
		StatusCode:  http.StatusForbidden,
		Code:        ErrorCodeForbiddenSource,
		Description: "confirmation source is not recognized",
	}

	// ErrSessionExpired is returned for ids that are unknown or past
	// their deadline. The two cases are deliberately indistinguishable.
	ErrSessionExpired = &APIError{
		StatusCode:  http.StatusGone,
		Code:        ErrorCodeSessionExpired,
		Description: "the handshake is unknown or no longer active",
	}

	// ErrInvalidTransition is returned when the handshake was already
	// resolved by another caller. Benign from the client's perspective.
	ErrInvalidTransition = &APIError{
		StatusCode:  http.StatusConflict,
		Code:        ErrorCodeInvalidTransition,
		Description: "the handshake was already resolved",
	}

	// ErrUserNotFound is returned when the confirming identity cannot be
	// resolved.
	ErrUserNotFound = &APIError{
		StatusCode:  http.StatusNotFound,
		Code:        ErrorCodeUserNotFound,
		Description: "the confirming identity is unknown",
	}

	// ErrServerError is returned for unexpected internal failures.
	ErrServerError = &APIError{
		StatusCode:  http.StatusInternalServerError,
		Code:        ErrorCodeServerError,
		Description: "internal server error",
	}
)

// parseErrorResponse turns a non-2xx response body into a typed *APIError.
// Returns nil for 2xx responses.
func parseErrorResponse(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		return &APIError{
			StatusCode:  resp.StatusCode,
			Code:        errResp.Error,
			Description: errResp.ErrorDescription,
		}
	}

	return &APIError{
		StatusCode:  resp.StatusCode,
		Code:        ErrorCodeServerError,
		Description: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}
}
