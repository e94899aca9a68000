package linksdk

import "time"

// Handshake states as reported by the status endpoint.
const (
	StatePending  = "pending"
	StateScanned  = "scanned"
	StateSuccess  = "success"
	StateRejected = "rejected"
	StateExpired  = "expired"
)

// ErrorResponse is the body of every error reply. Used internally for
// parsing; client code sees the typed APIError instead.
type ErrorResponse struct {
	// Error is the machine-readable error code (e.g. "invalid_transition")
	Error string `json:"error"`

	// ErrorDescription is a human-readable description of the error
	ErrorDescription string `json:"error_description"`
}

// CreateHandshakeRequest starts a new QR login handshake.
type CreateHandshakeRequest struct {
	// IP overrides the origin IP derived from the connection. Meant for
	// trusted frontends that terminate the user connection themselves;
	// leave empty to let the server use the observed peer address.
	IP string `json:"ip,omitempty"`

	// Fingerprint is the optional device fingerprint of the desktop
	// requesting login. Used only for ban checks.
	Fingerprint string `json:"fingerprint,omitempty"`
}

// CreateHandshakeResponse is returned from POST /v1/handshakes.
type CreateHandshakeResponse struct {
	// ID is the opaque handshake id the mobile device will act on
	ID string `json:"id"`

	// QRPayload is the URI to render as a QR code
	QRPayload string `json:"qr_payload"`

	// ExpiresAt is when the handshake stops accepting any action
	ExpiresAt time.Time `json:"expires_at"`
}

// HandshakeStatus is returned from GET /v1/handshakes/{id}. Token fields are
// only present while the handshake is in the success state with an unexpired
// token.
type HandshakeStatus struct {
	// State is one of pending, scanned, success, rejected, expired
	State string `json:"state"`

	// Token is the one-time login token, present only on success
	Token string `json:"token,omitempty"`

	// TokenExpiresAt is the token deadline, present only with Token
	TokenExpiresAt *time.Time `json:"token_expires_at,omitempty"`
}

// Resolved reports whether the handshake has reached a state the desktop
// poller should stop on.
func (s HandshakeStatus) Resolved() bool {
	switch s.State {
	case StateSuccess, StateRejected, StateExpired:
		return true
	}
	return false
}

// ConfirmHandshakeRequest approves a handshake on behalf of an identity.
type ConfirmHandshakeRequest struct {
	// UserIdentity is the username of the account approving the login
	UserIdentity string `json:"user_identity"`

	// Source is the declared client surface (e.g. "mobile-app"); must be
	// on the server's allow-list
	Source string `json:"source"`
}

// ActionResponse is the reply to scan, confirm and reject.
type ActionResponse struct {
	Success bool `json:"success"`
}

// HealthChecks reports per-dependency health in readiness responses.
type HealthChecks struct {
	Database string `json:"database"`
}

// HealthResponse is returned from /livez and /readyz.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}
