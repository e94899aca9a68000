package domain

import "time"

// State is the lifecycle state of a login handshake.
type State string

const (
	StatePending  State = "pending"
	StateScanned  State = "scanned"
	StateSuccess  State = "success"
	StateRejected State = "rejected"
	StateExpired  State = "expired"
)

// Terminal reports whether no further scan/confirm/reject action is accepted.
// Success is terminal for the handshake even though its token still feeds the
// external session bootstrap.
func (s State) Terminal() bool {
	switch s {
	case StateSuccess, StateRejected, StateExpired:
		return true
	}
	return false
}

// Handshake is one QR login-granting attempt. The desktop creates it, the
// mobile device resolves it, and the desktop collects the outcome by polling.
type Handshake struct {
	ID    string // ULID, unguessable
	State State

	OriginIP          string
	DeviceFingerprint string // optional; empty when the desktop sent none

	// Set exactly once, on the transition into Success.
	BoundUserID        *string
	ConfirmationSource string
	Token              *string
	TokenExpiresAt     *time.Time

	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the handshake's validity window has passed.
// Terminal states never flip to expired; the outcome already happened.
func (h Handshake) Expired(now time.Time) bool {
	return !h.State.Terminal() && now.After(h.ExpiresAt)
}

// TokenUsable reports whether the minted token is still inside its own
// validity window. A Success handshake whose token has lapsed stays Success
// but no longer yields the token.
func (h Handshake) TokenUsable(now time.Time) bool {
	return h.Token != nil && h.TokenExpiresAt != nil && now.Before(*h.TokenExpiresAt)
}
