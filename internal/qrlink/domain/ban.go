package domain

import "time"

// BanKind distinguishes what a ban subject identifies.
type BanKind string

const (
	BanKindIP          BanKind = "ip"
	BanKindFingerprint BanKind = "fingerprint"
)

// BanStatus mirrors the registry's two-valued lifecycle. Expired rows are
// flipped lazily by reads rather than by a background sweeper.
type BanStatus string

const (
	BanStatusActive  BanStatus = "active"
	BanStatusExpired BanStatus = "expired"
)

// Ban blocks a subject (an IP or a device fingerprint) from creating
// handshakes while active.
type Ban struct {
	ID      string
	Kind    BanKind
	Subject string
	Status  BanStatus

	// BanUntil is nil for permanent bans.
	BanUntil *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Lapsed reports whether a time-limited ban has run out, regardless of
// whether a sweep has flipped its status yet.
func (b Ban) Lapsed(now time.Time) bool {
	return b.BanUntil != nil && now.After(*b.BanUntil)
}
