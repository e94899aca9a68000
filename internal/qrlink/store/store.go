package store

import (
	"context"
	"errors"
	"time"

	"github.com/lanternauth/qrlink/internal/qrlink/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")

	// ErrStaleState is returned by a guarded state update when the row's
	// current state was not among the allowed source states. Callers treat
	// this as "someone else already resolved this handshake".
	ErrStaleState = errors.New("store: stale state")
)

// Store is the root data access interface. Concrete drivers (sqlite today)
// implement this. Sub-repositories keep concerns separated and let services
// be tested against narrow fakes.
type Store interface {
	Handshakes() Handshakes
	Bans() Bans
	Directory() Directory

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction, committing on nil and
	// rolling back on error. Preferred over Tx for multi-step operations.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. Same repos plus Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Handshakes interface {
	// Create inserts a new handshake. A colliding id surfaces as
	// ErrAlreadyExists via the primary key constraint so the caller can
	// retry with a fresh id instead of silently overwriting.
	Create(ctx context.Context, h domain.Handshake) error

	// Get returns a handshake by id, or ErrNotFound.
	Get(ctx context.Context, id string) (domain.Handshake, error)

	// TransitionState moves the handshake to the target state only if the
	// current state is one of from. Zero rows affected means a concurrent
	// caller won the race: ErrStaleState for an existing row, ErrNotFound
	// for a missing one. This guarded update is the only arbiter for
	// racing scan/confirm/reject/expiry writers.
	TransitionState(ctx context.Context, id string, from []domain.State, to domain.State) error

	// CompleteSuccess is the confirm transition: a single guarded update
	// that moves the handshake into Success and binds the user id,
	// confirmation source, and freshly minted token in one statement.
	CompleteSuccess(ctx context.Context, id string, from []domain.State, userID, source, token string, tokenExpiresAt time.Time) error

	// MarkExpired flips a non-terminal handshake past its expiry to
	// Expired. Idempotent: a row already terminal is left untouched and no
	// error is returned.
	MarkExpired(ctx context.Context, id string, now time.Time) error

	// DeleteResolvedBefore removes terminal handshakes whose validity
	// ended before the cutoff. Storage hygiene only; lazy expiry on read
	// is the semantic mechanism.
	DeleteResolvedBefore(ctx context.Context, cutoff time.Time) error
}

type Bans interface {
	// Create inserts a ban record (id is ULID).
	Create(ctx context.Context, b domain.Ban) error

	// FindActive returns the active ban for a subject, or ErrNotFound.
	FindActive(ctx context.Context, kind domain.BanKind, subject string) (domain.Ban, error)

	// SweepLapsed flips every active ban whose ban_until has passed to
	// expired. Invoked lazily before each registry read.
	SweepLapsed(ctx context.Context, now time.Time) error

	// DeleteExpiredBefore removes expired ban rows older than the cutoff.
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) error
}

type Directory interface {
	// GetByUsername resolves a confirming identity, or ErrNotFound.
	GetByUsername(ctx context.Context, username string) (domain.DirectoryUser, error)

	// Create inserts a directory user (provisioning/ops tooling).
	Create(ctx context.Context, u domain.DirectoryUser) error
}
