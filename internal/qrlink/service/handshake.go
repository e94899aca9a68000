package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/lanternauth/qrlink/internal/qrlink/domain"
	"github.com/lanternauth/qrlink/internal/qrlink/store"
	"github.com/lanternauth/qrlink/pkg/cryptox"
	"github.com/lanternauth/qrlink/pkg/idx"
	"github.com/lanternauth/qrlink/pkg/qrsig"
	"github.com/lanternauth/qrlink/pkg/slogx"
)

// Failure kinds surfaced to transport adapters. All are local, recoverable
// conditions; none triggers an automatic retry here.
var (
	ErrInvalidParameter = errors.New("invalid_parameter")
	ErrBanned           = errors.New("banned")

	// ErrNotFoundOrExpired deliberately conflates unknown and expired ids
	// so callers can't probe for the existence of foreign sessions.
	ErrNotFoundOrExpired = errors.New("not_found_or_expired")

	// ErrInvalidTransition means another actor already resolved the
	// handshake. Benign; callers show nothing and stop retrying.
	ErrInvalidTransition = errors.New("invalid_transition")

	ErrForbiddenSource = errors.New("forbidden_source")
	ErrUserNotFound    = errors.New("user_not_found")
)

const (
	// DefaultSessionTTL bounds how long a QR code stays confirmable.
	DefaultSessionTTL = 5 * time.Minute
	// DefaultTokenTTL bounds how long a minted login token stays redeemable.
	DefaultTokenTTL = 5 * time.Minute

	// createAttempts bounds the id-collision retry loop. The store's
	// uniqueness constraint is the real guard; retrying more than a few
	// times would mean the entropy source is broken.
	createAttempts = 3
)

// BanChecker is the slice of the ban registry the handshake engine consults.
type BanChecker interface {
	IsIPBanned(ctx context.Context, ip string) (bool, error)
	IsFingerprintBanned(ctx context.Context, fingerprint string) (bool, error)
}

// UserResolver resolves a confirming identity against the user directory.
type UserResolver interface {
	Resolve(ctx context.Context, identity string) (string, error)
}

// HandshakeService owns the QR login state machine: creation, the
// scan/confirm/reject transitions, status reads, and token issuance. All
// coordination between racing actors is pushed onto the store's guarded
// updates; the service itself holds no mutable state.
type HandshakeService struct {
	Store     store.Store
	Bans      BanChecker
	Directory UserResolver
	Signer    *qrsig.Signer

	SessionTTL time.Duration
	TokenTTL   time.Duration

	// AllowedSources is the allow-list of client surfaces permitted to
	// confirm an identity.
	AllowedSources []string

	// RecheckBansOnConfirm also consults the ban registry at confirm
	// time, closing the window where a device banned after the QR was
	// minted can still complete login. Off by default to match the
	// creation-only gating the desktop flow was built around.
	RecheckBansOnConfirm bool

	// Now is the clock; nil means time.Now. Injected by tests.
	Now func() time.Time
}

func (s *HandshakeService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *HandshakeService) sessionTTL() time.Duration {
	if s.SessionTTL > 0 {
		return s.SessionTTL
	}
	return DefaultSessionTTL
}

func (s *HandshakeService) tokenTTL() time.Duration {
	if s.TokenTTL > 0 {
		return s.TokenTTL
	}
	return DefaultTokenTTL
}

// CreateResponse is returned to the desktop that requested a QR login.
type CreateResponse struct {
	ID        string
	QRPayload string
	ExpiresAt time.Time
}

// StatusResponse is the poll result. Token fields are only present while a
// Success handshake's token is inside its validity window.
type StatusResponse struct {
	State          domain.State
	Token          *string
	TokenExpiresAt *time.Time
}

// Create starts a handshake for an unauthenticated desktop. Ban gating runs
// before anything is persisted; a banned IP or device fingerprint learns
// nothing beyond the refusal.
func (s *HandshakeService) Create(ctx context.Context, originIP, fingerprint string) (CreateResponse, error) {
	log := slogx.FromContext(ctx)

	originIP = strings.TrimSpace(originIP)
	if net.ParseIP(originIP) == nil {
		return CreateResponse{}, ErrInvalidParameter
	}
	fingerprint = strings.TrimSpace(fingerprint)

	banned, err := s.Bans.IsIPBanned(ctx, originIP)
	if err != nil {
		return CreateResponse{}, fmt.Errorf("ban check failed: %w", err)
	}
	if banned {
		log.Warn("handshake creation blocked", "reason", "ip_banned")
		return CreateResponse{}, ErrBanned
	}

	if fingerprint != "" {
		banned, err := s.Bans.IsFingerprintBanned(ctx, fingerprint)
		if err != nil {
			return CreateResponse{}, fmt.Errorf("ban check failed: %w", err)
		}
		if banned {
			log.Warn("handshake creation blocked", "reason", "fingerprint_banned")
			return CreateResponse{}, ErrBanned
		}
	}

	now := s.now()
	h := domain.Handshake{
		State:             domain.StatePending,
		OriginIP:          originIP,
		DeviceFingerprint: fingerprint,
		CreatedAt:         now,
		ExpiresAt:         now.Add(s.sessionTTL()),
	}

	// ULIDs make collisions vanishingly unlikely, but the store's primary
	// key is the guarantee. Retry with a fresh id instead of overwriting.
	for attempt := range createAttempts {
		h.ID = idx.New().String()

		err := s.Store.Handshakes().Create(ctx, h)
		if err == nil {
			break
		}
		if errors.Is(err, store.ErrAlreadyExists) && attempt < createAttempts-1 {
			log.Warn("handshake id collision, retrying", "attempt", attempt+1)
			continue
		}
		return CreateResponse{}, fmt.Errorf("failed to persist handshake: %w", err)
	}

	payload, err := s.Signer.PayloadURI(h.ID, h.ExpiresAt)
	if err != nil {
		return CreateResponse{}, fmt.Errorf("failed to build qr payload: %w", err)
	}

	log.Info("handshake created", "handshake_id", h.ID, "expires_at", h.ExpiresAt)

	return CreateResponse{
		ID:        h.ID,
		QRPayload: payload,
		ExpiresAt: h.ExpiresAt,
	}, nil
}

// Status is the desktop poller's read path. It is safe at polling frequency;
// the only write it can cause is the lazy flip to Expired. An id that was
// never created reports expired, indistinguishable from a reaped one.
func (s *HandshakeService) Status(ctx context.Context, id string) (StatusResponse, error) {
	if _, err := idx.Parse(id); err != nil {
		return StatusResponse{}, ErrInvalidParameter
	}

	h, err := s.loadLive(ctx, id)
	if errors.Is(err, ErrNotFoundOrExpired) {
		return StatusResponse{State: domain.StateExpired}, nil
	}
	if err != nil {
		return StatusResponse{}, err
	}

	resp := StatusResponse{State: h.State}
	if h.State == domain.StateSuccess && h.TokenUsable(s.now()) {
		resp.Token = h.Token
		resp.TokenExpiresAt = h.TokenExpiresAt
	}
	return resp, nil
}

// Scan marks a Pending handshake as Scanned. No identity is attached: a scan
// only signals that a camera saw the code, it grants nothing.
func (s *HandshakeService) Scan(ctx context.Context, id string) error {
	if _, err := idx.Parse(id); err != nil {
		return ErrInvalidParameter
	}

	if _, err := s.loadLive(ctx, id); err != nil {
		return err
	}

	err := s.Store.Handshakes().TransitionState(ctx, id,
		[]domain.State{domain.StatePending}, domain.StateScanned)
	return s.mapTransitionErr(err)
}

// Confirm resolves the handshake in favour of the confirming identity and
// mints the one-time login token. The source allow-list is enforced before
// the session is even looked up, so an unrecognized caller cannot probe
// session state. Exactly one confirm or reject wins; the store's guarded
// update is the arbiter.
func (s *HandshakeService) Confirm(ctx context.Context, id, identity, source string) error {
	log := slogx.FromContext(ctx)

	if !s.sourceAllowed(source) {
		log.Warn("confirm from unrecognized source", "source", source)
		return ErrForbiddenSource
	}

	if _, err := idx.Parse(id); err != nil {
		return ErrInvalidParameter
	}
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return ErrInvalidParameter
	}

	h, err := s.loadLive(ctx, id)
	if err != nil {
		return err
	}

	userID, err := s.Directory.Resolve(ctx, identity)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("identity resolution failed: %w", err)
	}

	if s.RecheckBansOnConfirm {
		if err := s.recheckBans(ctx, h); err != nil {
			return err
		}
	}

	token, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return fmt.Errorf("failed to mint token: %w", err)
	}
	tokenExpiresAt := s.now().Add(s.tokenTTL())

	err = s.Store.Handshakes().CompleteSuccess(ctx, id,
		[]domain.State{domain.StatePending, domain.StateScanned},
		userID, source, token, tokenExpiresAt)
	if err != nil {
		return s.mapTransitionErr(err)
	}

	log.Info("handshake confirmed",
		"handshake_id", id,
		"user_id", userID,
		"source", source,
		"token_fp", cryptox.FingerprintToken(token),
	)
	return nil
}

// Reject resolves the handshake against login. Symmetric to Confirm but
// needs no identity and no source.
func (s *HandshakeService) Reject(ctx context.Context, id string) error {
	if _, err := idx.Parse(id); err != nil {
		return ErrInvalidParameter
	}

	if _, err := s.loadLive(ctx, id); err != nil {
		return err
	}

	err := s.Store.Handshakes().TransitionState(ctx, id,
		[]domain.State{domain.StatePending, domain.StateScanned}, domain.StateRejected)
	return s.mapTransitionErr(err)
}

// loadLive fetches a handshake and applies lazy expiry: a row past its
// deadline is flipped to Expired on this access and reported as gone.
func (s *HandshakeService) loadLive(ctx context.Context, id string) (domain.Handshake, error) {
	h, err := s.Store.Handshakes().Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Handshake{}, ErrNotFoundOrExpired
	}
	if err != nil {
		return domain.Handshake{}, fmt.Errorf("failed to load handshake: %w", err)
	}

	now := s.now()
	if h.Expired(now) {
		if err := s.Store.Handshakes().MarkExpired(ctx, id, now); err != nil {
			return domain.Handshake{}, fmt.Errorf("failed to expire handshake: %w", err)
		}
		return domain.Handshake{}, ErrNotFoundOrExpired
	}
	if h.State == domain.StateExpired {
		return domain.Handshake{}, ErrNotFoundOrExpired
	}

	return h, nil
}

func (s *HandshakeService) recheckBans(ctx context.Context, h domain.Handshake) error {
	banned, err := s.Bans.IsIPBanned(ctx, h.OriginIP)
	if err != nil {
		return fmt.Errorf("ban recheck failed: %w", err)
	}
	if !banned && h.DeviceFingerprint != "" {
		banned, err = s.Bans.IsFingerprintBanned(ctx, h.DeviceFingerprint)
		if err != nil {
			return fmt.Errorf("ban recheck failed: %w", err)
		}
	}
	if banned {
		return ErrBanned
	}
	return nil
}

func (s *HandshakeService) sourceAllowed(source string) bool {
	for _, allowed := range s.AllowedSources {
		if source == allowed {
			return true
		}
	}
	return false
}

func (s *HandshakeService) mapTransitionErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrStaleState):
		return ErrInvalidTransition
	case errors.Is(err, store.ErrNotFound):
		return ErrNotFoundOrExpired
	default:
		return fmt.Errorf("failed to update handshake: %w", err)
	}
}
