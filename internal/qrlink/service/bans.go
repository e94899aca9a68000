package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lanternauth/qrlink/internal/qrlink/domain"
	"github.com/lanternauth/qrlink/internal/qrlink/store"
	"github.com/lanternauth/qrlink/pkg/idx"
)

// BanService is the registry of IP and device-fingerprint bans the handshake
// engine consults. Expired bans are swept lazily as a side effect of reads;
// reads may race the sweep, so a lapsed ban can survive at most one access.
type BanService struct {
	Store store.Store

	// Now is the clock; nil means time.Now. Injected by tests.
	Now func() time.Time
}

func (s *BanService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// IsIPBanned reports whether an active ban covers the IP, sweeping lapsed
// entries first.
func (s *BanService) IsIPBanned(ctx context.Context, ip string) (bool, error) {
	return s.isBanned(ctx, domain.BanKindIP, ip)
}

// IsFingerprintBanned reports whether an active ban covers the device
// fingerprint, sweeping lapsed entries first.
func (s *BanService) IsFingerprintBanned(ctx context.Context, fingerprint string) (bool, error) {
	return s.isBanned(ctx, domain.BanKindFingerprint, fingerprint)
}

func (s *BanService) isBanned(ctx context.Context, kind domain.BanKind, subject string) (bool, error) {
	now := s.now()

	if err := s.Store.Bans().SweepLapsed(ctx, now); err != nil {
		return false, fmt.Errorf("ban sweep failed: %w", err)
	}

	ban, err := s.Store.Bans().FindActive(ctx, kind, subject)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("ban lookup failed: %w", err)
	}

	// Belt over the sweep: a lapsed row that slipped past the racing
	// sweep still doesn't block anyone.
	if ban.Lapsed(now) {
		return false, nil
	}
	return true, nil
}

// Ban records a new ban. until nil means permanent. Management surface for
// ops tooling and tests; the handshake engine itself only reads.
func (s *BanService) Ban(ctx context.Context, kind domain.BanKind, subject string, until *time.Time) (domain.Ban, error) {
	if subject == "" {
		return domain.Ban{}, ErrInvalidParameter
	}

	now := s.now()
	b := domain.Ban{
		ID:        idx.New().String(),
		Kind:      kind,
		Subject:   subject,
		Status:    domain.BanStatusActive,
		BanUntil:  until,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.Store.Bans().Create(ctx, b); err != nil {
		return domain.Ban{}, fmt.Errorf("failed to record ban: %w", err)
	}
	return b, nil
}
