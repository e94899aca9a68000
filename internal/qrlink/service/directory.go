package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lanternauth/qrlink/internal/qrlink/domain"
	"github.com/lanternauth/qrlink/internal/qrlink/store"
	"github.com/lanternauth/qrlink/pkg/idx"
)

// DirectoryService resolves confirming identities to user ids. It stands in
// for the external user directory behind the narrow UserResolver interface;
// only lookups by name are needed here.
type DirectoryService struct {
	Store store.Store
}

// Resolve maps an identity (username) to a user id.
func (s *DirectoryService) Resolve(ctx context.Context, identity string) (string, error) {
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return "", ErrUserNotFound
	}

	user, err := s.Store.Directory().GetByUsername(ctx, identity)
	if errors.Is(err, store.ErrNotFound) {
		return "", ErrUserNotFound
	}
	if err != nil {
		return "", fmt.Errorf("directory lookup failed: %w", err)
	}
	return user.ID, nil
}

// Provision inserts a directory user. Provisioning normally happens in the
// account system; this exists for ops tooling and tests.
func (s *DirectoryService) Provision(ctx context.Context, username, displayName string) (domain.DirectoryUser, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return domain.DirectoryUser{}, ErrInvalidParameter
	}

	u := domain.DirectoryUser{
		ID:          idx.New().String(),
		Username:    username,
		DisplayName: displayName,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.Store.Directory().Create(ctx, u); err != nil {
		return domain.DirectoryUser{}, fmt.Errorf("failed to provision user: %w", err)
	}
	return u, nil
}
