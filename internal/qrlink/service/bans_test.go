package service

import (
	"context"
	"testing"
	"time"

	"github.com/lanternauth/qrlink/internal/qrlink/domain"
	"github.com/lanternauth/qrlink/internal/qrlink/store"
	"github.com/stretchr/testify/require"
)

func TestBanService(t *testing.T) {
	ctx := context.Background()

	t.Run("permanent ban stays active", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.bans.Ban(ctx, domain.BanKindIP, "198.51.100.1", nil)
		require.NoError(t, err)

		f.clock.Advance(365 * 24 * time.Hour)

		banned, err := f.bans.IsIPBanned(ctx, "198.51.100.1")
		require.NoError(t, err)
		require.True(t, banned)
	})

	t.Run("timed ban lapses and is swept", func(t *testing.T) {
		f := newFixture(t)
		until := f.clock.Now().Add(time.Hour)
		b, err := f.bans.Ban(ctx, domain.BanKindFingerprint, "fp-1", &until)
		require.NoError(t, err)

		banned, err := f.bans.IsFingerprintBanned(ctx, "fp-1")
		require.NoError(t, err)
		require.True(t, banned)

		f.clock.Advance(2 * time.Hour)

		banned, err = f.bans.IsFingerprintBanned(ctx, "fp-1")
		require.NoError(t, err)
		require.False(t, banned)

		// The read swept the lapsed row out of the active set.
		_, err = f.store.Bans().FindActive(ctx, domain.BanKindFingerprint, b.Subject)
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("kinds do not cross-match", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.bans.Ban(ctx, domain.BanKindIP, "shared-subject", nil)
		require.NoError(t, err)

		banned, err := f.bans.IsFingerprintBanned(ctx, "shared-subject")
		require.NoError(t, err)
		require.False(t, banned)
	})

	t.Run("empty subject is rejected", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.bans.Ban(ctx, domain.BanKindIP, "", nil)
		require.ErrorIs(t, err, ErrInvalidParameter)
	})
}

func TestDirectoryService(t *testing.T) {
	ctx := context.Background()

	t.Run("resolves provisioned users", func(t *testing.T) {
		f := newFixture(t)
		u := f.provision(t, "carol")

		id, err := f.dir.Resolve(ctx, "carol")
		require.NoError(t, err)
		require.Equal(t, u.ID, id)
	})

	t.Run("unknown or blank identities fail", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.dir.Resolve(ctx, "ghost")
		require.ErrorIs(t, err, ErrUserNotFound)

		_, err = f.dir.Resolve(ctx, "   ")
		require.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("duplicate usernames collide", func(t *testing.T) {
		f := newFixture(t)
		f.provision(t, "dave")

		_, err := f.dir.Provision(ctx, "dave", "Dave Again")
		require.ErrorIs(t, err, store.ErrAlreadyExists)
	})
}
