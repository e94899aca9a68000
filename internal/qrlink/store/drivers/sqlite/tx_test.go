package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/lanternauth/qrlink/internal/qrlink/store"
	"github.com/stretchr/testify/require"
)

func TestWithTxCommitsOnSuccess(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	now := time.Now().UTC()
	first := pendingHandshake(now)
	second := pendingHandshake(now)

	err := s.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Handshakes().Create(ctx, first); err != nil {
			return err
		}
		return tx.Handshakes().Create(ctx, second)
	})
	require.NoError(t, err)

	_, err = s.Handshakes().Get(ctx, first.ID)
	require.NoError(t, err)
	_, err = s.Handshakes().Get(ctx, second.ID)
	require.NoError(t, err)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	h := pendingHandshake(time.Now().UTC())
	boom := errors.New("boom")

	err := s.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Handshakes().Create(ctx, h); err != nil {
			return err
		}
		// The insert must be visible inside the transaction...
		if _, err := tx.Handshakes().Get(ctx, h.ID); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	// ...and gone after the rollback.
	_, err = s.Handshakes().Get(ctx, h.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestWithTxRejectsNesting(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	err := s.WithTx(ctx, func(tx store.Tx) error {
		if _, err := tx.Tx(ctx); !errors.Is(err, sql.ErrTxDone) {
			return errors.New("nested Tx was not rejected")
		}
		if err := tx.WithTx(ctx, func(store.Tx) error { return nil }); !errors.Is(err, sql.ErrTxDone) {
			return errors.New("nested WithTx was not rejected")
		}
		return nil
	})
	require.NoError(t, err)
}
