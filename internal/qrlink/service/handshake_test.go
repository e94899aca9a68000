package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/lanternauth/qrlink/internal/qrlink/domain"
	"github.com/lanternauth/qrlink/internal/qrlink/store"
	"github.com/lanternauth/qrlink/internal/qrlink/store/drivers/sqlite"
	"github.com/lanternauth/qrlink/pkg/idx"
	"github.com/lanternauth/qrlink/pkg/qrsig"
	"github.com/stretchr/testify/require"
)

// testClock is a manually advanced clock shared by the services under test.
type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fixture struct {
	store *sqlite.Store
	clock *testClock
	bans  *BanService
	dir   *DirectoryService
	svc   *HandshakeService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	clock := newTestClock()
	bans := &BanService{Store: st, Now: clock.Now}
	dir := &DirectoryService{Store: st}

	svc := &HandshakeService{
		Store:          st,
		Bans:           bans,
		Directory:      dir,
		Signer:         qrsig.NewSigner([]byte("0123456789abcdef0123456789abcdef"), "qrlink-test"),
		AllowedSources: []string{"mobile-app", "mobile-web"},
		Now:            clock.Now,
	}

	return &fixture{store: st, clock: clock, bans: bans, dir: dir, svc: svc}
}

func (f *fixture) create(t *testing.T) CreateResponse {
	t.Helper()
	resp, err := f.svc.Create(context.Background(), "203.0.113.5", "")
	require.NoError(t, err)
	return resp
}

func (f *fixture) provision(t *testing.T, username string) domain.DirectoryUser {
	t.Helper()
	u, err := f.dir.Provision(context.Background(), username, username)
	require.NoError(t, err)
	return u
}

func TestCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("issues distinct unguessable ids", func(t *testing.T) {
		f := newFixture(t)

		seen := make(map[string]struct{})
		for range 50 {
			resp, err := f.svc.Create(ctx, "203.0.113.5", "fp-abc")
			require.NoError(t, err)

			_, dup := seen[resp.ID]
			require.False(t, dup, "duplicate handshake id %s", resp.ID)
			seen[resp.ID] = struct{}{}

			_, err = idx.Parse(resp.ID)
			require.NoError(t, err)
		}
	})

	t.Run("qr payload embeds the id and verifies", func(t *testing.T) {
		f := newFixture(t)
		resp := f.create(t)

		id, sig, err := qrsig.ParsePayloadURI(resp.QRPayload)
		require.NoError(t, err)
		require.Equal(t, resp.ID, id)

		claims, err := f.svc.Signer.Verify(sig)
		require.NoError(t, err)
		require.Equal(t, resp.ID, claims.SessionID)
	})

	t.Run("pins the expiry to the session ttl", func(t *testing.T) {
		f := newFixture(t)
		resp := f.create(t)
		require.Equal(t, f.clock.Now().Add(DefaultSessionTTL), resp.ExpiresAt)
	})

	t.Run("rejects malformed ips", func(t *testing.T) {
		f := newFixture(t)
		for _, bad := range []string{"", "not-an-ip", "999.1.2.3"} {
			_, err := f.svc.Create(ctx, bad, "")
			require.ErrorIs(t, err, ErrInvalidParameter, "ip %q", bad)
		}
	})

	t.Run("refuses banned ip", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.bans.Ban(ctx, domain.BanKindIP, "203.0.113.5", nil)
		require.NoError(t, err)

		_, err = f.svc.Create(ctx, "203.0.113.5", "")
		require.ErrorIs(t, err, ErrBanned)
	})

	t.Run("refuses banned fingerprint", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.bans.Ban(ctx, domain.BanKindFingerprint, "fp-bad", nil)
		require.NoError(t, err)

		_, err = f.svc.Create(ctx, "203.0.113.5", "fp-bad")
		require.ErrorIs(t, err, ErrBanned)

		// Without the fingerprint the same desktop is only gated on IP.
		_, err = f.svc.Create(ctx, "203.0.113.5", "")
		require.NoError(t, err)
	})

	t.Run("lapsed ban no longer blocks creation", func(t *testing.T) {
		f := newFixture(t)
		until := f.clock.Now().Add(time.Minute)
		_, err := f.bans.Ban(ctx, domain.BanKindIP, "203.0.113.5", &until)
		require.NoError(t, err)

		_, err = f.svc.Create(ctx, "203.0.113.5", "")
		require.ErrorIs(t, err, ErrBanned)

		f.clock.Advance(2 * time.Minute)

		_, err = f.svc.Create(ctx, "203.0.113.5", "")
		require.NoError(t, err)
	})
}

func TestStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown id reports expired, not missing", func(t *testing.T) {
		f := newFixture(t)

		resp, err := f.svc.Status(ctx, idx.New().String())
		require.NoError(t, err)
		require.Equal(t, domain.StateExpired, resp.State)
		require.Nil(t, resp.Token)
	})

	t.Run("malformed id is an input error", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.Status(ctx, "definitely-not-a-ulid")
		require.ErrorIs(t, err, ErrInvalidParameter)
	})

	t.Run("reports live states verbatim", func(t *testing.T) {
		f := newFixture(t)
		created := f.create(t)

		resp, err := f.svc.Status(ctx, created.ID)
		require.NoError(t, err)
		require.Equal(t, domain.StatePending, resp.State)

		require.NoError(t, f.svc.Scan(ctx, created.ID))

		resp, err = f.svc.Status(ctx, created.ID)
		require.NoError(t, err)
		require.Equal(t, domain.StateScanned, resp.State)
	})

	t.Run("expiry boundary is exact even without writes", func(t *testing.T) {
		f := newFixture(t)
		created := f.create(t)

		f.clock.Advance(299 * time.Second)
		resp, err := f.svc.Status(ctx, created.ID)
		require.NoError(t, err)
		require.Equal(t, domain.StatePending, resp.State)

		f.clock.Advance(2 * time.Second) // now at +301s
		resp, err = f.svc.Status(ctx, created.ID)
		require.NoError(t, err)
		require.Equal(t, domain.StateExpired, resp.State)

		// The lazy flip persisted.
		h, err := f.store.Handshakes().Get(ctx, created.ID)
		require.NoError(t, err)
		require.Equal(t, domain.StateExpired, h.State)
	})
}

func TestScan(t *testing.T) {
	ctx := context.Background()

	t.Run("moves pending to scanned exactly once", func(t *testing.T) {
		f := newFixture(t)
		created := f.create(t)

		require.NoError(t, f.svc.Scan(ctx, created.ID))
		require.ErrorIs(t, f.svc.Scan(ctx, created.ID), ErrInvalidTransition)
	})

	t.Run("exactly one winner under contention", func(t *testing.T) {
		f := newFixture(t)
		created := f.create(t)

		const callers = 12
		errs := make([]error, callers)

		var wg sync.WaitGroup
		for i := range callers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs[i] = f.svc.Scan(ctx, created.ID)
			}()
		}
		wg.Wait()

		var wins int
		for _, err := range errs {
			if err == nil {
				wins++
			} else {
				require.ErrorIs(t, err, ErrInvalidTransition)
			}
		}
		require.Equal(t, 1, wins)
	})

	t.Run("resolved sessions refuse scans", func(t *testing.T) {
		f := newFixture(t)
		created := f.create(t)
		require.NoError(t, f.svc.Reject(ctx, created.ID))

		require.ErrorIs(t, f.svc.Scan(ctx, created.ID), ErrInvalidTransition)
	})

	t.Run("expired sessions are gone, not stale", func(t *testing.T) {
		f := newFixture(t)
		created := f.create(t)
		f.clock.Advance(DefaultSessionTTL + time.Second)

		require.ErrorIs(t, f.svc.Scan(ctx, created.ID), ErrNotFoundOrExpired)
	})
}

// recordingStore records whether any handshake data was touched. Everything
// else delegates to the real store.
type recordingStore struct {
	store.Store
	touched bool
}

func (r *recordingStore) Handshakes() store.Handshakes {
	r.touched = true
	return r.Store.Handshakes()
}

func TestConfirm(t *testing.T) {
	ctx := context.Background()

	t.Run("forbidden source checked before the session is touched", func(t *testing.T) {
		f := newFixture(t)
		created := f.create(t)

		rec := &recordingStore{Store: f.store}
		f.svc.Store = rec

		err := f.svc.Confirm(ctx, created.ID, "alice", "curl/8.0")
		require.ErrorIs(t, err, ErrForbiddenSource)
		require.False(t, rec.touched, "session state leaked to an unauthorized source")
	})

	t.Run("unknown identity fails", func(t *testing.T) {
		f := newFixture(t)
		created := f.create(t)

		err := f.svc.Confirm(ctx, created.ID, "nobody", "mobile-app")
		require.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("binds user and mints a stable token", func(t *testing.T) {
		f := newFixture(t)
		user := f.provision(t, "alice")
		created := f.create(t)

		require.NoError(t, f.svc.Scan(ctx, created.ID))
		require.NoError(t, f.svc.Confirm(ctx, created.ID, "alice", "mobile-app"))

		resp, err := f.svc.Status(ctx, created.ID)
		require.NoError(t, err)
		require.Equal(t, domain.StateSuccess, resp.State)
		require.NotNil(t, resp.Token)
		require.NotNil(t, resp.TokenExpiresAt)
		require.WithinDuration(t, f.clock.Now().Add(DefaultTokenTTL), *resp.TokenExpiresAt, time.Second)

		// Re-polling must not rotate or invalidate the token.
		again, err := f.svc.Status(ctx, created.ID)
		require.NoError(t, err)
		require.Equal(t, *resp.Token, *again.Token)

		h, err := f.store.Handshakes().Get(ctx, created.ID)
		require.NoError(t, err)
		require.NotNil(t, h.BoundUserID)
		require.Equal(t, user.ID, *h.BoundUserID)
		require.Equal(t, "mobile-app", h.ConfirmationSource)
	})

	t.Run("token lapses without disturbing the success state", func(t *testing.T) {
		f := newFixture(t)
		f.provision(t, "alice")
		created := f.create(t)

		require.NoError(t, f.svc.Confirm(ctx, created.ID, "alice", "mobile-app"))

		f.clock.Advance(DefaultTokenTTL + time.Second)

		resp, err := f.svc.Status(ctx, created.ID)
		require.NoError(t, err)
		require.Equal(t, domain.StateSuccess, resp.State)
		require.Nil(t, resp.Token, "lapsed token must not be served")
		require.Nil(t, resp.TokenExpiresAt)
	})

	t.Run("confirm works from pending without a scan", func(t *testing.T) {
		f := newFixture(t)
		f.provision(t, "alice")
		created := f.create(t)

		require.NoError(t, f.svc.Confirm(ctx, created.ID, "alice", "mobile-app"))
	})

	t.Run("loses cleanly against an earlier reject", func(t *testing.T) {
		f := newFixture(t)
		f.provision(t, "alice")
		created := f.create(t)

		require.NoError(t, f.svc.Reject(ctx, created.ID))
		err := f.svc.Confirm(ctx, created.ID, "alice", "mobile-app")
		require.ErrorIs(t, err, ErrInvalidTransition)

		// A rejected session never acquires a token.
		h, err := f.store.Handshakes().Get(ctx, created.ID)
		require.NoError(t, err)
		require.Equal(t, domain.StateRejected, h.State)
		require.Nil(t, h.Token)
	})

	t.Run("second confirm loses against the first", func(t *testing.T) {
		f := newFixture(t)
		f.provision(t, "alice")
		f.provision(t, "bob")
		created := f.create(t)

		require.NoError(t, f.svc.Confirm(ctx, created.ID, "alice", "mobile-app"))

		err := f.svc.Confirm(ctx, created.ID, "bob", "mobile-app")
		require.ErrorIs(t, err, ErrInvalidTransition)

		// The binding from the winning confirm is untouched.
		resp, err := f.svc.Status(ctx, created.ID)
		require.NoError(t, err)
		require.Equal(t, domain.StateSuccess, resp.State)
	})

	t.Run("expired session cannot be confirmed", func(t *testing.T) {
		f := newFixture(t)
		f.provision(t, "alice")
		created := f.create(t)

		f.clock.Advance(DefaultSessionTTL + time.Second)

		err := f.svc.Confirm(ctx, created.ID, "alice", "mobile-app")
		require.ErrorIs(t, err, ErrNotFoundOrExpired)

		h, err := f.store.Handshakes().Get(ctx, created.ID)
		require.NoError(t, err)
		require.Nil(t, h.Token, "expired session must never yield a token")
	})
}

func TestConfirmBanRecheck(t *testing.T) {
	ctx := context.Background()

	t.Run("by default a post-creation ban does not block confirm", func(t *testing.T) {
		f := newFixture(t)
		f.provision(t, "alice")
		created := f.create(t)

		_, err := f.bans.Ban(ctx, domain.BanKindIP, "203.0.113.5", nil)
		require.NoError(t, err)

		require.NoError(t, f.svc.Confirm(ctx, created.ID, "alice", "mobile-app"))
	})

	t.Run("recheck closes the window when enabled", func(t *testing.T) {
		f := newFixture(t)
		f.svc.RecheckBansOnConfirm = true
		f.provision(t, "alice")
		created := f.create(t)

		_, err := f.bans.Ban(ctx, domain.BanKindIP, "203.0.113.5", nil)
		require.NoError(t, err)

		err = f.svc.Confirm(ctx, created.ID, "alice", "mobile-app")
		require.ErrorIs(t, err, ErrBanned)
	})
}

func TestReject(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects from pending and scanned", func(t *testing.T) {
		f := newFixture(t)

		first := f.create(t)
		require.NoError(t, f.svc.Reject(ctx, first.ID))

		second := f.create(t)
		require.NoError(t, f.svc.Scan(ctx, second.ID))
		require.NoError(t, f.svc.Reject(ctx, second.ID))
	})

	t.Run("reject after confirm is a lost race", func(t *testing.T) {
		f := newFixture(t)
		f.provision(t, "alice")
		created := f.create(t)

		require.NoError(t, f.svc.Confirm(ctx, created.ID, "alice", "mobile-app"))
		require.ErrorIs(t, f.svc.Reject(ctx, created.ID), ErrInvalidTransition)
	})
}

func TestEndToEndScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.provision(t, "alice")

	created, err := f.svc.Create(ctx, "203.0.113.5", "")
	require.NoError(t, err)
	require.Equal(t, f.clock.Now().Add(300*time.Second), created.ExpiresAt)

	resp, err := f.svc.Status(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatePending, resp.State)

	require.NoError(t, f.svc.Scan(ctx, created.ID))

	resp, err = f.svc.Status(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StateScanned, resp.State)

	require.NoError(t, f.svc.Confirm(ctx, created.ID, "alice", "mobile-app"))

	resp, err = f.svc.Status(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StateSuccess, resp.State)
	require.NotNil(t, resp.Token)
	token := *resp.Token
	require.WithinDuration(t, f.clock.Now().Add(300*time.Second), *resp.TokenExpiresAt, time.Second)

	// Polling again inside the window returns the same token.
	f.clock.Advance(time.Minute)
	resp, err = f.svc.Status(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, token, *resp.Token)

	// After the token window the session reports no usable token.
	f.clock.Advance(5 * time.Minute)
	resp, err = f.svc.Status(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StateSuccess, resp.State)
	require.Nil(t, resp.Token)
}
