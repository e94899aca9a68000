package qrlink_test

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	httpapi "github.com/lanternauth/qrlink/internal/qrlink/http"
	"github.com/lanternauth/qrlink/internal/qrlink/service"
	"github.com/lanternauth/qrlink/internal/qrlink/store/drivers/sqlite"
	"github.com/lanternauth/qrlink/pkg/qrsig"
	"github.com/stretchr/testify/require"
)

// testServer is the full service stack behind a real HTTP listener: sqlite
// store, services, router. Tests talk to it exclusively through linksdk.
type testServer struct {
	URL   string
	store *sqlite.Store
	bans  *service.BanService
	dir   *service.DirectoryService
}

// setupServer boots the whole stack on an in-memory store and returns the
// base URL plus handles for seeding bans and directory users.
func setupServer(t *testing.T) *testServer {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bans := &service.BanService{Store: st}
	dir := &service.DirectoryService{Store: st}

	router := httpapi.NewRouter("e2e", st, logger)
	router.HandshakeService = &service.HandshakeService{
		Store:          st,
		Bans:           bans,
		Directory:      dir,
		Signer:         qrsig.NewSigner([]byte("e2e-signing-key-32-bytes-long!!!"), "qrlink-e2e"),
		AllowedSources: []string{"mobile-app", "mobile-web"},
	}
	router.ApplyRoutes()

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &testServer{URL: srv.URL, store: st, bans: bans, dir: dir}
}

// provisionUser seeds a directory user the mobile side can confirm as.
func (s *testServer) provisionUser(t *testing.T, username string) {
	t.Helper()
	_, err := s.dir.Provision(context.Background(), username, username)
	require.NoError(t, err)
}
