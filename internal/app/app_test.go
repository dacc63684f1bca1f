package app_test

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/jrsteele09/campaign-tracker/internal/apifake"
	"github.com/jrsteele09/campaign-tracker/internal/app"
	"github.com/jrsteele09/campaign-tracker/internal/config"
	cterrors "github.com/jrsteele09/campaign-tracker/internal/errors"
	"github.com/jrsteele09/campaign-tracker/journal"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func newApp(t *testing.T, overrides map[string]any, opts ...app.Option) *app.App {
	t.Helper()
	cfg, err := config.New(config.WithoutConfigFiles(), config.WithOverrides(overrides))
	require.NoError(t, err)

	a, err := app.New(context.Background(), cfg, append([]app.Option{app.WithLogOutput(&bytes.Buffer{})}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestEndToEnd(t *testing.T) {
	ctx := context.Background()
	server, ts := apifake.NewHTTPTest(t)
	require.NoError(t, server.AddUser("alice", "secret"))
	reg := prometheus.NewRegistry()
	a := newApp(t, map[string]any{"api_url": ts.URL}, app.WithRegisterer(reg))

	require.ErrorIs(t, a.RequireSession(ctx), cterrors.ErrNotAuthenticated)

	require.NoError(t, a.Session.Login(ctx, "alice", "secret"))
	require.NoError(t, a.RequireSession(ctx))

	_, err := a.Journal.Create(ctx, journal.Draft{Title: "Arrival", Day: "1"})
	require.NoError(t, err)

	refreshes := server.Calls(apifake.RouteRefresh)
	server.ExpireAccessTokens()
	require.NoError(t, a.Journal.Reload(ctx))
	require.Len(t, a.Journal.Entries(), 1)
	require.Equal(t, refreshes+1, server.Calls(apifake.RouteRefresh))
	require.Equal(t, 1.0, testutil.ToFloat64(a.Metrics.Refreshes.WithLabelValues("succeeded")))

	a.Session.Logout(ctx)
	require.False(t, a.Session.Snapshot().IsAuthenticated)
	require.ErrorIs(t, a.RequireSession(ctx), app.ErrLoginRequired)
}

func TestSessionSurvivesRestartWithFileStore(t *testing.T) {
	ctx := context.Background()
	server, ts := apifake.NewHTTPTest(t)
	require.NoError(t, server.AddUser("alice", "secret"))
	overrides := map[string]any{
		"api_url":     ts.URL,
		"token_store": config.StoreFile,
		"token_file":  filepath.Join(t.TempDir(), "credentials.json"),
	}

	first := newApp(t, overrides)
	require.NoError(t, first.Session.Login(ctx, "alice", "secret"))

	second := newApp(t, overrides)
	require.NoError(t, second.RequireSession(ctx))
	require.Equal(t, "alice", second.Session.Snapshot().User.Username)

	second.Session.Logout(ctx)
	third := newApp(t, overrides)
	require.ErrorIs(t, third.RequireSession(ctx), app.ErrLoginRequired)
}

func TestNewRequiresConfig(t *testing.T) {
	_, err := app.New(context.Background(), nil)
	require.Error(t, err)
}
