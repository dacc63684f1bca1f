package session_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/campaign-tracker/apiclient"
	"github.com/jrsteele09/campaign-tracker/auth"
	"github.com/jrsteele09/campaign-tracker/internal/apifake"
	cterrors "github.com/jrsteele09/campaign-tracker/internal/errors"
	"github.com/jrsteele09/campaign-tracker/internal/metrics"
	"github.com/jrsteele09/campaign-tracker/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const concurrentRequests = 10

func waitForRefreshInFlight(t *testing.T, f *fixture) {
	t.Helper()
	require.Eventually(t, func() bool {
		return f.server.Calls(apifake.RouteRefresh) == 1 && f.store.Snapshot().RefreshInFlight
	}, 2*time.Second, 5*time.Millisecond)
}

func TestRefreshOnUnauthorized(t *testing.T) {
	f := newFixture(t, nil)
	f.login(t)
	before := f.store.Snapshot()
	f.server.ExpireAccessTokens()

	require.NoError(t, f.data.Get(context.Background(), "/journal", nil))

	after := f.store.Snapshot()
	require.True(t, after.IsAuthenticated)
	require.NotEqual(t, before.AccessToken, after.AccessToken)
	require.NotEqual(t, before.RefreshToken, after.RefreshToken, "rotated refresh token is kept")
	require.False(t, after.RefreshInFlight)
	require.Equal(t, 2, f.server.Calls(apifake.RouteJournalList))

	creds, err := f.repo.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, after.AccessToken, creds.AccessToken)
	require.Equal(t, after.RefreshToken, creds.RefreshToken)
}

func TestConcurrentUnauthorizedShareOneRefresh(t *testing.T) {
	f := newFixture(t, nil)
	f.login(t)
	f.server.ExpireAccessTokens()
	release := f.server.HoldRefresh()
	defer release()

	done := make(chan []error)
	go func() {
		done <- f.fetchConcurrently(context.Background(), concurrentRequests)
	}()

	waitForRefreshInFlight(t, f)
	release()

	for _, err := range <-done {
		require.NoError(t, err)
	}
	require.Equal(t, 1, f.server.Calls(apifake.RouteRefresh))
	require.LessOrEqual(t, f.server.Calls(apifake.RouteJournalList), 2*concurrentRequests)
	require.True(t, f.store.Snapshot().IsAuthenticated)
}

func TestConcurrentUnauthorizedWithFailingRefresh(t *testing.T) {
	f := newFixture(t, nil)
	f.login(t)
	f.server.ExpireAccessTokens()
	f.server.SetFailRefresh(true)
	release := f.server.HoldRefresh()
	defer release()

	done := make(chan []error)
	go func() {
		done <- f.fetchConcurrently(context.Background(), concurrentRequests)
	}()

	waitForRefreshInFlight(t, f)
	release()

	for _, err := range <-done {
		require.True(t, apiclient.IsUnauthorized(err), "got %v", err)
	}
	require.Equal(t, 1, f.server.Calls(apifake.RouteRefresh))

	snap := f.store.Snapshot()
	require.False(t, snap.IsAuthenticated)
	require.Empty(t, snap.RefreshToken)
	require.Nil(t, snap.User)

	creds, err := f.repo.Load(context.Background())
	require.NoError(t, err)
	require.Nil(t, creds)
}

func TestNoRefreshAfterSessionCleared(t *testing.T) {
	f := newFixture(t, nil)
	f.login(t)
	f.server.ExpireAccessTokens()
	f.server.SetFailRefresh(true)

	err := f.data.Get(context.Background(), "/journal", nil)
	require.True(t, apiclient.IsUnauthorized(err))
	require.Equal(t, 1, f.server.Calls(apifake.RouteRefresh))

	err = f.data.Get(context.Background(), "/journal", nil)
	require.True(t, apiclient.IsUnauthorized(err))
	require.Equal(t, 1, f.server.Calls(apifake.RouteRefresh), "logged out requests do not refresh")
}

func TestRefreshWithStaleTokenIsSkipped(t *testing.T) {
	f := newFixture(t, nil)
	f.login(t)
	stale := f.store.AccessToken()
	f.server.ExpireAccessTokens()

	require.NoError(t, f.store.RefreshAfterUnauthorized(context.Background(), stale))
	require.Equal(t, 1, f.server.Calls(apifake.RouteRefresh))

	require.NoError(t, f.store.RefreshAfterUnauthorized(context.Background(), stale))
	require.Equal(t, 1, f.server.Calls(apifake.RouteRefresh), "token already replaced")
}

func TestRefreshWithoutSession(t *testing.T) {
	f := newFixture(t, nil)

	err := f.store.RefreshAfterUnauthorized(context.Background(), "whatever")
	require.ErrorIs(t, err, cterrors.ErrNotAuthenticated)
	require.Zero(t, f.server.Calls(apifake.RouteRefresh))
}

func TestWaiterCancellationDoesNotAbortRefresh(t *testing.T) {
	f := newFixture(t, nil)
	f.login(t)
	f.server.ExpireAccessTokens()
	release := f.server.HoldRefresh()
	defer release()

	impatientCtx, cancel := context.WithCancel(context.Background())
	impatient := make(chan error, 1)
	go func() {
		impatient <- f.data.Get(impatientCtx, "/journal", nil)
	}()
	waitForRefreshInFlight(t, f)

	patient := make(chan error, 1)
	go func() {
		patient <- f.data.Get(context.Background(), "/journal", nil)
	}()

	cancel()
	select {
	case err := <-impatient:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled waiter did not return")
	}
	require.True(t, f.store.Snapshot().RefreshInFlight)

	release()
	require.NoError(t, <-patient)
	require.True(t, f.store.Snapshot().IsAuthenticated)
	require.Equal(t, 1, f.server.Calls(apifake.RouteRefresh))
}

func TestRefreshTimeoutClearsSession(t *testing.T) {
	f := newFixture(t, nil)
	f.store = f.newStore(t, session.WithRefreshTimeout(50*time.Millisecond))
	f.data = f.api.WithCredentials(f.store)
	f.login(t)
	f.server.ExpireAccessTokens()
	release := f.server.HoldRefresh()
	defer release()

	err := f.data.Get(context.Background(), "/journal", nil)
	require.True(t, apiclient.IsUnauthorized(err))
	require.False(t, f.store.Snapshot().IsAuthenticated)
}

func TestLoginDuringRefreshWins(t *testing.T) {
	f := newFixture(t, nil)
	f.login(t)
	f.server.ExpireAccessTokens()
	release := f.server.HoldRefresh()
	defer release()

	result := make(chan error, 1)
	go func() {
		result <- f.data.Get(context.Background(), "/journal", nil)
	}()
	waitForRefreshInFlight(t, f)

	require.NoError(t, f.store.Login(context.Background(), username, password))
	fresh := f.store.AccessToken()
	release()

	require.Error(t, <-result)
	snap := f.store.Snapshot()
	require.True(t, snap.IsAuthenticated)
	require.Equal(t, fresh, snap.AccessToken, "refresh result for the old session is discarded")
}

func TestLogoutDuringRefreshStaysLoggedOut(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	stub := &stubAPI{
		login: func(string, string) (*auth.Response, error) {
			return &auth.Response{AccessToken: strPtr("a1"), RefreshToken: strPtr("r1"), User: &auth.User{Username: username}}, nil
		},
		refresh: func(context.Context, string) (*auth.Response, error) {
			close(started)
			<-release
			return &auth.Response{AccessToken: strPtr("a2"), User: &auth.User{Username: username}}, nil
		},
	}
	store, err := session.NewStore(stub)
	require.NoError(t, err)
	require.NoError(t, store.Login(context.Background(), username, password))

	result := make(chan error, 1)
	go func() {
		result <- store.RefreshAfterUnauthorized(context.Background(), "a1")
	}()
	<-started
	store.Logout(context.Background())
	close(release)

	require.ErrorIs(t, <-result, cterrors.ErrNotAuthenticated)
	require.False(t, store.Snapshot().IsAuthenticated)
	require.Empty(t, store.AccessToken())
}

func TestRefreshKeepsKnownUser(t *testing.T) {
	stub := &stubAPI{
		login: func(string, string) (*auth.Response, error) {
			return &auth.Response{AccessToken: strPtr("a1"), RefreshToken: strPtr("r1"), User: &auth.User{ID: "7", Username: username}}, nil
		},
		refresh: func(_ context.Context, token string) (*auth.Response, error) {
			assert.Equal(t, "r1", token)
			return &auth.Response{AccessToken: strPtr("a2")}, nil
		},
	}
	store, err := session.NewStore(stub)
	require.NoError(t, err)
	require.NoError(t, store.Login(context.Background(), username, password))

	require.NoError(t, store.RefreshAfterUnauthorized(context.Background(), "a1"))
	snap := store.Snapshot()
	require.Equal(t, "a2", snap.AccessToken)
	require.Equal(t, "r1", snap.RefreshToken, "refresh token kept when not rotated")
	require.Equal(t, "7", snap.User.ID)
	require.Zero(t, stub.Calls("me"))
}

func TestRefreshMalformedResponseClearsSession(t *testing.T) {
	stub := &stubAPI{
		login: func(string, string) (*auth.Response, error) {
			return &auth.Response{AccessToken: strPtr("a1"), User: &auth.User{Username: username}}, nil
		},
		refresh: func(context.Context, string) (*auth.Response, error) {
			return &auth.Response{Status: "ok"}, nil
		},
	}
	store, err := session.NewStore(stub)
	require.NoError(t, err)
	require.NoError(t, store.Login(context.Background(), username, password))

	err = store.RefreshAfterUnauthorized(context.Background(), "a1")
	require.ErrorIs(t, err, cterrors.ErrMalformedAuthResponse)
	require.False(t, store.Snapshot().IsAuthenticated)
}

func TestRefreshInFlightObserved(t *testing.T) {
	f := newFixture(t, nil)
	f.login(t)
	f.server.ExpireAccessTokens()

	var mu sync.Mutex
	var flags []bool
	unsubscribe := f.store.Subscribe(func(s session.State) {
		mu.Lock()
		defer mu.Unlock()
		flags = append(flags, s.RefreshInFlight)
	})
	defer unsubscribe()

	require.NoError(t, f.data.Get(context.Background(), "/journal", nil))
	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []bool{true, false}, flags)
}

func TestRefreshMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	recorder := metrics.New(reg)
	f := newFixture(t, nil, session.WithMetrics(recorder))
	f.login(t)
	stale := f.store.AccessToken()
	f.server.ExpireAccessTokens()

	require.NoError(t, f.store.RefreshAfterUnauthorized(context.Background(), stale))
	require.NoError(t, f.store.RefreshAfterUnauthorized(context.Background(), stale))

	require.Equal(t, 1.0, testutil.ToFloat64(recorder.Refreshes.WithLabelValues(metrics.RefreshSucceeded)))
	require.Equal(t, 1.0, testutil.ToFloat64(recorder.Refreshes.WithLabelValues(metrics.RefreshSkipped)))
}
