package session_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/jrsteele09/campaign-tracker/apiclient"
	"github.com/jrsteele09/campaign-tracker/auth"
	"github.com/jrsteele09/campaign-tracker/internal/apifake"
	"github.com/jrsteele09/campaign-tracker/session"
	"github.com/jrsteele09/campaign-tracker/tokens"
	"github.com/jrsteele09/campaign-tracker/tokens/repofake"
	"github.com/stretchr/testify/require"
)

const (
	username = "alice"
	password = "secret"
)

type fixture struct {
	server *apifake.Server
	ts     *httptest.Server
	api    *apiclient.Client
	repo   *repofake.FakeCredentialsRepo
	store  *session.Store
	data   *apiclient.Client
}

func newFixture(t *testing.T, serverOpts []apifake.Option, storeOpts ...session.Option) *fixture {
	t.Helper()
	server, ts := apifake.NewHTTPTest(t, serverOpts...)
	require.NoError(t, server.AddUser(username, password))

	api, err := apiclient.New(ts.URL)
	require.NoError(t, err)

	f := &fixture{server: server, ts: ts, api: api, repo: repofake.NewFakeCredentialsRepo()}
	f.store = f.newStore(t, storeOpts...)
	f.data = api.WithCredentials(f.store)
	return f
}

// newStore builds another store over the same server, cookie jar and repo,
// as a second process would.
func (f *fixture) newStore(t *testing.T, opts ...session.Option) *session.Store {
	t.Helper()
	authClient, err := auth.NewClient(f.api)
	require.NoError(t, err)
	store, err := session.NewStore(authClient, append([]session.Option{session.WithTokenRepo(f.repo)}, opts...)...)
	require.NoError(t, err)
	return store
}

func (f *fixture) login(t *testing.T) {
	t.Helper()
	require.NoError(t, f.store.Login(context.Background(), username, password))
	require.True(t, f.store.Snapshot().IsAuthenticated)
}

// fetchConcurrently issues n journal reads at once and returns their errors.
func (f *fixture) fetchConcurrently(ctx context.Context, n int) []error {
	errs := make([]error, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			errs[i] = f.data.Get(ctx, "/journal", nil)
		}(i)
	}
	wg.Wait()
	return errs
}

// stubAPI lets a test script the auth endpoints directly.
type stubAPI struct {
	mu       sync.Mutex
	login    func(username, password string) (*auth.Response, error)
	register func(username, password string) (*auth.Response, error)
	me       func(token string) (*auth.Response, error)
	refresh  func(ctx context.Context, token string) (*auth.Response, error)
	logout   func() error
	calls    map[string]int
}

var _ session.AuthAPI = (*stubAPI)(nil)

func (s *stubAPI) count(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.calls == nil {
		s.calls = make(map[string]int)
	}
	s.calls[name]++
}

func (s *stubAPI) Calls(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[name]
}

func (s *stubAPI) Login(_ context.Context, username, password string) (*auth.Response, error) {
	s.count("login")
	return s.login(username, password)
}

func (s *stubAPI) Register(_ context.Context, username, password string) (*auth.Response, error) {
	s.count("register")
	return s.register(username, password)
}

func (s *stubAPI) Me(_ context.Context, token string) (*auth.Response, error) {
	s.count("me")
	return s.me(token)
}

func (s *stubAPI) Refresh(ctx context.Context, token string) (*auth.Response, error) {
	s.count("refresh")
	return s.refresh(ctx, token)
}

func (s *stubAPI) Logout(context.Context, string, string) error {
	s.count("logout")
	if s.logout == nil {
		return nil
	}
	return s.logout()
}

func strPtr(s string) *string {
	return &s
}

type failingRepo struct {
	*repofake.FakeCredentialsRepo
}

func (failingRepo) Save(context.Context, *tokens.Credentials) error {
	return errors.New("disk full")
}
