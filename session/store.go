// Package session owns the single authoritative copy of the user's session
// and coordinates token refresh between concurrent requests.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/jrsteele09/campaign-tracker/apiclient"
	"github.com/jrsteele09/campaign-tracker/auth"
	cterrors "github.com/jrsteele09/campaign-tracker/internal/errors"
	"github.com/jrsteele09/campaign-tracker/internal/metrics"
	"github.com/jrsteele09/campaign-tracker/tokens"
	"github.com/jrsteele09/campaign-tracker/tokens/repofake"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

const (
	authenticateKey = "authenticate"
	refreshKey      = "refresh"

	defaultRefreshTimeout = 30 * time.Second
	defaultLogoutTimeout  = 5 * time.Second
)

// AuthAPI is the subset of the auth endpoints the store drives.
type AuthAPI interface {
	Login(ctx context.Context, username, password string) (*auth.Response, error)
	Register(ctx context.Context, username, password string) (*auth.Response, error)
	Me(ctx context.Context, accessToken string) (*auth.Response, error)
	Refresh(ctx context.Context, refreshToken string) (*auth.Response, error)
	Logout(ctx context.Context, accessToken, refreshToken string) error
}

var (
	_ AuthAPI               = (*auth.Client)(nil)
	_ apiclient.Credentials = (*Store)(nil)
	_ oauth2.TokenSource    = (*Store)(nil)
)

// Store is safe for concurrent use. Every mutation happens under one lock and
// observers see a snapshot taken inside that same critical section.
type Store struct {
	api            AuthAPI
	repo           tokens.Repo
	logger         zerolog.Logger
	metrics        *metrics.Recorder
	refreshTimeout time.Duration
	logoutTimeout  time.Duration

	mu        sync.Mutex
	state     State
	epoch     uint64 // bumped whenever the session is replaced or cleared
	observers map[int]func(State)
	nextID    int

	flights   singleflight.Group
	persistMu sync.Mutex
}

type Option func(*Store)

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

func WithMetrics(recorder *metrics.Recorder) Option {
	return func(s *Store) {
		s.metrics = recorder
	}
}

// WithTokenRepo persists credentials so a later process can restore them.
func WithTokenRepo(repo tokens.Repo) Option {
	return func(s *Store) {
		s.repo = repo
	}
}

// WithRefreshTimeout bounds the shared refresh exchange. Zero means no bound.
func WithRefreshTimeout(timeout time.Duration) Option {
	return func(s *Store) {
		s.refreshTimeout = timeout
	}
}

// WithLogoutTimeout bounds the best-effort server logout.
func WithLogoutTimeout(timeout time.Duration) Option {
	return func(s *Store) {
		s.logoutTimeout = timeout
	}
}

func NewStore(api AuthAPI, options ...Option) (*Store, error) {
	if api == nil {
		return nil, errors.New("[session.NewStore] auth api is required")
	}
	s := &Store{
		api:            api,
		repo:           repofake.NewFakeCredentialsRepo(),
		logger:         zerolog.Nop(),
		refreshTimeout: defaultRefreshTimeout,
		logoutTimeout:  defaultLogoutTimeout,
		observers:      make(map[int]func(State)),
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Snapshot returns a copy of the current session.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// AccessToken returns the current access token, or "" when logged out.
func (s *Store) AccessToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.AccessToken
}

// Token exposes the session as an oauth2.TokenSource.
func (s *Store) Token() (*oauth2.Token, error) {
	snap := s.Snapshot()
	if !snap.IsAuthenticated {
		return nil, cterrors.ErrNotAuthenticated
	}
	return &oauth2.Token{
		AccessToken:  snap.AccessToken,
		TokenType:    "Bearer",
		RefreshToken: snap.RefreshToken,
		Expiry:       snap.Expiry,
	}, nil
}

// Subscribe calls fn with a snapshot after every change until unsubscribe is called.
func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.observers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

// update applies fn under the lock and notifies observers with the result.
func (s *Store) update(fn func(st *State)) State {
	s.mu.Lock()
	fn(&s.state)
	s.state.IsAuthenticated = s.state.AccessToken != ""
	snap := s.state.clone()
	observers := make([]func(State), 0, len(s.observers))
	for _, o := range s.observers {
		observers = append(observers, o)
	}
	s.mu.Unlock()

	for _, o := range observers {
		o(snap)
	}
	return snap
}

// resetLocked drops every credential. Callers hold s.mu.
func (s *Store) resetLocked(st *State, authError string) {
	s.epoch++
	*st = State{AuthError: authError, Authenticating: st.Authenticating}
}

// establish replaces the whole session in one critical section.
func (s *Store) establish(ctx context.Context, accessToken, refreshToken string, user *auth.User, expiry time.Time) {
	s.update(func(st *State) {
		s.epoch++
		*st = State{
			AccessToken:    accessToken,
			RefreshToken:   refreshToken,
			User:           user,
			Expiry:         expiry,
			Authenticating: st.Authenticating,
		}
	})
	s.persist(ctx)
}

func (s *Store) clear(ctx context.Context, authError string) {
	s.update(func(st *State) {
		s.resetLocked(st, authError)
	})
	s.forget(ctx)
}

// persist saves the current credentials. Failures only cost the next
// process its restored session, so they are logged.
func (s *Store) persist(ctx context.Context) {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()
	snap := s.Snapshot()
	if !snap.IsAuthenticated {
		return
	}
	if err := s.repo.Save(ctx, snap.credentials()); err != nil {
		s.logger.Warn().Err(err).Msg("failed to persist session credentials")
	}
}

func (s *Store) forget(ctx context.Context) {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()
	if err := s.repo.Clear(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("failed to clear persisted credentials")
	}
}

// detach returns a context that outlives the caller's cancellation but is
// bounded by timeout when timeout > 0.
func detach(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx = context.WithoutCancel(ctx)
	if timeout > 0 {
		return context.WithTimeout(ctx, timeout)
	}
	return context.WithCancel(ctx)
}
