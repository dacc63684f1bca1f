package session

import (
	"context"

	"github.com/jrsteele09/campaign-tracker/auth"
	cterrors "github.com/jrsteele09/campaign-tracker/internal/errors"
	"github.com/jrsteele09/campaign-tracker/internal/utils"
	"github.com/pkg/errors"
)

// Authenticate restores a session from persisted credentials or the refresh
// cookie. Concurrent callers share one attempt. Not finding a session is not
// an error; only the caller's own cancellation is returned.
func (s *Store) Authenticate(ctx context.Context) error {
	if s.Snapshot().IsAuthenticated {
		return nil
	}

	ch := s.flights.DoChan(authenticateKey, func() (any, error) {
		actx, cancel := detach(ctx, s.refreshTimeout)
		defer cancel()
		s.authenticate(actx)
		return nil, nil
	})
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) authenticate(ctx context.Context) {
	if s.Snapshot().IsAuthenticated {
		return
	}
	s.beginAuthenticating()
	defer s.endAuthenticating()

	creds, err := s.repo.Load(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to load persisted credentials")
		creds = nil
	}

	if creds != nil && creds.AccessToken != "" {
		me, err := s.api.Me(ctx, creds.AccessToken)
		if err == nil && me.User != nil {
			expiry := creds.Expiry
			if expiry.IsZero() {
				expiry = auth.TokenExpiry(creds.AccessToken)
			}
			s.establish(ctx, creds.AccessToken, creds.RefreshToken, me.User, expiry)
			s.metrics.AuthOperation(OpAuthenticate, nil)
			s.logger.Debug().Str("username", me.User.Username).Msg("restored session from stored access token")
			return
		}
		s.logger.Debug().Err(err).Msg("stored access token rejected, trying refresh")
	}

	if creds != nil && creds.RefreshToken != "" {
		s.update(func(st *State) {
			if st.AccessToken == "" {
				st.RefreshToken = creds.RefreshToken
			}
		})
	}

	err = s.joinRefresh(ctx, "")
	s.metrics.AuthOperation(OpAuthenticate, err)
	if err != nil {
		s.logger.Debug().Err(err).Msg("no session to restore")
		return
	}
	s.logger.Debug().Msg("restored session via refresh")
}

// Login replaces the session with a fresh one. On any failure the session is
// cleared and the returned *AuthError carries a displayable message.
func (s *Store) Login(ctx context.Context, username, password string) error {
	s.beginAuthenticating()
	defer s.endAuthenticating()

	resp, err := s.api.Login(ctx, username, password)
	if err == nil {
		err = validateSession(resp)
	}
	s.metrics.AuthOperation(OpLogin, err)
	if err != nil {
		authErr := newAuthError(OpLogin, err, "Login failed")
		s.logger.Info().Err(err).Str("username", username).Msg("login failed")
		s.clear(ctx, authErr.Message)
		return authErr
	}

	s.establish(ctx, utils.Value(resp.AccessToken), utils.Value(resp.RefreshToken), resp.User, resp.Expiry())
	s.logger.Info().Str("username", resp.User.Username).Msg("logged in")
	return nil
}

// Register creates an account. When the server also starts a session the
// store adopts it; otherwise the session is left as it was.
func (s *Store) Register(ctx context.Context, username, password string) error {
	s.beginAuthenticating()
	defer s.endAuthenticating()

	resp, err := s.api.Register(ctx, username, password)
	s.metrics.AuthOperation(OpRegister, err)
	if err != nil {
		authErr := newAuthError(OpRegister, err, "Registration failed")
		s.logger.Info().Err(err).Str("username", username).Msg("registration failed")
		s.update(func(st *State) {
			st.AuthError = authErr.Message
		})
		return authErr
	}

	if resp.HasAccessToken() && resp.User != nil {
		s.establish(ctx, utils.Value(resp.AccessToken), utils.Value(resp.RefreshToken), resp.User, resp.Expiry())
		s.logger.Info().Str("username", resp.User.Username).Msg("registered and logged in")
		return nil
	}
	s.update(func(st *State) {
		st.AuthError = ""
	})
	s.logger.Info().Str("username", username).Msg("registered")
	return nil
}

// Logout clears the local session before telling the server. The server
// call is best effort and its failure is only logged.
func (s *Store) Logout(ctx context.Context) {
	snap := s.Snapshot()
	s.clear(ctx, "")

	lctx, cancel := detach(ctx, s.logoutTimeout)
	defer cancel()
	err := s.api.Logout(lctx, snap.AccessToken, snap.RefreshToken)
	s.metrics.AuthOperation(OpLogout, err)
	if err != nil {
		s.logger.Warn().Err(err).Msg("server logout failed, local session already cleared")
		return
	}
	s.logger.Info().Msg("logged out")
}

// beginAuthenticating marks an auth operation as running and drops the
// previous operation's error message.
func (s *Store) beginAuthenticating() {
	s.update(func(st *State) {
		st.Authenticating = true
		st.AuthError = ""
	})
}

func (s *Store) endAuthenticating() {
	s.update(func(st *State) {
		st.Authenticating = false
	})
}

func validateSession(resp *auth.Response) error {
	switch {
	case !resp.HasAccessToken():
		return errors.Wrap(cterrors.ErrMalformedAuthResponse, "missing accessToken")
	case resp.User == nil:
		return errors.Wrap(cterrors.ErrMalformedAuthResponse, "missing user")
	}
	return nil
}
