package session

import (
	"context"

	"github.com/jrsteele09/campaign-tracker/auth"
	cterrors "github.com/jrsteele09/campaign-tracker/internal/errors"
	"github.com/jrsteele09/campaign-tracker/internal/metrics"
	"github.com/jrsteele09/campaign-tracker/internal/utils"
	"github.com/pkg/errors"
)

// RefreshAfterUnauthorized recovers from a 401 on a request that carried
// staleToken. If another caller already replaced that token the call
// succeeds without touching the network; otherwise it joins the single
// refresh in flight, starting one if needed. A failed refresh clears the
// session. ctx only bounds how long this caller waits.
func (s *Store) RefreshAfterUnauthorized(ctx context.Context, staleToken string) error {
	snap := s.Snapshot()
	switch {
	case snap.AccessToken == "":
		return errors.Wrap(cterrors.ErrNotAuthenticated, "[session.RefreshAfterUnauthorized]")
	case snap.AccessToken != staleToken:
		s.metrics.Refresh(metrics.RefreshSkipped)
		return nil
	case snap.RefreshInFlight:
		s.metrics.RefreshWaiter()
	}
	return s.joinRefresh(ctx, staleToken)
}

// joinRefresh runs or waits for the shared refresh. The exchange itself is
// detached from ctx so one impatient caller cannot fail it for everyone.
func (s *Store) joinRefresh(ctx context.Context, staleToken string) error {
	ch := s.flights.DoChan(refreshKey, func() (any, error) {
		rctx, cancel := detach(ctx, s.refreshTimeout)
		defer cancel()
		return nil, s.refresh(rctx, staleToken)
	})
	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// refresh performs one refresh exchange for a session whose access token is
// staleToken ("" when restoring). Results are only applied if nothing else
// replaced the session in the meantime.
func (s *Store) refresh(ctx context.Context, staleToken string) error {
	var (
		skip, gone   bool
		epoch        uint64
		refreshToken string
		knownUser    *auth.User
	)
	s.update(func(st *State) {
		if st.AccessToken != staleToken {
			skip = true
			gone = st.AccessToken == ""
			return
		}
		epoch = s.epoch
		refreshToken = st.RefreshToken
		knownUser = st.User
		st.RefreshInFlight = true
	})
	if gone {
		return errors.Wrap(cterrors.ErrNotAuthenticated, "[session.refresh]")
	}
	if skip {
		s.metrics.Refresh(metrics.RefreshSkipped)
		return nil
	}

	resp, user, err := s.exchange(ctx, refreshToken, knownUser)

	var superseded bool
	s.update(func(st *State) {
		st.RefreshInFlight = false
		if s.epoch != epoch {
			superseded = true
			return
		}
		if err != nil {
			s.resetLocked(st, "")
			return
		}
		st.AccessToken = utils.Value(resp.AccessToken)
		if rotated := utils.Value(resp.RefreshToken); rotated != "" {
			st.RefreshToken = rotated
		}
		st.User = user
		st.Expiry = resp.Expiry()
		st.AuthError = ""
	})

	switch {
	case superseded:
		s.metrics.Refresh(metrics.RefreshSkipped)
		s.logger.Debug().Msg("session replaced during refresh, discarding result")
		return errors.Wrap(cterrors.ErrNotAuthenticated, "[session.refresh] session replaced")
	case err != nil:
		s.metrics.Refresh(metrics.RefreshFailed)
		s.logger.Info().Err(err).Msg("token refresh failed, session cleared")
		s.forget(ctx)
		return errors.Wrap(err, "[session.refresh]")
	}
	s.metrics.Refresh(metrics.RefreshSucceeded)
	s.logger.Debug().Time("expiry", resp.Expiry()).Msg("access token refreshed")
	s.persist(ctx)
	return nil
}

// exchange calls /auth/refresh and, when the response names no user and none
// is known yet, resolves it with /auth/me.
func (s *Store) exchange(ctx context.Context, refreshToken string, knownUser *auth.User) (*auth.Response, *auth.User, error) {
	resp, err := s.api.Refresh(ctx, refreshToken)
	if err != nil {
		return nil, nil, err
	}
	if !resp.HasAccessToken() {
		return nil, nil, errors.Wrap(cterrors.ErrMalformedAuthResponse, "refresh response has no accessToken")
	}
	if resp.User != nil {
		return resp, resp.User, nil
	}
	if knownUser != nil {
		return resp, knownUser, nil
	}
	me, err := s.api.Me(ctx, utils.Value(resp.AccessToken))
	if err != nil {
		return nil, nil, err
	}
	if me.User == nil {
		return nil, nil, errors.Wrap(cterrors.ErrMalformedAuthResponse, "me response has no user")
	}
	return resp, me.User, nil
}
