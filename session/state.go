package session

import (
	"time"

	"github.com/jrsteele09/campaign-tracker/auth"
	"github.com/jrsteele09/campaign-tracker/tokens"
)

// State is a point-in-time copy of the session.
type State struct {
	AccessToken  string
	RefreshToken string
	User         *auth.User
	Expiry       time.Time

	// IsAuthenticated is true exactly when AccessToken is non-empty.
	IsAuthenticated bool

	// AuthError is the message of the last failed login or registration.
	AuthError string

	// Authenticating is true while Authenticate is restoring a session.
	Authenticating bool

	// RefreshInFlight is true while the shared refresh exchange is outstanding.
	RefreshInFlight bool
}

func (s State) clone() State {
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}

func (s State) credentials() *tokens.Credentials {
	creds := &tokens.Credentials{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		Expiry:       s.Expiry,
	}
	if s.User != nil {
		creds.UserID = s.User.ID
		creds.Username = s.User.Username
	}
	return creds
}
