package session

import (
	"github.com/jrsteele09/campaign-tracker/apiclient"
	cterrors "github.com/jrsteele09/campaign-tracker/internal/errors"
)

// Operation names carried by AuthError and the auth metrics.
const (
	OpAuthenticate = "authenticate"
	OpLogin        = "login"
	OpRegister     = "register"
	OpLogout       = "logout"
	OpRefresh      = "refresh"
)

// AuthError is returned by Login and Register. Message is what a user
// should see; Err is the underlying cause.
type AuthError struct {
	Op      string
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	if e.Err == nil {
		return e.Op + ": " + e.Message
	}
	return e.Op + ": " + e.Message + ": " + e.Err.Error()
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

func newAuthError(op string, err error, fallback string) *AuthError {
	return &AuthError{Op: op, Message: failureMessage(err, fallback), Err: err}
}

// failureMessage prefers the server's own explanation.
func failureMessage(err error, fallback string) string {
	var reqErr *apiclient.RequestError
	if cterrors.As(err, &reqErr) && reqErr.Message != "" {
		return reqErr.Message
	}
	if cterrors.Is(err, cterrors.ErrMissingCredentials) {
		return cterrors.ErrMissingCredentials.Error()
	}
	return fallback
}
