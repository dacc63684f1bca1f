package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/campaign-tracker/internal/utils"
)

// User identifies the account a session belongs to.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Response is the body returned by the /auth endpoints. Which fields are
// present depends on the endpoint and on whether the server keeps the refresh
// token in an httpOnly cookie.
type Response struct {
	// Status is a free-form status string ("ok", "success").
	Status string `json:"status,omitempty"`

	// Message is a human readable explanation, mostly present on failures.
	Message string `json:"message,omitempty"`

	// User is the account the tokens were issued for.
	User *User `json:"user,omitempty"`

	// AccessToken is the short-lived bearer credential.
	AccessToken *string `json:"accessToken,omitempty"`

	// RefreshToken is only returned when the server does not use a cookie.
	RefreshToken *string `json:"refreshToken,omitempty"`

	// ExpiresAt is the access token expiry as a unix timestamp (seconds or milliseconds).
	ExpiresAt *int64 `json:"expiresAt,omitempty"`
}

// HasAccessToken reports whether the response carries a usable session.
func (r *Response) HasAccessToken() bool {
	return r != nil && utils.Value(r.AccessToken) != ""
}

// Expiry returns when the access token expires: the explicit expiresAt when
// sent, otherwise the token's own exp claim, otherwise the zero time.
func (r *Response) Expiry() time.Time {
	if r == nil {
		return time.Time{}
	}
	if r.ExpiresAt != nil && *r.ExpiresAt > 0 {
		// Millisecond timestamps are 13 digits until the year 2286.
		if *r.ExpiresAt > 1_000_000_000_000 {
			return time.UnixMilli(*r.ExpiresAt)
		}
		return time.Unix(*r.ExpiresAt, 0)
	}
	return TokenExpiry(utils.Value(r.AccessToken))
}

// TokenExpiry reads the exp claim of a JWT access token without verifying
// it. Opaque or malformed tokens yield the zero time.
func TokenExpiry(accessToken string) time.Time {
	if accessToken == "" {
		return time.Time{}
	}
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, &claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}
