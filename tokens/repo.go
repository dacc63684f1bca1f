// Package tokens defines how session credentials outlive the process.
package tokens

import (
	"context"
	"time"
)

// Credentials is the persisted part of a session.
type Credentials struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken,omitempty"`
	UserID       string    `json:"userId,omitempty"`
	Username     string    `json:"username,omitempty"`
	Expiry       time.Time `json:"expiry,omitempty"`
}

// Empty reports whether there is nothing worth restoring.
func (c *Credentials) Empty() bool {
	return c == nil || (c.AccessToken == "" && c.RefreshToken == "")
}

// Repo persists the credentials of a single profile.
// Load returns nil, nil when nothing is stored.
type Repo interface {
	Load(ctx context.Context) (*Credentials, error)
	Save(ctx context.Context, creds *Credentials) error
	Clear(ctx context.Context) error
}
