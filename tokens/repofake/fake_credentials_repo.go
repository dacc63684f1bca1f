package repofake

import (
	"context"
	"sync"

	"github.com/jrsteele09/campaign-tracker/tokens"
)

var _ tokens.Repo = (*FakeCredentialsRepo)(nil)

// FakeCredentialsRepo keeps credentials in memory only.
type FakeCredentialsRepo struct {
	creds *tokens.Credentials
	saves int
	lock  sync.RWMutex
}

func NewFakeCredentialsRepo() *FakeCredentialsRepo {
	return &FakeCredentialsRepo{}
}

func (r *FakeCredentialsRepo) Load(_ context.Context) (*tokens.Credentials, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	if r.creds == nil {
		return nil, nil
	}
	c := *r.creds
	return &c, nil
}

func (r *FakeCredentialsRepo) Save(_ context.Context, creds *tokens.Credentials) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.saves++
	if creds.Empty() {
		r.creds = nil
		return nil
	}
	c := *creds
	r.creds = &c
	return nil
}

func (r *FakeCredentialsRepo) Clear(_ context.Context) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.creds = nil
	return nil
}

// Saves returns how many times Save was called.
func (r *FakeCredentialsRepo) Saves() int {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return r.saves
}
