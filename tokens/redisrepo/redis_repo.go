// Package redisrepo shares credentials between processes through Redis.
package redisrepo

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jrsteele09/campaign-tracker/tokens"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

var _ tokens.Repo = (*Repo)(nil)

type Repo struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

type Option func(*Repo)

// WithTTL expires stored credentials after ttl. Zero keeps them forever.
func WithTTL(ttl time.Duration) Option {
	return func(r *Repo) {
		r.ttl = ttl
	}
}

// New stores credentials under "<prefix>:credentials:<profile>".
func New(client *redis.Client, prefix, profile string, options ...Option) (*Repo, error) {
	if client == nil {
		return nil, errors.New("[redisrepo.New] redis client is required")
	}
	if profile == "" {
		return nil, errors.New("[redisrepo.New] profile is required")
	}
	r := &Repo{client: client, key: Key(prefix, profile)}
	for _, opt := range options {
		opt(r)
	}
	return r, nil
}

// Key returns the redis key used for profile.
func Key(prefix, profile string) string {
	if prefix == "" {
		return "credentials:" + profile
	}
	return prefix + ":credentials:" + profile
}

func (r *Repo) Load(ctx context.Context) (*tokens.Credentials, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "[redisrepo.Load] get")
	}
	var creds tokens.Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, errors.Wrapf(err, "[redisrepo.Load] decode %s", r.key)
	}
	if creds.Empty() {
		return nil, nil
	}
	return &creds, nil
}

func (r *Repo) Save(ctx context.Context, creds *tokens.Credentials) error {
	if creds.Empty() {
		return r.Clear(ctx)
	}
	data, err := json.Marshal(creds)
	if err != nil {
		return errors.Wrap(err, "[redisrepo.Save] encode")
	}
	if err := r.client.Set(ctx, r.key, data, r.ttl).Err(); err != nil {
		return errors.Wrap(err, "[redisrepo.Save] set")
	}
	return nil
}

func (r *Repo) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return errors.Wrap(err, "[redisrepo.Clear] del")
	}
	return nil
}
