// Package tokenstore picks the credential backend named by configuration.
package tokenstore

import (
	"context"
	"io"

	cterrors "github.com/jrsteele09/campaign-tracker/internal/errors"
	"github.com/jrsteele09/campaign-tracker/internal/config"
	"github.com/jrsteele09/campaign-tracker/tokens"
	"github.com/jrsteele09/campaign-tracker/tokens/filerepo"
	"github.com/jrsteele09/campaign-tracker/tokens/redisrepo"
	"github.com/jrsteele09/campaign-tracker/tokens/repofake"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// NewRepo builds the configured repo. The returned closer releases any
// connection the repo holds and must be called on shutdown.
func NewRepo(ctx context.Context, cfg config.StorageConfig) (tokens.Repo, io.Closer, error) {
	switch cfg.GetTokenStore() {
	case "", config.StoreMemory:
		return repofake.NewFakeCredentialsRepo(), nopCloser{}, nil

	case config.StoreFile:
		repo, err := filerepo.New(cfg.GetTokenFile())
		if err != nil {
			return nil, nil, errors.Wrap(err, "[tokenstore.NewRepo]")
		}
		return repo, nopCloser{}, nil

	case config.StoreRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.GetRedisAddr(),
			Password: cfg.GetRedisPassword(),
			DB:       cfg.GetRedisDB(),
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, errors.Wrapf(err, "[tokenstore.NewRepo] ping redis at %s", cfg.GetRedisAddr())
		}
		repo, err := redisrepo.New(client, cfg.GetRedisKeyPrefix(), cfg.GetProfile(), redisrepo.WithTTL(cfg.GetRedisTTL()))
		if err != nil {
			_ = client.Close()
			return nil, nil, errors.Wrap(err, "[tokenstore.NewRepo]")
		}
		return repo, client, nil
	}
	return nil, nil, errors.Wrapf(cterrors.ErrInvalidConfig, "[tokenstore.NewRepo] unknown token store %q", cfg.GetTokenStore())
}
