package redisrepo_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jrsteele09/campaign-tracker/tokens"
	"github.com/jrsteele09/campaign-tracker/tokens/redisrepo"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisRepoRoundTrip(t *testing.T) {
	ctx := context.Background()
	mr, client := newRedis(t)
	repo, err := redisrepo.New(client, "campaign", "default")
	require.NoError(t, err)

	creds, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Nil(t, creds)

	require.NoError(t, repo.Save(ctx, &tokens.Credentials{AccessToken: "a", RefreshToken: "r", UserID: "u1"}))
	require.True(t, mr.Exists("campaign:credentials:default"))

	creds, err = repo.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, "a", creds.AccessToken)
	require.Equal(t, "u1", creds.UserID)

	require.NoError(t, repo.Clear(ctx))
	require.False(t, mr.Exists("campaign:credentials:default"))
}

func TestRedisRepoProfilesAreIsolated(t *testing.T) {
	ctx := context.Background()
	_, client := newRedis(t)
	work, err := redisrepo.New(client, "campaign", "work")
	require.NoError(t, err)
	home, err := redisrepo.New(client, "campaign", "home")
	require.NoError(t, err)

	require.NoError(t, work.Save(ctx, &tokens.Credentials{AccessToken: "w"}))
	creds, err := home.Load(ctx)
	require.NoError(t, err)
	require.Nil(t, creds)
}

func TestRedisRepoTTL(t *testing.T) {
	ctx := context.Background()
	mr, client := newRedis(t)
	repo, err := redisrepo.New(client, "campaign", "default", redisrepo.WithTTL(time.Hour))
	require.NoError(t, err)

	require.NoError(t, repo.Save(ctx, &tokens.Credentials{AccessToken: "a"}))
	require.Equal(t, time.Hour, mr.TTL(redisrepo.Key("campaign", "default")))

	mr.FastForward(2 * time.Hour)
	creds, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Nil(t, creds)
}

func TestRedisRepoUnavailable(t *testing.T) {
	mr, client := newRedis(t)
	repo, err := redisrepo.New(client, "campaign", "default")
	require.NoError(t, err)
	mr.Close()

	_, err = repo.Load(context.Background())
	require.Error(t, err)
}

func TestKey(t *testing.T) {
	require.Equal(t, "credentials:p", redisrepo.Key("", "p"))
	require.Equal(t, "x:credentials:p", redisrepo.Key("x", "p"))
}
