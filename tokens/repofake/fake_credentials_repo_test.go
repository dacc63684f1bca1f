package repofake_test

import (
	"context"
	"testing"

	"github.com/jrsteele09/campaign-tracker/tokens"
	"github.com/jrsteele09/campaign-tracker/tokens/repofake"
	"github.com/stretchr/testify/require"
)

func TestFakeCredentialsRepo(t *testing.T) {
	ctx := context.Background()
	repo := repofake.NewFakeCredentialsRepo()

	creds, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Nil(t, creds)

	saved := &tokens.Credentials{AccessToken: "a", RefreshToken: "r", Username: "alice"}
	require.NoError(t, repo.Save(ctx, saved))
	saved.AccessToken = "mutated"

	creds, err = repo.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, "a", creds.AccessToken)
	require.Equal(t, 1, repo.Saves())

	require.NoError(t, repo.Clear(ctx))
	creds, err = repo.Load(ctx)
	require.NoError(t, err)
	require.Nil(t, creds)
}
