package credentials_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/jrsteele09/medassist-client/credentials"
	credentialsrepofake "github.com/jrsteele09/medassist-client/credentials/repofake"
	apperrors "github.com/jrsteele09/medassist-client/internal/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestLookupTreatsUnavailableStoreAsNoToken(t *testing.T) {
	ctx := context.Background()
	repo := credentialsrepofake.NewFakeCredentialRepo()
	require.NoError(t, repo.Set(ctx, credentials.AccessToken, "A"))

	repo.SetUnavailable(true)
	require.Empty(t, credentials.Lookup(ctx, repo, credentials.AccessToken))
	require.False(t, credentials.LoadSession(ctx, repo).Authenticated())

	repo.SetUnavailable(false)
	require.Equal(t, "A", credentials.Lookup(ctx, repo, credentials.AccessToken))
}

func TestLookupLogsToContextLogger(t *testing.T) {
	var buf bytes.Buffer
	ctx := zerolog.New(&buf).WithContext(context.Background())
	repo := credentialsrepofake.NewFakeCredentialRepo()

	require.Empty(t, credentials.Lookup(ctx, repo, credentials.AccessToken))
	require.Empty(t, buf.String(), "absence is not logged")

	repo.SetUnavailable(true)
	require.Empty(t, credentials.Lookup(ctx, repo, credentials.AccessToken))
	require.Contains(t, buf.String(), "credential store read failed")
	require.Contains(t, buf.String(), `"credential":"auth_token"`)
}

func TestLookupNilStore(t *testing.T) {
	require.Empty(t, credentials.Lookup(context.Background(), nil, credentials.AccessToken))
}

func TestSaveSessionKeepsRefreshTokenWhenAbsent(t *testing.T) {
	ctx := context.Background()
	repo := credentialsrepofake.NewFakeCredentialRepo()
	require.NoError(t, credentials.SaveSession(ctx, repo, credentials.Session{AccessToken: "A1", RefreshToken: "R1"}))
	require.NoError(t, credentials.SaveSession(ctx, repo, credentials.Session{AccessToken: "A2"}))

	sess := credentials.LoadSession(ctx, repo)
	require.True(t, sess.Authenticated())
	require.Equal(t, credentials.Session{AccessToken: "A2", RefreshToken: "R1"}, sess)
}

func TestDestroySessionReportsBackendFailure(t *testing.T) {
	ctx := context.Background()
	repo := credentialsrepofake.NewFakeCredentialRepo()
	repo.SetUnavailable(true)

	err := credentials.DestroySession(ctx, repo)
	require.ErrorIs(t, err, apperrors.ErrStoreUnavailable)
}
