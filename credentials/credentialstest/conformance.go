// Package credentialstest holds behaviour checks shared by every credentials.Store backend.
package credentialstest

import (
	"context"
	"testing"

	"github.com/jrsteele09/medassist-client/credentials"
	"github.com/stretchr/testify/require"
)

// Run exercises the Store contract against a fresh store from newStore.
func Run(t *testing.T, newStore func(t *testing.T) credentials.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("round trip", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Set(ctx, credentials.AccessToken, "A"))

		v, err := s.Get(ctx, credentials.AccessToken)
		require.NoError(t, err)
		require.Equal(t, "A", v)

		require.NoError(t, s.Clear(ctx, credentials.AccessToken))
		_, err = s.Get(ctx, credentials.AccessToken)
		require.ErrorIs(t, err, credentials.ErrNotFound)
	})

	t.Run("absent is not found", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Get(ctx, credentials.RefreshToken)
		require.ErrorIs(t, err, credentials.ErrNotFound)
		require.Empty(t, credentials.Lookup(ctx, s, credentials.RefreshToken))
	})

	t.Run("set overwrites", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Set(ctx, credentials.RefreshToken, "R1"))
		require.NoError(t, s.Set(ctx, credentials.RefreshToken, "R2"))
		require.Equal(t, "R2", credentials.Lookup(ctx, s, credentials.RefreshToken))
	})

	t.Run("clear is idempotent", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Clear(ctx, credentials.AccessToken))
		require.NoError(t, s.Clear(ctx, credentials.AccessToken))
	})

	t.Run("names are independent", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, credentials.SaveSession(ctx, s, credentials.Session{AccessToken: "A", RefreshToken: "R"}))
		require.NoError(t, s.Clear(ctx, credentials.AccessToken))
		require.Equal(t, credentials.Session{RefreshToken: "R"}, credentials.LoadSession(ctx, s))

		require.NoError(t, credentials.DestroySession(ctx, s))
		require.Equal(t, credentials.Session{}, credentials.LoadSession(ctx, s))
	})
}
