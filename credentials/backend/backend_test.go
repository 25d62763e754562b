package backend_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jrsteele09/medassist-client/credentials"
	"github.com/jrsteele09/medassist-client/credentials/backend"
	"github.com/jrsteele09/medassist-client/credentials/filestore"
	"github.com/jrsteele09/medassist-client/credentials/sqlitestore"
	"github.com/jrsteele09/medassist-client/internal/config"
	apperrors "github.com/jrsteele09/medassist-client/internal/errors"
	"github.com/stretchr/testify/require"
)

func settings(t *testing.T, backendName string) config.Config {
	t.Helper()
	dir := t.TempDir()
	return config.New(config.Settings{
		Env: "DEV",
		API: config.APISettings{BaseURL: "http://localhost:8000/api"},
		Store: config.StoreSettings{
			Backend:    backendName,
			Path:       filepath.Join(dir, "credentials.json"),
			SQLitePath: filepath.Join(dir, "credentials.db"),
		},
	})
}

func TestOpenFile(t *testing.T) {
	s, closeFn, err := backend.Open(context.Background(), settings(t, backend.File))
	require.NoError(t, err)
	defer closeFn()
	require.IsType(t, &filestore.Store{}, s)
}

func TestOpenSQLite(t *testing.T) {
	ctx := context.Background()
	s, closeFn, err := backend.Open(ctx, settings(t, backend.SQLite))
	require.NoError(t, err)
	defer closeFn()
	require.IsType(t, &sqlitestore.Store{}, s)

	require.NoError(t, s.Set(ctx, credentials.AccessToken, "A"))
	require.Equal(t, "A", credentials.Lookup(ctx, s, credentials.AccessToken))
}

func TestOpenUnknownBackend(t *testing.T) {
	_, _, err := backend.Open(context.Background(), settings(t, "floppy"))
	require.ErrorIs(t, err, apperrors.ErrUnsupportedBackend)
}
