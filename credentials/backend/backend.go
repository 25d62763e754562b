// Package backend opens the credentials.Store selected by configuration.
package backend

import (
	"context"
	"fmt"

	"github.com/jrsteele09/medassist-client/credentials"
	"github.com/jrsteele09/medassist-client/credentials/filestore"
	credentialsrepofake "github.com/jrsteele09/medassist-client/credentials/repofake"
	"github.com/jrsteele09/medassist-client/credentials/redisstore"
	"github.com/jrsteele09/medassist-client/credentials/sqlitestore"
	"github.com/jrsteele09/medassist-client/internal/config"
	apperrors "github.com/jrsteele09/medassist-client/internal/errors"
	"github.com/redis/go-redis/v9"
)

const (
	File   = "file"
	Redis  = "redis"
	SQLite = "sqlite"
	Memory = "memory"
)

// Open returns the configured store and a function releasing its resources.
func Open(ctx context.Context, cfg config.StoreConfig) (credentials.Store, func() error, error) {
	noop := func() error { return nil }

	switch cfg.GetStoreBackend() {
	case File, "":
		s, err := filestore.New(cfg.GetStorePath(), filestore.WithPassphrase(cfg.GetStorePassphrase()))
		if err != nil {
			return nil, nil, err
		}
		return s, noop, nil
	case Redis:
		rdb := redis.NewClient(&redis.Options{Addr: cfg.GetRedisAddr()})
		s := redisstore.New(rdb,
			redisstore.WithPrefix(cfg.GetRedisPrefix()),
			redisstore.WithRefreshTokenTTL(cfg.GetRefreshTokenTTL()),
		)
		return s, s.Close, nil
	case SQLite:
		s, err := sqlitestore.Open(ctx, cfg.GetSQLitePath())
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case Memory:
		return credentialsrepofake.NewFakeCredentialRepo(), noop, nil
	default:
		return nil, nil, fmt.Errorf("%w: %q", apperrors.ErrUnsupportedBackend, cfg.GetStoreBackend())
	}
}
