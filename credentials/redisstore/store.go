// Package redisstore keeps session secrets in Redis, for deployments where the
// client runs server side (kiosk, integration workers) and several processes
// share one session.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jrsteele09/medassist-client/credentials"
	apperrors "github.com/jrsteele09/medassist-client/internal/errors"
	"github.com/redis/go-redis/v9"
)

var _ credentials.Store = (*Store)(nil)

// Store is a credentials.Store over a redis.UniversalClient.
type Store struct {
	rdb        redis.UniversalClient
	prefix     string
	refreshTTL time.Duration
}

type Option func(*Store)

// WithPrefix namespaces keys as "<prefix>:<name>".
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// WithRefreshTokenTTL expires the stored refresh token after ttl. Zero keeps it forever.
func WithRefreshTokenTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.refreshTTL = ttl
	}
}

func New(rdb redis.UniversalClient, opts ...Option) *Store {
	s := &Store{rdb: rdb, prefix: "medassist"}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) key(name credentials.Name) string {
	return s.prefix + ":" + string(name)
}

func (s *Store) Get(ctx context.Context, name credentials.Name) (string, error) {
	if name == "" {
		return "", apperrors.ErrEmptyCredentialName
	}
	v, err := s.rdb.Get(ctx, s.key(name)).Result()
	if errors.Is(err, redis.Nil) {
		return "", credentials.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrStoreUnavailable, err)
	}
	return v, nil
}

func (s *Store) Set(ctx context.Context, name credentials.Name, value string) error {
	if name == "" {
		return apperrors.ErrEmptyCredentialName
	}
	var ttl time.Duration
	if name == credentials.RefreshToken {
		ttl = s.refreshTTL
	}
	if err := s.rdb.Set(ctx, s.key(name), value, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *Store) Clear(ctx context.Context, name credentials.Name) error {
	if name == "" {
		return apperrors.ErrEmptyCredentialName
	}
	if err := s.rdb.Del(ctx, s.key(name)).Err(); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrStoreUnavailable, err)
	}
	return nil
}

// Close releases the underlying client.
func (s *Store) Close() error {
	return s.rdb.Close()
}
