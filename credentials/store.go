// Package credentials persists the two session secrets (access and refresh token)
// and exposes the read semantics the request pipeline depends on: a missing or
// unreachable secret is simply "no token".
package credentials

import (
	"context"

	apperrors "github.com/jrsteele09/medassist-client/internal/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Name identifies a stored secret.
type Name string

const (
	AccessToken  Name = "auth_token"
	RefreshToken Name = "refresh_token"
)

// ErrNotFound is returned by Store.Get when the secret is absent.
var ErrNotFound = apperrors.ErrNotFound

// Store is durable storage for session secrets. Writes are last-write-wins.
type Store interface {
	// Get returns ErrNotFound when name has no value.
	Get(ctx context.Context, name Name) (string, error)
	// Set overwrites unconditionally.
	Set(ctx context.Context, name Name, value string) error
	// Clear removes name. Clearing an absent secret is not an error.
	Clear(ctx context.Context, name Name) error
}

// Lookup reads name and folds every failure into "". Absence is silent,
// an unreachable backend is logged to the context logger, or the global one.
func Lookup(ctx context.Context, s Store, name Name) string {
	if s == nil {
		return ""
	}
	v, err := s.Get(ctx, name)
	if err != nil {
		if !apperrors.Is(err, ErrNotFound) {
			ctxLogger(ctx).Warn().Err(err).Str("credential", string(name)).Msg("credential store read failed, continuing without it")
		}
		return ""
	}
	return v
}

func ctxLogger(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &log.Logger
}
