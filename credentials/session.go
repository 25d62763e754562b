package credentials

import (
	"context"
	"fmt"

	apperrors "github.com/jrsteele09/medassist-client/internal/errors"
)

// Session is the token pair representing an authenticated user.
// An empty AccessToken means the caller is unauthenticated; the RefreshToken
// may outlive an expired access token.
type Session struct {
	AccessToken  string
	RefreshToken string
}

// Authenticated reports whether an access token is present.
func (s Session) Authenticated() bool {
	return s.AccessToken != ""
}

// LoadSession reads both secrets with Lookup semantics.
func LoadSession(ctx context.Context, s Store) Session {
	return Session{
		AccessToken:  Lookup(ctx, s, AccessToken),
		RefreshToken: Lookup(ctx, s, RefreshToken),
	}
}

// SaveSession writes the access token and, when present, the refresh token.
func SaveSession(ctx context.Context, s Store, sess Session) error {
	if err := s.Set(ctx, AccessToken, sess.AccessToken); err != nil {
		return fmt.Errorf("[credentials SaveSession] failed to store access token: %w", err)
	}
	if sess.RefreshToken == "" {
		return nil
	}
	if err := s.Set(ctx, RefreshToken, sess.RefreshToken); err != nil {
		return fmt.Errorf("[credentials SaveSession] failed to store refresh token: %w", err)
	}
	return nil
}

// DestroySession clears both secrets. Both clears are attempted even when the
// first one fails.
func DestroySession(ctx context.Context, s Store) error {
	errAccess := s.Clear(ctx, AccessToken)
	errRefresh := s.Clear(ctx, RefreshToken)
	if err := apperrors.Join(errAccess, errRefresh); err != nil {
		return fmt.Errorf("[credentials DestroySession] %w", err)
	}
	return nil
}
