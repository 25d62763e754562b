package tokens

import (
	"context"
	"errors"

	"github.com/jrsteele09/medassist-client/credentials"
	"golang.org/x/oauth2"
)

// ErrNoAccessToken is returned by the token source when the store holds no access token.
var ErrNoAccessToken = errors.New("no access token stored")

type storeTokenSource struct {
	ctx   context.Context
	store credentials.Store
}

// TokenSource exposes the stored session as an oauth2.TokenSource so callers can
// build plain *http.Client values with oauth2.NewClient. It never refreshes; the
// apiclient pipeline owns the refresh protocol.
func TokenSource(ctx context.Context, store credentials.Store) oauth2.TokenSource {
	return &storeTokenSource{ctx: ctx, store: store}
}

func (s *storeTokenSource) Token() (*oauth2.Token, error) {
	sess := credentials.LoadSession(s.ctx, s.store)
	if !sess.Authenticated() {
		return nil, ErrNoAccessToken
	}

	t := &oauth2.Token{
		AccessToken:  sess.AccessToken,
		TokenType:    "Bearer",
		RefreshToken: sess.RefreshToken,
	}
	if c, err := Inspect(sess.AccessToken); err == nil {
		t.Expiry = c.ExpiresAt
	}
	return t, nil
}
