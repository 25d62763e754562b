package cmd

import (
	"context"
	"time"

	"github.com/jrsteele09/medassist-client/credentials"
	"github.com/jrsteele09/medassist-client/tokens"
	"github.com/spf13/cobra"
	"golang.org/x/oauth2"
)

// tokenStatus describes one stored token without revealing it.
type tokenStatus struct {
	Present   bool       `json:"present"`
	Subject   string     `json:"subject,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Expired   bool       `json:"expired"`
}

type sessionStatus struct {
	BaseURL      string      `json:"base_url"`
	Store        string      `json:"store"`
	AccessToken  tokenStatus `json:"access_token"`
	RefreshToken tokenStatus `json:"refresh_token"`
}

func inspectToken(raw string) tokenStatus {
	if raw == "" {
		return tokenStatus{}
	}
	st := tokenStatus{Present: true}
	claims, err := tokens.Inspect(raw)
	if err != nil {
		// opaque token, nothing more to say
		return st
	}
	st.Subject = claims.Subject
	if !claims.ExpiresAt.IsZero() {
		exp := claims.ExpiresAt.UTC()
		st.ExpiresAt = &exp
		st.Expired = tokens.Expired(raw, 0)
	}
	return st
}

// accessStatus describes the token the oauth2 view of the store hands out.
func accessStatus(tok *oauth2.Token, err error) tokenStatus {
	if err != nil || tok == nil {
		return tokenStatus{}
	}
	st := inspectToken(tok.AccessToken)
	if !tok.Expiry.IsZero() {
		exp := tok.Expiry.UTC()
		st.ExpiresAt = &exp
		st.Expired = !tokens.NowTimeFunc().Before(tok.Expiry)
	}
	return st
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show stored token state",
	Long:  "Reports whether an access and refresh token are stored and, for JWTs, when they expire. Tokens are never printed.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			return printValue(cmd.OutOrStdout(), outputFormat, sessionStatus{
				BaseURL:      a.client.BaseURL(),
				Store:        a.cfg.GetStoreBackend(),
				AccessToken:  accessStatus(tokens.TokenSource(ctx, a.store).Token()),
				RefreshToken: inspectToken(credentials.Lookup(ctx, a.store, credentials.RefreshToken)),
			})
		})
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
