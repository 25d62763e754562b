package tokens

import (
	"fmt"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	apperrors "github.com/jrsteele09/medassist-client/internal/errors"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Claims is the subset of access token claims the client cares about.
// The client never verifies signatures; it only reads what the backend issued.
type Claims struct {
	Subject   string
	ExpiresAt time.Time
	IssuedAt  time.Time
}

// Inspect parses raw without verifying it. Opaque (non-JWT) tokens return ErrNotJWT.
func Inspect(raw string) (Claims, error) {
	if strings.Count(raw, ".") != 2 {
		return Claims{}, apperrors.ErrNotJWT
	}

	token, _, err := jwtlib.NewParser().ParseUnverified(raw, jwtlib.MapClaims{})
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", apperrors.ErrNotJWT, err)
	}
	claims, ok := token.Claims.(jwtlib.MapClaims)
	if !ok {
		return Claims{}, apperrors.ErrNotJWT
	}

	var c Claims
	c.Subject, _ = claims.GetSubject()
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		c.IssuedAt = iat.Time
	}
	return c, nil
}

// Expired reports whether raw carries an exp claim that is within leeway of now.
// Tokens without a readable exp are never considered expired; the server decides.
func Expired(raw string, leeway time.Duration) bool {
	c, err := Inspect(raw)
	if err != nil || c.ExpiresAt.IsZero() {
		return false
	}
	return !NowTimeFunc().Add(leeway).Before(c.ExpiresAt)
}
