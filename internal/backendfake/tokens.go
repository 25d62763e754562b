package backendfake

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

const refreshTokenBytes = 32

type storedRefreshToken struct {
	Token  string
	UserID int
	Iat    time.Time
}

// createAccessToken mints an HS256 access token for u. Caller holds b.mu.
func (b *Backend) createAccessToken(u *User) (string, error) {
	now := NowTimeFunc()
	jti := uuid.New().String()
	claims := jwtlib.MapClaims{
		"sub":        u.subject(),
		"email":      u.Email,
		"token_type": "access",
		"iat":        now.Unix(),
		"exp":        now.Add(b.accessTTL).Unix(),
		"jti":        jti,
	}

	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(b.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	b.issued = append(b.issued, jti)
	return signed, nil
}

// userForAccessToken validates raw and returns its owner. Caller holds b.mu.
func (b *Backend) userForAccessToken(raw string) (*User, bool) {
	token, err := jwtlib.Parse(raw, func(*jwtlib.Token) (any, error) {
		return b.secret, nil
	},
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithTimeFunc(NowTimeFunc),
		jwtlib.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, false
	}

	claims, ok := token.Claims.(jwtlib.MapClaims)
	if !ok {
		return nil, false
	}
	if jti, _ := claims["jti"].(string); b.revoked[jti] {
		return nil, false
	}
	sub, _ := claims["sub"].(string)
	id, err := strconv.Atoi(sub)
	if err != nil {
		return nil, false
	}
	u, ok := b.users[id]
	return u, ok
}

// createRefreshToken issues an opaque refresh token, replacing any previous
// token of the same user. Caller holds b.mu.
func (b *Backend) createRefreshToken(u *User) (string, error) {
	for tok, rt := range b.refreshTokens {
		if rt.UserID == u.ID {
			delete(b.refreshTokens, tok)
		}
	}

	tokenBytes := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	tokenStr := hex.EncodeToString(tokenBytes)
	b.refreshTokens[tokenStr] = &storedRefreshToken{Token: tokenStr, UserID: u.ID, Iat: NowTimeFunc()}
	return tokenStr, nil
}

// refreshTokenOwner returns the user of a live refresh token. Caller holds b.mu.
func (b *Backend) refreshTokenOwner(token string) (*User, bool) {
	rt, ok := b.refreshTokens[token]
	if !ok {
		return nil, false
	}
	if NowTimeFunc().Sub(rt.Iat) > b.refreshTTL {
		delete(b.refreshTokens, token)
		return nil, false
	}
	u, ok := b.users[rt.UserID]
	return u, ok
}

// issuePair creates a fresh access and refresh token for u. Caller holds b.mu.
func (b *Backend) issuePair(u *User) (map[string]string, error) {
	access, err := b.createAccessToken(u)
	if err != nil {
		return nil, err
	}
	refresh, err := b.createRefreshToken(u)
	if err != nil {
		return nil, err
	}
	return map[string]string{"access": access, "refresh": refresh}, nil
}
