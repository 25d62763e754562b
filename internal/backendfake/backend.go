// Package backendfake is an in-process stand-in for the MedAssist REST API.
//
// It implements the authentication endpoints for real (bcrypt passwords,
// HS256 access tokens, opaque rotating refresh tokens) and answers every
// other path under /api/ with an echo of the request, provided the caller
// presents a valid bearer token. Tests use its controls to expire tokens
// and break refresh.
package backendfake

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

const (
	defaultAccessTTL  = 5 * time.Minute
	defaultRefreshTTL = 24 * time.Hour
)

// Backend holds the fake API state. It is safe for concurrent use.
type Backend struct {
	mu            sync.Mutex
	secret        []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	rotate        bool
	users         map[int]*User
	nextUserID    int
	refreshTokens map[string]*storedRefreshToken
	issued        []string
	revoked       map[string]bool
	refreshStatus int
	refreshCalls  int
	hits          map[string]int

	router *mux.Router
}

type Option func(*Backend)

func WithAccessTTL(d time.Duration) Option {
	return func(b *Backend) {
		b.accessTTL = d
	}
}

func WithRefreshTTL(d time.Duration) Option {
	return func(b *Backend) {
		b.refreshTTL = d
	}
}

// WithRefreshRotation makes the refresh endpoint issue a new refresh token on every call.
func WithRefreshRotation(rotate bool) Option {
	return func(b *Backend) {
		b.rotate = rotate
	}
}

func WithSecret(secret []byte) Option {
	return func(b *Backend) {
		b.secret = secret
	}
}

func New(opts ...Option) *Backend {
	b := &Backend{
		secret:        []byte("backendfake-signing-secret"),
		accessTTL:     defaultAccessTTL,
		refreshTTL:    defaultRefreshTTL,
		users:         make(map[int]*User),
		refreshTokens: make(map[string]*storedRefreshToken),
		revoked:       make(map[string]bool),
		hits:          make(map[string]int),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.router = b.routes()
	return b
}

// Start serves b on a test server that is closed with the test. It returns the API base URL.
func (b *Backend) Start(t testing.TB) string {
	t.Helper()
	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)
	return srv.URL + "/api"
}

func (b *Backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.router.ServeHTTP(w, r)
}

func (b *Backend) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(b.countHits)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/auth/login/", b.LoginHandler).Methods(http.MethodPost)
	api.HandleFunc("/auth/register/", b.RegisterHandler).Methods(http.MethodPost)
	api.HandleFunc("/auth/token/refresh/", b.RefreshHandler).Methods(http.MethodPost)
	api.Handle("/auth/profile/", b.RequireAuth(http.HandlerFunc(b.ProfileHandler))).Methods(http.MethodGet)
	api.Handle("/auth/profile/", b.RequireAuth(http.HandlerFunc(b.UpdateProfileHandler))).Methods(http.MethodPatch)
	api.PathPrefix("/").Handler(b.RequireAuth(http.HandlerFunc(b.EchoHandler)))
	return r
}

func (b *Backend) countHits(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.hits[r.Method+" "+r.URL.Path]++
		b.mu.Unlock()

		log.Debug().Str("method", r.Method).Str("path", r.URL.Path).Str("request_id", r.Header.Get("X-Request-ID")).Msg("backendfake request")
		next.ServeHTTP(w, r)
	})
}

// ExpireAccessTokens revokes every access token issued so far.
func (b *Backend) ExpireAccessTokens() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, jti := range b.issued {
		b.revoked[jti] = true
	}
}

// RevokeRefreshTokens forgets every refresh token.
func (b *Backend) RevokeRefreshTokens() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refreshTokens = make(map[string]*storedRefreshToken)
}

// FailRefresh makes the refresh endpoint answer status. Zero restores normal behaviour.
func (b *Backend) FailRefresh(status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refreshStatus = status
}

// RefreshCalls reports how many times the refresh endpoint was hit.
func (b *Backend) RefreshCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.refreshCalls
}

// Hits reports how many requests reached method and path, e.g. Hits("GET", "/api/dashboard/").
func (b *Backend) Hits(method, path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[method+" "+path]
}

// RefreshTokens reports the number of live refresh tokens.
func (b *Backend) RefreshTokens() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.refreshTokens)
}
