// Package session tracks the signed-in user on top of the authenticated API client.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/jrsteele09/medassist-client/apiclient"
	"github.com/jrsteele09/medassist-client/credentials"
	"github.com/jrsteele09/medassist-client/services"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Manager owns the cached user profile and the stored token pair.
// It is safe for concurrent use.
type Manager struct {
	facade *services.Facade
	store  credentials.Store
	logger zerolog.Logger

	mu   sync.RWMutex
	user *services.User
}

type Option func(*Manager)

func WithLogger(logger zerolog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager wires a manager to client and registers it to hear about session
// teardown, so a failed token refresh also drops the cached user.
func NewManager(client *apiclient.Client, store credentials.Store, opts ...Option) *Manager {
	m := &Manager{
		facade: services.New(client),
		store:  store,
		logger: log.Logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	client.SetSessionEndedHook(m.sessionEnded)
	return m
}

// Services returns the facade the manager sends through.
func (m *Manager) Services() *services.Facade {
	return m.facade
}

// Restore loads the profile when an access token is stored. With no token it
// returns (nil, nil). A failed profile fetch logs the user out.
func (m *Manager) Restore(ctx context.Context) (*services.User, error) {
	if credentials.Lookup(ctx, m.store, credentials.AccessToken) == "" {
		return nil, nil
	}
	u, err := m.RefreshUser(ctx)
	if err != nil {
		return nil, &Error{Op: "restore", Message: msgLoadUserFailed, Err: err}
	}
	return u, nil
}

// Login authenticates and stores the returned token pair.
func (m *Manager) Login(ctx context.Context, email, password string) (*services.User, error) {
	res, err := m.facade.Auth.Login(ctx, email, password)
	if err != nil {
		m.logger.Warn().Err(err).Msg("login failed")
		return nil, &Error{Op: "login", Message: detailMessage(err, msgLoginFailed), Err: err}
	}
	if err := m.begin(ctx, res); err != nil {
		return nil, &Error{Op: "login", Message: msgLoginFailed, Err: err}
	}
	return m.User(), nil
}

// Register creates an account and signs it in. data is sent as the request body.
func (m *Manager) Register(ctx context.Context, data any) (*services.AuthResult, error) {
	res, err := m.facade.Auth.Register(ctx, data)
	if err != nil {
		m.logger.Warn().Err(err).Msg("registration failed")
		return nil, &Error{Op: "register", Message: fieldMessage(err, msgRegistrationFailed), Err: err}
	}
	if err := m.begin(ctx, res); err != nil {
		return nil, &Error{Op: "register", Message: msgRegistrationFailed, Err: err}
	}
	return res, nil
}

// UpdateProfile patches the profile and caches the result.
func (m *Manager) UpdateProfile(ctx context.Context, data any) (*services.User, error) {
	u, err := m.facade.Auth.UpdateProfile(ctx, data)
	if err != nil {
		m.logger.Warn().Err(err).Msg("profile update failed")
		return nil, &Error{Op: "update_profile", Message: fieldMessage(err, msgProfileUpdateFailed), Err: err}
	}
	m.setUser(u)
	return u, nil
}

// RefreshUser refetches the profile. Any failure logs the user out.
func (m *Manager) RefreshUser(ctx context.Context) (*services.User, error) {
	u, err := m.facade.Auth.Profile(ctx)
	if err != nil {
		m.logger.Warn().Err(err).Msg("failed to fetch user profile")
		if logoutErr := m.Logout(ctx); logoutErr != nil {
			m.logger.Error().Err(logoutErr).Msg("logout after profile failure")
		}
		return nil, err
	}
	m.setUser(u)
	return u, nil
}

// Logout clears the stored tokens and the cached user. The user is dropped
// even if the store fails.
func (m *Manager) Logout(ctx context.Context) error {
	m.setUser(nil)
	if err := credentials.DestroySession(ctx, m.store); err != nil {
		m.logger.Error().Err(err).Msg("logout failed")
		return fmt.Errorf("[session Logout] %w", err)
	}
	return nil
}

// User returns the cached profile, nil when signed out.
func (m *Manager) User() *services.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return nil
	}
	u := *m.user
	return &u
}

func (m *Manager) Authenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user != nil
}

func (m *Manager) begin(ctx context.Context, res *services.AuthResult) error {
	sess := credentials.Session{AccessToken: res.Tokens.Access, RefreshToken: res.Tokens.Refresh}
	if err := credentials.SaveSession(ctx, m.store, sess); err != nil {
		m.logger.Error().Err(err).Msg("failed to store session tokens")
		return err
	}
	m.setUser(&res.User)
	m.logger.Info().Str("user_id", string(res.User.ID)).Msg("signed in")
	return nil
}

func (m *Manager) setUser(u *services.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.user = u
}

func (m *Manager) sessionEnded(_ context.Context, cause error) {
	m.setUser(nil)
	m.logger.Info().Err(cause).Msg("signed out after failed token refresh")
}
