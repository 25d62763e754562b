// Package apiclient is the authenticated request pipeline for the MedAssist REST API.
//
// Every request is decorated with the stored access token. A 401 on a request
// that has not been retried yet triggers one token refresh and one replay; a
// failed refresh ends the session by clearing both stored tokens.
package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/jrsteele09/medassist-client/credentials"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

const (
	// RefreshPath is the token refresh endpoint, relative to the base URL.
	RefreshPath = "/auth/token/refresh/"

	headerAuthorization = "Authorization"
	headerContentType   = "Content-Type"
	headerAccept        = "Accept"
	headerRequestID     = "X-Request-ID"
	contentTypeJSON     = "application/json"

	defaultTimeout = 30 * time.Second
	maxBodyBytes   = 8 << 20
	tracerName     = "github.com/jrsteele09/medassist-client/apiclient"
)

// SessionEndedFunc is called after a failed refresh has cleared the stored session.
type SessionEndedFunc func(ctx context.Context, cause error)

// Client sends requests to the API through the authentication pipeline.
// It is safe for concurrent use.
type Client struct {
	baseURL      string
	store        credentials.Store
	httpClient   *http.Client
	logger       zerolog.Logger
	metrics      *Metrics
	tracer       trace.Tracer
	singleFlight bool
	refreshGroup singleflight.Group

	hookMu         sync.RWMutex
	onSessionEnded SessionEndedFunc
}

type Option func(*Client)

// WithHTTPClient replaces the transport. Its Timeout is left untouched.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-attempt timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func WithMetrics(m *Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Client) {
		c.tracer = tp.Tracer(tracerName)
	}
}

// WithSingleFlight controls whether concurrent 401s share one refresh call (the default)
// or each run their own.
func WithSingleFlight(enabled bool) Option {
	return func(c *Client) {
		c.singleFlight = enabled
	}
}

// WithSessionEndedHook registers fn to observe session teardown.
func WithSessionEndedHook(fn SessionEndedFunc) Option {
	return func(c *Client) {
		c.onSessionEnded = fn
	}
}

// New creates a client for baseURL (for example "https://api.example.com/api").
func New(baseURL string, store credentials.Store, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("[apiclient New] invalid base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("[apiclient New] base URL must be http or https, got %q", baseURL)
	}
	if store == nil {
		return nil, fmt.Errorf("[apiclient New] credential store is required")
	}

	c := &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		store:        store,
		httpClient:   &http.Client{Timeout: defaultTimeout},
		logger:       log.Logger,
		tracer:       otel.GetTracerProvider().Tracer(tracerName),
		singleFlight: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the normalised base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SetSessionEndedHook replaces the teardown hook after construction.
func (c *Client) SetSessionEndedHook(fn SessionEndedFunc) {
	c.hookMu.Lock()
	defer c.hookMu.Unlock()
	c.onSessionEnded = fn
}

func (c *Client) sessionEndedHook() SessionEndedFunc {
	c.hookMu.RLock()
	defer c.hookMu.RUnlock()
	return c.onSessionEnded
}
