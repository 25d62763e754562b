package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/jrsteele09/medassist-client/apiclient"
	"github.com/jrsteele09/medassist-client/credentials"
	"github.com/jrsteele09/medassist-client/credentials/backend"
	"github.com/jrsteele09/medassist-client/internal/config"
	"github.com/jrsteele09/medassist-client/internal/logging"
	"github.com/jrsteele09/medassist-client/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// app is everything a command needs, built from configuration.
type app struct {
	cfg      config.Config
	store    credentials.Store
	client   *apiclient.Client
	session  *session.Manager
	registry *prometheus.Registry
	tracer   *sdktrace.TracerProvider

	closeStore func() error
}

func openApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	logging.Setup(cfg.GetLogLevel(), cfg.GetEnv())

	store, closeStore, err := backend.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open credential store: %w", err)
	}

	a := &app{cfg: cfg, store: store, closeStore: closeStore}
	opts := []apiclient.Option{
		apiclient.WithTimeout(cfg.GetTimeout()),
		apiclient.WithSingleFlight(cfg.GetSingleFlightRefresh()),
	}
	if cfg.GetMetricsEnabled() {
		a.registry = prometheus.NewRegistry()
		opts = append(opts, apiclient.WithMetrics(apiclient.NewMetrics(a.registry)))
	}
	if traceSpans {
		exporter, err := stdouttrace.New(stdouttrace.WithWriter(os.Stderr), stdouttrace.WithPrettyPrint())
		if err != nil {
			_ = closeStore()
			return nil, fmt.Errorf("failed to create span exporter: %w", err)
		}
		a.tracer = sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
		opts = append(opts, apiclient.WithTracerProvider(a.tracer))
	}

	client, err := apiclient.New(cfg.GetBaseURL(), store, opts...)
	if err != nil {
		_ = closeStore()
		return nil, err
	}
	a.client = client
	a.session = session.NewManager(client, store)
	return a, nil
}

// close flushes spans, dumps metrics when enabled and releases the store.
func (a *app) close(ctx context.Context, w io.Writer) {
	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			log.Warn().Err(err).Msg("failed to flush spans")
		}
	}
	if a.registry != nil {
		if err := dumpMetrics(w, a.registry); err != nil {
			log.Warn().Err(err).Msg("failed to write metrics")
		}
	}
	if err := a.closeStore(); err != nil {
		log.Warn().Err(err).Msg("failed to close credential store")
	}
}

func dumpMetrics(w io.Writer, reg *prometheus.Registry) error {
	families, err := reg.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}

// withApp runs fn with a fully wired app and tears it down afterwards.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.close(context.WithoutCancel(ctx), cmd.ErrOrStderr())
	return fn(ctx, a)
}
