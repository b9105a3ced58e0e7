package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/aretw0/statetree"
	httpAdapter "github.com/aretw0/statetree/internal/adapters/http"
	"github.com/aretw0/statetree/internal/config"
	"github.com/aretw0/statetree/internal/presentation/tui"
	"github.com/aretw0/statetree/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ServeOptions controls the HTTP server.
type ServeOptions struct {
	// Quiet suppresses the banner and system messages.
	Quiet bool
}

// Serve runs the HTTP API until SIGINT or SIGTERM.
func Serve(cfg config.Config, opts ServeOptions, w io.Writer) error {
	logger, err := createLogger(cfg.LogLevel)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics, err := observability.NewMetrics(reg)
	if err != nil {
		return err
	}

	engine, backend, err := createEngine(cfg, logger, statetree.WithMetrics(metrics))
	if err != nil {
		return err
	}
	defer backend.Close()

	sigCtx := NewSignalContext(context.Background())
	defer sigCtx.Cancel()

	if err := backend.Ping(sigCtx); err != nil {
		return err
	}

	handler := httpAdapter.NewHandler(engine,
		httpAdapter.WithVersion(statetree.Version),
		httpAdapter.WithLogger(logger),
		httpAdapter.WithMetricsHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})),
	)

	if !opts.Quiet {
		tui.PrintBanner(w, statetree.Version)
		printSystemMessage(w, "Listening on %s (store: %s)", cfg.Listen, cfg.Store.Backend)
	}

	if err := httpAdapter.ListenAndServe(sigCtx, cfg.Listen, handler, logger); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	if !opts.Quiet {
		if sig := sigCtx.Signal(); sig != nil {
			printSystemMessage(w, "Stopped gracefully (%v)", sig)
		} else {
			printSystemMessage(w, "Stopped gracefully")
		}
	}
	return nil
}
