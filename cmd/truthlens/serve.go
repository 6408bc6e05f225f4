package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/zombar/truthlens/internal/analyzer"
	"github.com/zombar/truthlens/internal/api"
	"github.com/zombar/truthlens/internal/config"
	"github.com/zombar/truthlens/internal/metrics"
	"github.com/zombar/truthlens/internal/openrouter"
	"github.com/zombar/truthlens/internal/tracing"
	"github.com/zombar/truthlens/pkg/logging"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("port") {
				a.cfg.Server.Port = port
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}

			logger := a.newLogger(cmd.OutOrStdout())
			logger.Info("truthlens service initializing", "version", version)
			return runServe(cmd.Context(), a.cfg, logger)
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "Server port (env: PORT)")
	return cmd
}

// runServe serves the API until ctx is cancelled, then shuts down gracefully
func runServe(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(ctx, cfg.Tracing.ServiceName, cfg.Tracing.Endpoint)
		if err != nil {
			logger.Warn("failed to initialize tracer, continuing without tracing", "error", err)
		} else {
			defer func() {
				if err := tp.Shutdown(context.Background()); err != nil {
					logger.Error("error shutting down tracer", "error", err)
				}
			}()
			logger.Info("tracing initialized", "endpoint", cfg.Tracing.Endpoint)
		}
	}

	srv, err := newServer(cfg, logger)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("truthlens service starting",
			"addr", srv.Addr,
			"model", cfg.OpenRouter.Model,
			"base_url", cfg.OpenRouter.BaseURL,
			"timeout", cfg.OpenRouter.Timeout.String(),
			"fallback_model", cfg.FallbackModel,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}

// newServer wires the analysis pipeline behind the HTTP API
func newServer(cfg *config.Config, logger *slog.Logger) (*http.Server, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewBusinessMetrics("truthlens", reg)

	client, err := openrouter.New(cfg.ClientConfig(),
		openrouter.WithLogger(logger),
		openrouter.WithMetrics(m),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenRouter client: %w", err)
	}

	a := analyzer.New(client,
		analyzer.WithPrimaryModel(cfg.OpenRouter.Model),
		analyzer.WithFallbackModel(cfg.FallbackModel),
		analyzer.WithLogger(logger),
		analyzer.WithMetrics(m),
	)

	metricsHandler := promhttp.InstrumentMetricHandler(reg,
		promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true}),
	)
	apiHandler := api.NewHandler(a,
		api.WithLogger(logger),
		api.WithMetricsHandler(metricsHandler),
	)

	// tracing -> HTTP logging -> handlers, so request logs carry the trace ID
	handler := tracing.HTTPMiddleware("truthlens")(
		logging.HTTPLoggingMiddleware(logger)(apiHandler),
	)

	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.OpenRouter.Timeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}, nil
}
