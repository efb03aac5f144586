package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/toolserve"
	"github.com/aretw0/toolserve/internal/config"
	"github.com/aretw0/toolserve/internal/presentation/tui"
	httpadapter "github.com/aretw0/toolserve/pkg/adapters/http"
	"github.com/aretw0/toolserve/pkg/cors"
	"github.com/aretw0/toolserve/pkg/observability"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server over HTTP",
	Long: `Starts the tool server on HTTP.

By default the endpoint is stateless: every POST carries one JSON-RPC request
and nothing is kept between requests. With --stateful the endpoint is served
by a session-bound transport that issues Mcp-Session-Id.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		applyServeFlags(cmd, &cfg)
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var banner io.Writer
		if quiet, _ := cmd.Flags().GetBool("no-banner"); !quiet {
			banner = cmd.OutOrStdout()
		}
		return runServe(ctx, cfg, logger, banner)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	def := config.Default()
	serveCmd.Flags().String("host", def.Host, "Host to bind")
	serveCmd.Flags().IntP("port", "p", def.Port, "Port to listen on")
	serveCmd.Flags().String("path", def.Path, "Path of the MCP endpoint")
	serveCmd.Flags().Bool("stateful", false, "Serve the session-bound transport instead of the stateless one")
	serveCmd.Flags().Bool("json-response", false, "Always answer with application/json, never text/event-stream")
	serveCmd.Flags().StringSlice("cors-origin", nil, "Restrict cross-origin requests to these origins (default: any)")
	serveCmd.Flags().Bool("metrics", def.Metrics, "Expose Prometheus metrics on /metrics")
	serveCmd.Flags().String("otlp-endpoint", "", "OTLP/HTTP collector for invocation traces")
	serveCmd.Flags().Bool("otlp-insecure", false, "Use plain HTTP for the OTLP collector")
	serveCmd.Flags().Bool("no-banner", false, "Do not print the startup banner")
}

// applyServeFlags overlays the flags the user actually set.
func applyServeFlags(cmd *cobra.Command, c *config.Config) {
	f := cmd.Flags()
	if f.Changed("host") {
		c.Host, _ = f.GetString("host")
	}
	if f.Changed("port") {
		c.Port, _ = f.GetInt("port")
	}
	if f.Changed("path") {
		c.Path, _ = f.GetString("path")
	}
	if f.Changed("stateful") {
		c.Stateful, _ = f.GetBool("stateful")
	}
	if f.Changed("json-response") {
		c.JSONResponse, _ = f.GetBool("json-response")
	}
	if f.Changed("cors-origin") {
		c.CORS.AllowedOrigins, _ = f.GetStringSlice("cors-origin")
	}
	if f.Changed("metrics") {
		c.Metrics, _ = f.GetBool("metrics")
	}
	if f.Changed("otlp-endpoint") {
		c.Tracing.Endpoint, _ = f.GetString("otlp-endpoint")
	}
	if f.Changed("otlp-insecure") {
		c.Tracing.Insecure, _ = f.GetBool("otlp-insecure")
	}
}

// buildHandler assembles the server and its HTTP handler from c.
// The returned cleanup flushes traces and must be called on exit.
func buildHandler(ctx context.Context, c config.Config, logger *slog.Logger) (http.Handler, func(context.Context), error) {
	opts := serverOptions(c, logger)
	httpOpts := []httpadapter.Option{
		httpadapter.WithPath(c.Path),
		httpadapter.WithPolicy(cors.Permissive().WithOrigins(c.CORS.AllowedOrigins...)),
		httpadapter.WithMaxBodyBytes(c.MaxBodyBytes),
	}
	cleanup := func(context.Context) {}

	if c.Metrics {
		m := observability.NewMetrics()
		opts = append(opts, toolserve.WithObserver(m))
		httpOpts = append(httpOpts, httpadapter.WithMetrics(m))
	}
	if c.Tracing.Endpoint != "" {
		tp, err := observability.NewTracerProvider(ctx, observability.TracingConfig{
			Endpoint: c.Tracing.Endpoint,
			Insecure: c.Tracing.Insecure,
			Service:  toolserve.Name,
		})
		if err != nil {
			return nil, cleanup, err
		}
		opts = append(opts, toolserve.WithObserver(observability.NewTracing(tp.Tracer(observability.TracerName))))
		cleanup = func(ctx context.Context) {
			if err := tp.Shutdown(ctx); err != nil {
				logger.Warn("Trace exporter shutdown failed", "error", err)
			}
		}
		logger.Info("Tracing enabled", "endpoint", c.Tracing.Endpoint)
	}
	if c.JSONResponse {
		httpOpts = append(httpOpts, httpadapter.WithJSONResponse())
	}

	srv, err := toolserve.New(opts...)
	if err != nil {
		return nil, cleanup, err
	}

	if c.Stateful {
		bridge, err := srv.MCP()
		if err != nil {
			return nil, cleanup, err
		}
		httpOpts = append(httpOpts, httpadapter.WithStatefulHandler(bridge.StreamableHTTPHandler(c.Path)))
	}
	return srv.HTTPHandler(httpOpts...), cleanup, nil
}

func runServe(ctx context.Context, c config.Config, logger *slog.Logger, banner io.Writer) error {
	handler, cleanup, err := buildHandler(ctx, c, logger)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		cleanup(flushCtx)
	}()

	srv := &http.Server{
		Addr:              c.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)
	go func() {
		if banner != nil {
			tui.PrintBanner(banner, toolserve.Version, c.Endpoint())
		}
		logger.Info("MCP server listening", "address", srv.Addr, "path", c.Path, "stateful", c.Stateful)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case <-ctx.Done():
		logger.Info("Shutdown signal received, shutting down server")

		// Give outstanding requests a deadline for completion.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			_ = srv.Close()
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		logger.Info("MCP server stopped gracefully")
		return nil
	}
}
