// Package serve provides the HTTP API server command.
package serve

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ellisd4/tagsync"
	"github.com/ellisd4/tagsync/cmd/application"
	"github.com/ellisd4/tagsync/internal/cmd/emoji"
	"github.com/ellisd4/tagsync/internal/server"
	"github.com/ellisd4/tagsync/pkg/constants"
	"github.com/ellisd4/tagsync/pkg/errors"
)

// NewCommand creates the serve command using app context.
func NewCommand(app application.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"server"},
		GroupID: "core",
		Short:   "Start the REST API server and the auto-sync scheduler",
		Args:    cobra.NoArgs,
		Long: `Start the tagsync REST API.

Endpoints (under --prefix, default /api/v1):
  GET  /test         connection test against Sonarr and the library
  POST /sync         run a sync (?dryRun=true to plan only)
  GET  /sync/last    result of the last run
  GET  /status       configuration and scheduling status
  GET  /events       websocket stream of run and tag events

GET /health and GET /metrics (Prometheus) are served at the root and are
never authenticated. Set --api-key (or server.api_key) to require an
X-Api-Key header on every other route.

When sync.auto_sync is set, a sync runs every sync.interval until the
server stops.`,
		Example: `  tagsync serve
  tagsync serve --port 9000 --api-key secret
  tagsync serve --auto-sync`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServer(cmd, app)
		},
	}

	defaults := app.ServerConfig()
	cmd.Flags().Int("port", defaults.Port, "Server port")
	cmd.Flags().String("host", defaults.Host, "Bind address")
	cmd.Flags().String("prefix", defaults.PathPrefix, "API path prefix")
	cmd.Flags().String("api-key", "", "Require this API key on API routes")
	cmd.Flags().String("auth-header", defaults.AuthHeader, "Authentication header name")
	cmd.Flags().Duration("cache-ttl", defaults.CacheTTL, "How long /sync/last serves a result (0 keeps it until the next run)")
	cmd.Flags().Duration("read-timeout", defaults.ReadTimeout, "HTTP read timeout")
	cmd.Flags().Duration("write-timeout", defaults.WriteTimeout, "HTTP write timeout")
	cmd.Flags().Duration("idle-timeout", defaults.IdleTimeout, "HTTP idle timeout")
	cmd.Flags().Bool("metrics", defaults.MetricsEnabled, "Enable metrics endpoint")
	cmd.Flags().Bool("auto-sync", false, "Run syncs periodically (overrides sync.auto_sync)")

	return cmd
}

// runServer starts the API server.
func runServer(cmd *cobra.Command, app application.Application) error {
	cfg, err := parseConfig(cmd, app.ServerConfig())
	if err != nil {
		return err
	}
	logger := app.Logger()

	client, err := app.Client()
	if err != nil {
		return err
	}
	if st := client.Status(); !st.Configured {
		logger.Warn().Str("reason", st.ConfigError).Msg("Configuration incomplete, syncs will fail until it is fixed")
	}

	autoSync := app.AutoSync()
	if cmd.Flags().Changed("auto-sync") {
		autoSync = mustGetBool(cmd, "auto-sync")
	}

	logger.Info().
		Str("addr", cfg.Addr()).
		Str("prefix", cfg.PathPrefix).
		Bool("auth", cfg.AuthEnabled()).
		Bool("auto_sync", autoSync).
		Msg("Starting API server")

	srv := server.New(client, cfg, server.WithLogger(logger))
	srv.Start()

	if autoSync {
		if err := client.AutoSyncOn(); err != nil {
			return err
		}
	}

	httpServer := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      srv.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	listener, err := net.Listen("tcp", httpServer.Addr)
	if err != nil {
		return errors.WrapIO("listen", httpServer.Addr, err)
	}

	return serveWithGracefulShutdown(cmd, httpServer, listener, srv, client, logger)
}

// parseConfig overlays explicitly set flags on the configured settings.
func parseConfig(cmd *cobra.Command, cfg server.Config) (server.Config, error) {
	flags := cmd.Flags()
	if flags.Changed("port") {
		cfg.Port = mustGetInt(cmd, "port")
	}
	if flags.Changed("host") {
		cfg.Host = mustGetString(cmd, "host")
	}
	if flags.Changed("prefix") {
		cfg.PathPrefix = mustGetString(cmd, "prefix")
	}
	if flags.Changed("api-key") {
		cfg.APIKey = mustGetString(cmd, "api-key")
	}
	if flags.Changed("auth-header") {
		cfg.AuthHeader = mustGetString(cmd, "auth-header")
	}
	if flags.Changed("cache-ttl") {
		cfg.CacheTTL = mustGetDuration(cmd, "cache-ttl")
	}
	if flags.Changed("read-timeout") {
		cfg.ReadTimeout = mustGetDuration(cmd, "read-timeout")
	}
	if flags.Changed("write-timeout") {
		cfg.WriteTimeout = mustGetDuration(cmd, "write-timeout")
	}
	if flags.Changed("idle-timeout") {
		cfg.IdleTimeout = mustGetDuration(cmd, "idle-timeout")
	}
	if flags.Changed("metrics") {
		cfg.MetricsEnabled = mustGetBool(cmd, "metrics")
	}

	// port 0 picks a free port
	if cfg.Port < 0 || cfg.Port > 65535 {
		return cfg, errors.NewValidationError("port", cfg.Port, fmt.Sprintf("port out of range: %d", cfg.Port))
	}
	return cfg, nil
}

// serveWithGracefulShutdown serves until the command context is cancelled,
// then drains connections and stops the background services.
func serveWithGracefulShutdown(cmd *cobra.Command, httpServer *http.Server, listener net.Listener,
	srv *server.Server, client tagsync.Client, logger *zerolog.Logger) error {
	out := cmd.OutOrStdout()
	serverErr := make(chan error, 1)

	go func() {
		logger.Info().Str("addr", listener.Addr().String()).Msg("HTTP server listening")
		_, _ = fmt.Fprintf(out, "%s API server listening on %s\n", emoji.Success, listener.Addr())
		_, _ = fmt.Fprintln(out, "   Press Ctrl+C to stop")

		if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			serverErr <- fmt.Errorf("server failed: %w", err)
		}
	}()

	select {
	case err := <-serverErr:
		shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return err
	case <-cmd.Context().Done():
		logger.Info().Msg("Shutdown signal received via context")
		_, _ = fmt.Fprintf(out, "\n%s Shutting down API server...\n", emoji.Stop)

		// the parent context is already cancelled
		shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
		defer cancel()

		if err := client.AutoSyncOff(); err != nil {
			logger.Warn().Err(err).Msg("Failed to stop auto-sync")
		}
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("Background services shutdown had issues")
		}

		logger.Info().Msg("Server stopped gracefully")
		_, _ = fmt.Fprintf(out, "%s API server stopped gracefully\n", emoji.Success)
		return nil
	}
}

// mustGetInt retrieves an integer flag value or panics if the flag doesn't exist.
// This should only be used for flags defined in this package.
func mustGetInt(cmd *cobra.Command, name string) int {
	val, err := cmd.Flags().GetInt(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}

func mustGetString(cmd *cobra.Command, name string) string {
	val, err := cmd.Flags().GetString(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}

func mustGetBool(cmd *cobra.Command, name string) bool {
	val, err := cmd.Flags().GetBool(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}

func mustGetDuration(cmd *cobra.Command, name string) time.Duration {
	val, err := cmd.Flags().GetDuration(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}
