// Package app provides the application context and dependency management
// for the tagsync CLI. It centralizes configuration, logging and the
// lazily built tagsync client shared by every command.
package app

import (
	"context"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ellisd4/tagsync"
	"github.com/ellisd4/tagsync/cmd/application"
	"github.com/ellisd4/tagsync/internal/server"
	"github.com/ellisd4/tagsync/internal/sources/sonarr"
	"github.com/ellisd4/tagsync/internal/targets/emby"
	"github.com/ellisd4/tagsync/internal/targets/sqlite"
	"github.com/ellisd4/tagsync/pkg/catalogs"
	"github.com/ellisd4/tagsync/pkg/constants"
	"github.com/ellisd4/tagsync/pkg/errors"
)

// App represents the tagsync application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	config *Config
	logger *zerolog.Logger

	// client is built on first use and reused by every command
	mu     sync.RWMutex
	client tagsync.Client
	closer io.Closer
}

// New creates a new App instance with the given version information.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
	}

	config, err := LoadConfig("")
	if err != nil {
		return nil, err
	}
	app.config = config

	logger := NewLogger(config)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Commit returns the git commit hash.
func (a *App) Commit() string {
	return a.commit
}

// Date returns the build date.
func (a *App) Date() string {
	return a.date
}

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string {
	return a.builtBy
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// OutputFormat returns the --format value or the format setting.
func (a *App) OutputFormat() string {
	return a.config.Format
}

// ServerConfig returns the HTTP API settings.
func (a *App) ServerConfig() server.Config {
	return a.config.ServerConfig()
}

// AutoSync reports whether sync.auto_sync is set.
func (a *App) AutoSync() bool {
	return a.config.Sync.AutoSync
}

// Client returns the tagsync client, creating it lazily if needed.
func (a *App) Client() (tagsync.Client, error) {
	a.mu.RLock()
	if a.client != nil {
		client := a.client
		a.mu.RUnlock()
		return client, nil
	}
	a.mu.RUnlock()

	a.mu.Lock()
	defer a.mu.Unlock()

	// Double-check after acquiring write lock
	if a.client != nil {
		return a.client, nil
	}

	target, closer, err := a.buildTarget()
	if err != nil {
		return nil, err
	}

	opts := append([]tagsync.Option{tagsync.WithTarget(target)}, a.buildClientOptions()...)
	client, err := tagsync.New(opts...)
	if err != nil {
		if closer != nil {
			_ = closer.Close()
		}
		return nil, err
	}

	a.client = client
	a.closer = closer
	return client, nil
}

// Library returns the sqlite store behind the client, building the client
// first if needed.
func (a *App) Library() (application.Library, error) {
	if _, err := a.Client(); err != nil {
		return nil, err
	}

	a.mu.RLock()
	defer a.mu.RUnlock()
	store, ok := a.closer.(*sqlite.Store)
	if !ok {
		return nil, errors.NewConfigError("target", "kind", "library commands require target.kind sqlite")
	}
	return store, nil
}

// Shutdown stops the auto-sync loop and releases the target catalog.
func (a *App) Shutdown(_ context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.client != nil {
		if err := a.client.AutoSyncOff(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to stop auto-sync during shutdown")
		}
	}
	if a.closer != nil {
		err := a.closer.Close()
		a.closer = nil
		if err != nil {
			return errors.WrapIO("close", a.config.Target.Database, err)
		}
	}
	return nil
}

// buildTarget constructs the catalog selected by target.kind. The sqlite
// store is returned as the closer.
func (a *App) buildTarget() (catalogs.Target, io.Closer, error) {
	switch a.config.Target.Kind {
	case TargetEmby, "":
		return emby.New(emby.Config{
			URL:     a.config.Target.URL,
			APIKey:  a.config.Target.APIKey,
			Timeout: constants.DefaultHTTPTimeout,
		}), nil, nil
	case TargetSQLite:
		store, err := sqlite.Open(sqlite.Config{Path: a.config.Target.Database})
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	default:
		return nil, nil, errors.NewConfigError("target", "kind", "must be emby or sqlite, got "+a.config.Target.Kind)
	}
}

// buildClientOptions constructs tagsync options from the app configuration.
// Auto-sync is started by `serve`, never at construction.
func (a *App) buildClientOptions() []tagsync.Option {
	opts := []tagsync.Option{
		tagsync.WithSource(sonarr.New(sonarr.Config{
			URL:     a.config.Sonarr.URL,
			APIKey:  a.config.Sonarr.APIKey,
			Timeout: constants.DefaultHTTPTimeout,
		})),
		tagsync.WithTagPrefix(a.config.Sync.TagPrefix),
		tagsync.WithOverwriteExistingTags(a.config.Sync.OverwriteExistingTags),
		tagsync.WithDryRun(a.config.Sync.DryRun),
	}

	if a.config.Sync.Concurrency > 0 {
		opts = append(opts, tagsync.WithConcurrency(a.config.Sync.Concurrency))
	}
	if a.config.Sync.Interval > 0 {
		opts = append(opts, tagsync.WithAutoSyncInterval(a.config.Sync.Interval))
	}

	return opts
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithClient sets a prebuilt client (useful for testing).
func WithClient(client tagsync.Client) Option {
	return func(a *App) error {
		a.client = client
		return nil
	}
}
