// Package application defines what tagsync commands need from the
// application layer, so commands can be tested against a mock.
//
//	func NewCommand(app application.Application) *cobra.Command {
//	    return &cobra.Command{
//	        RunE: func(cmd *cobra.Command, args []string) error {
//	            client, err := app.Client()
//	            if err != nil {
//	                return err
//	            }
//	            _, err = client.Sync(cmd.Context())
//	            return err
//	        },
//	    }
//	}
package application

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/ellisd4/tagsync"
	"github.com/ellisd4/tagsync/internal/server"
	"github.com/ellisd4/tagsync/pkg/catalogs"
)

// Library is a target catalog the CLI can seed directly.
type Library interface {
	catalogs.Target
	PutItem(ctx context.Context, item catalogs.TargetItem) error
	DeleteItem(ctx context.Context, itemID string) error
}

// Application provides the dependencies commands use. All methods must be
// safe for concurrent access.
type Application interface {
	// Client returns the lazily built tagsync client. Configuration errors
	// surface here as ConfigurationIncomplete.
	Client() (tagsync.Client, error)

	// Library returns the writable local library. It fails with
	// ConfigurationIncomplete unless target.kind is sqlite.
	Library() (Library, error)

	// ServerConfig returns the HTTP API settings for `serve`.
	ServerConfig() server.Config

	// AutoSync reports whether `serve` should start the periodic sync loop.
	AutoSync() bool

	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format (table, json, yaml).
	OutputFormat() string

	Version() string
	Commit() string
	Date() string
	BuiltBy() string
}
