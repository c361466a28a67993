// Package constants provides shared constants used throughout the tagsync codebase.
// This includes timeouts, limits, file permissions, and defaults that should be
// consistent between the CLI, the HTTP server and the catalog adapters.
package constants

import "time"

// Timeout constants
const (
	// DefaultHTTPTimeout is the standard timeout for requests to Sonarr and Emby
	DefaultHTTPTimeout = 30 * time.Second

	// PingTimeout bounds a single connection test request
	PingTimeout = 10 * time.Second

	// SyncTimeout is the upper bound for one full reconciliation run
	SyncTimeout = 30 * time.Minute

	// DefaultSyncInterval is the default auto-sync cadence
	DefaultSyncInterval = 24 * time.Hour

	// MinSyncInterval keeps auto-sync from hammering the upstream
	MinSyncInterval = 1 * time.Minute

	// ShutdownTimeout is how long the server waits for in-flight requests
	ShutdownTimeout = 10 * time.Second
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644

	// SecureFilePermissions is for files that may hold API keys (rw-------)
	SecureFilePermissions = 0600
)

// Limit constants
const (
	// DefaultPageSize is the number of target items requested per page
	DefaultPageSize = 200

	// MaxPageSize is the largest page the Emby adapter will request
	MaxPageSize = 1000

	// DefaultConcurrency is the default number of parallel apply workers
	DefaultConcurrency = 1

	// MaxConcurrency caps apply workers so a library server is not overwhelmed
	MaxConcurrency = 16

	// ChannelBufferSize is the default buffer size for event channels
	ChannelBufferSize = 256

	// MaxErrorBodyBytes is how much of an error response body is kept for messages
	MaxErrorBodyBytes = 4096
)

// Cache constants
const (
	// CacheTTL is the default time-to-live for cached API responses
	CacheTTL = 5 * time.Minute

	// CacheCleanupInterval is how often to clean expired cache entries
	CacheCleanupInterval = 10 * time.Minute
)

// Default values
const (
	// DefaultServerHost is the default bind address for `tagsync serve`
	DefaultServerHost = "localhost"

	// DefaultServerPort is the default port for `tagsync serve`
	DefaultServerPort = 8990

	// DefaultDatabasePath is the default location of the sqlite library database
	DefaultDatabasePath = "~/.tagsync/library.db"

	// ConfigFileName is the base name of the YAML config file (without extension)
	ConfigFileName = ".tagsync"

	// EnvPrefix is the environment variable prefix for configuration keys
	EnvPrefix = "TAGSYNC"
)

// Format constants
const (
	// TimeFormatHuman is a human-readable time format
	TimeFormatHuman = "Jan 2, 2006 at 3:04pm MST"

	// TimeFormatFilename is the format used in generated report filenames
	TimeFormatFilename = "20060102-150405"
)
