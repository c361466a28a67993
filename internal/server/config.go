package server

import (
	"fmt"
	"time"

	"github.com/ellisd4/tagsync/pkg/constants"
)

// Config holds server configuration.
type Config struct {
	Host string
	Port int

	PathPrefix string

	// APIKey enables X-Api-Key authentication when set.
	APIKey     string
	AuthHeader string

	// CacheTTL bounds how long GET /sync/last serves a result. Zero keeps
	// the last result until the next run replaces it.
	CacheTTL time.Duration

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	MetricsEnabled bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Host:       constants.DefaultServerHost,
		Port:       constants.DefaultServerPort,
		PathPrefix: "/api/v1",
		AuthHeader: "X-Api-Key",
		CacheTTL:   0,
		// a synchronous POST /sync may run up to the sync timeout
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   constants.SyncTimeout + time.Minute,
		IdleTimeout:    120 * time.Second,
		MetricsEnabled: true,
	}
}

// Addr returns the listen address.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// AuthEnabled reports whether requests must carry the API key.
func (c Config) AuthEnabled() bool {
	return c.APIKey != ""
}
