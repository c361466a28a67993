package app

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/ellisd4/tagsync/internal/server"
	"github.com/ellisd4/tagsync/internal/targets/emby"
	"github.com/ellisd4/tagsync/internal/targets/sqlite"
	"github.com/ellisd4/tagsync/pkg/constants"
	"github.com/ellisd4/tagsync/pkg/errors"
)

// Target kinds accepted by target.kind.
const (
	TargetEmby   = emby.ServiceName
	TargetSQLite = sqlite.ServiceName
)

// Config holds the application configuration loaded from various sources
// including config files, environment variables, and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool
	Format  string

	// Config file
	ConfigFile string

	Sonarr SonarrConfig
	Target TargetConfig
	Sync   SyncConfig
	Server ServerConfig

	// Logging configuration
	Debug     bool
	LogLevel  string
	LogFormat string
	LogOutput string
}

// SonarrConfig locates the Sonarr instance tags are read from.
type SonarrConfig struct {
	URL    string
	APIKey string
}

// TargetConfig selects and locates the catalog that gets tagged.
type TargetConfig struct {
	Kind     string
	URL      string
	APIKey   string
	Database string
}

// SyncConfig holds the reconciliation policy and scheduling.
type SyncConfig struct {
	TagPrefix             string
	OverwriteExistingTags bool
	DryRun                bool
	AutoSync              bool
	Interval              time.Duration
	Concurrency           int
}

// ServerConfig holds the `serve` listener settings.
type ServerConfig struct {
	Host   string
	Port   int
	APIKey string
}

// LoadConfig loads configuration from all sources in order of precedence:
// 1. Command-line flags (handled by cobra)
// 2. Environment variables (TAGSYNC_SONARR_URL, ...)
// 3. .env files
// 4. Config file (--config, ./.tagsync.yaml or ~/.tagsync.yaml)
// 5. Defaults
func LoadConfig(configFile string) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if configFile == "" {
		configFile = os.Getenv(constants.EnvPrefix + "_CONFIG")
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigType("yaml")
		v.SetConfigName(constants.ConfigFileName)
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// an explicit file must exist and parse
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, errors.WrapParse("yaml", configFile, err)
		}
	}

	config := &Config{
		ConfigFile: v.ConfigFileUsed(),
		Format:     v.GetString("format"),

		Sonarr: SonarrConfig{
			URL:    strings.TrimSpace(v.GetString("sonarr.url")),
			APIKey: strings.TrimSpace(v.GetString("sonarr.api_key")),
		},
		Target: TargetConfig{
			Kind:     strings.ToLower(strings.TrimSpace(v.GetString("target.kind"))),
			URL:      strings.TrimSpace(v.GetString("target.url")),
			APIKey:   strings.TrimSpace(v.GetString("target.api_key")),
			Database: strings.TrimSpace(v.GetString("target.database")),
		},
		Sync: SyncConfig{
			TagPrefix:             v.GetString("sync.tag_prefix"),
			OverwriteExistingTags: v.GetBool("sync.overwrite_existing_tags"),
			DryRun:                v.GetBool("sync.dry_run"),
			AutoSync:              v.GetBool("sync.auto_sync"),
			Interval:              v.GetDuration("sync.interval"),
			Concurrency:           v.GetInt("sync.concurrency"),
		},
		Server: ServerConfig{
			Host:   v.GetString("server.host"),
			Port:   v.GetInt("server.port"),
			APIKey: v.GetString("server.api_key"),
		},

		Debug:     v.GetBool("debug"),
		LogLevel:  v.GetString("log_level"),
		LogFormat: v.GetString("log_format"),
		LogOutput: v.GetString("log_output"),
	}

	return config, nil
}

func setDefaults(v *viper.Viper) {
	// every key needs a default so AutomaticEnv can resolve it
	v.SetDefault("format", "")
	v.SetDefault("sonarr.url", "")
	v.SetDefault("sonarr.api_key", "")
	v.SetDefault("target.kind", TargetEmby)
	v.SetDefault("target.url", "")
	v.SetDefault("target.api_key", "")
	v.SetDefault("target.database", constants.DefaultDatabasePath)
	v.SetDefault("sync.tag_prefix", "")
	v.SetDefault("sync.overwrite_existing_tags", false)
	v.SetDefault("sync.dry_run", false)
	v.SetDefault("sync.auto_sync", false)
	v.SetDefault("sync.interval", constants.DefaultSyncInterval)
	v.SetDefault("sync.concurrency", constants.DefaultConcurrency)
	v.SetDefault("server.host", constants.DefaultServerHost)
	v.SetDefault("server.port", constants.DefaultServerPort)
	v.SetDefault("server.api_key", "")
	v.SetDefault("debug", false)
	v.SetDefault("log_level", "")
	v.SetDefault("log_format", "auto")
	v.SetDefault("log_output", "stderr")
}

// Validate reports missing connection settings as a ConfigError. The
// client still builds from an incomplete config so `status` can show what
// is missing.
func (c *Config) Validate() error {
	if c.Sonarr.URL == "" {
		return errors.NewConfigError("sonarr", "url", "must be set")
	}
	if c.Sonarr.APIKey == "" {
		return errors.NewConfigError("sonarr", "api_key", "must be set")
	}

	switch c.Target.Kind {
	case TargetEmby:
		if c.Target.URL == "" {
			return errors.NewConfigError(TargetEmby, "target.url", "must be set")
		}
		if c.Target.APIKey == "" {
			return errors.NewConfigError(TargetEmby, "target.api_key", "must be set")
		}
	case TargetSQLite:
		if c.Target.Database == "" {
			return errors.NewConfigError(TargetSQLite, "target.database", "must be set")
		}
	default:
		return errors.NewConfigError("target", "kind", "must be emby or sqlite, got "+c.Target.Kind)
	}

	if c.Sync.Concurrency < 1 || c.Sync.Concurrency > constants.MaxConcurrency {
		return errors.NewValidationError("sync.concurrency", c.Sync.Concurrency, "must be between 1 and 16")
	}
	if c.Sync.AutoSync && c.Sync.Interval < constants.MinSyncInterval {
		return errors.NewValidationError("sync.interval", c.Sync.Interval, "must be at least one minute")
	}
	return nil
}

// UpdateFromFlags updates config values from parsed command flags.
// This should be called after cobra parses flags to ensure flag
// values take precedence over config file and env vars.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, format, logLevel string) {
	c.Verbose = verbose
	c.Quiet = quiet
	c.NoColor = noColor
	if format != "" {
		c.Format = format
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
}

// ServerConfig returns the HTTP API settings for `serve`, before flag
// overrides.
func (c *Config) ServerConfig() server.Config {
	cfg := server.DefaultConfig()
	if c.Server.Host != "" {
		cfg.Host = c.Server.Host
	}
	if c.Server.Port > 0 {
		cfg.Port = c.Server.Port
	}
	cfg.APIKey = c.Server.APIKey
	return cfg
}

// loadEnvFiles loads environment variables from .env files.
func loadEnvFiles() {
	// .env.local overrides .env; godotenv never replaces variables that are
	// already set, so the override file is loaded first
	for _, envFile := range []string{".env.local", ".env"} {
		_ = godotenv.Load(envFile)
	}
}
