package tagsync

import (
	"time"

	"github.com/ellisd4/tagsync/pkg/catalogs"
	"github.com/ellisd4/tagsync/pkg/constants"
	"github.com/ellisd4/tagsync/pkg/errors"
	"github.com/ellisd4/tagsync/pkg/reconciler"
)

// options holds the client configuration.
type options struct {
	source catalogs.Source
	target catalogs.Target
	config reconciler.Config

	dryRun      bool
	concurrency int

	autoSyncEnabled  bool
	autoSyncInterval time.Duration
}

func defaults() *options {
	return &options{
		config:           reconciler.DefaultConfig(),
		concurrency:      constants.DefaultConcurrency,
		autoSyncEnabled:  false,
		autoSyncInterval: constants.DefaultSyncInterval,
	}
}

func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// Option is a function that configures a Client.
type Option func(*options) error

// WithSource sets the catalog tag assignments are read from.
func WithSource(src catalogs.Source) Option {
	return func(o *options) error {
		o.source = src
		return nil
	}
}

// WithTarget sets the catalog whose items are tagged.
func WithTarget(target catalogs.Target) Option {
	return func(o *options) error {
		o.target = target
		return nil
	}
}

// WithConfig replaces the whole reconciliation policy.
func WithConfig(cfg reconciler.Config) Option {
	return func(o *options) error {
		o.config = cfg
		return nil
	}
}

// WithTagPrefix sets the prefix applied to every managed tag.
func WithTagPrefix(prefix string) Option {
	return func(o *options) error {
		o.config.TagPrefix = prefix
		return nil
	}
}

// WithOverwriteExistingTags removes managed tags the source no longer assigns.
func WithOverwriteExistingTags(enabled bool) Option {
	return func(o *options) error {
		o.config.OverwriteExistingTags = enabled
		return nil
	}
}

// WithSchemes sets the identifier schemes tried when matching, in priority order.
func WithSchemes(schemes ...catalogs.Scheme) Option {
	return func(o *options) error {
		o.config.Schemes = schemes
		return nil
	}
}

// WithDryRun makes every sync a dry run unless the run overrides it.
func WithDryRun(enabled bool) Option {
	return func(o *options) error {
		o.dryRun = enabled
		return nil
	}
}

// WithConcurrency sets how many target items are mutated in parallel.
func WithConcurrency(n int) Option {
	return func(o *options) error {
		if n < 1 || n > constants.MaxConcurrency {
			return &errors.ValidationError{
				Field:   "concurrency",
				Value:   n,
				Message: "concurrency must be between 1 and 16",
			}
		}
		o.concurrency = n
		return nil
	}
}

// WithAutoSync configures whether the periodic sync loop starts with the client.
func WithAutoSync(enabled bool) Option {
	return func(o *options) error {
		o.autoSyncEnabled = enabled
		return nil
	}
}

// WithAutoSyncInterval configures how often the periodic sync runs.
func WithAutoSyncInterval(interval time.Duration) Option {
	return func(o *options) error {
		if interval < constants.MinSyncInterval {
			return &errors.ValidationError{
				Field:   "autoSyncInterval",
				Value:   interval,
				Message: "sync interval must be at least one minute",
			}
		}
		o.autoSyncInterval = interval
		return nil
	}
}
