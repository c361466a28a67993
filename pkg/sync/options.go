// Package sync provides per-run options for a tag sync.
package sync

import (
	"time"

	"github.com/ellisd4/tagsync/internal/utils/ptr"
	"github.com/ellisd4/tagsync/pkg/constants"
	"github.com/ellisd4/tagsync/pkg/errors"
	"github.com/ellisd4/tagsync/pkg/reconciler"
)

// Options controls a single call to Client.Sync. Unset pointer fields keep
// the client's configured value.
type Options struct {
	DryRun      *bool         // Plan and report without mutating the target
	Timeout     time.Duration // Timeout for the whole run, zero for none
	Concurrency int           // Items mutated in parallel, zero for the client default

	// Reconciliation overrides
	TagPrefix             *string
	OverwriteExistingTags *bool
}

// Option is a function that configures sync Options.
type Option func(*Options)

// Defaults returns the default sync options.
func Defaults() *Options {
	return &Options{
		DryRun:                nil,
		Timeout:               constants.SyncTimeout,
		Concurrency:           0,
		TagPrefix:             nil,
		OverwriteExistingTags: nil,
	}
}

// Apply applies the given options to the sync options.
func (s *Options) Apply(opts ...Option) *Options {
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Validate checks if the sync options are valid.
func (s *Options) Validate() error {
	if s.Timeout < 0 {
		return &errors.ValidationError{
			Field:   "Timeout",
			Value:   s.Timeout,
			Message: "timeout must be non-negative",
		}
	}
	if s.Concurrency < 0 || s.Concurrency > constants.MaxConcurrency {
		return &errors.ValidationError{
			Field:   "Concurrency",
			Value:   s.Concurrency,
			Message: "concurrency must be between 0 and 16",
		}
	}
	return nil
}

// Config overlays the per-run overrides on base.
func (s *Options) Config(base reconciler.Config) reconciler.Config {
	cfg := base
	if s.TagPrefix != nil {
		cfg.TagPrefix = *s.TagPrefix
	}
	if s.OverwriteExistingTags != nil {
		cfg.OverwriteExistingTags = *s.OverwriteExistingTags
	}
	return cfg
}

// ReconcilerOptions converts the run-level settings to reconciler options.
// defaultDryRun and defaultConcurrency apply when the run does not set them.
func (s *Options) ReconcilerOptions(defaultDryRun bool, defaultConcurrency int) []reconciler.Option {
	dryRun := ptr.Deref(s.DryRun, defaultDryRun)
	concurrency := defaultConcurrency
	if s.Concurrency > 0 {
		concurrency = s.Concurrency
	}
	opts := []reconciler.Option{reconciler.WithDryRun(dryRun)}
	if concurrency > 0 {
		opts = append(opts, reconciler.WithConcurrency(concurrency))
	}
	return opts
}

// WithDryRun configures dry run mode.
func WithDryRun(dryRun bool) Option {
	return func(opts *Options) {
		opts.DryRun = ptr.Bool(dryRun)
	}
}

// WithTimeout configures the sync timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(opts *Options) {
		opts.Timeout = timeout
	}
}

// WithConcurrency configures how many items are mutated in parallel.
func WithConcurrency(n int) Option {
	return func(opts *Options) {
		opts.Concurrency = n
	}
}

// WithTagPrefix overrides the managed tag prefix for this run.
func WithTagPrefix(prefix string) Option {
	return func(opts *Options) {
		opts.TagPrefix = ptr.String(prefix)
	}
}

// WithOverwriteExistingTags overrides whether stale managed tags are removed.
func WithOverwriteExistingTags(overwrite bool) Option {
	return func(opts *Options) {
		opts.OverwriteExistingTags = ptr.Bool(overwrite)
	}
}
