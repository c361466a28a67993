// Package tagsync keeps the tags of series in a media library in line with
// the tags Sonarr assigns to the same series.
//
// A Client pairs a source catalog (Sonarr) with a target catalog (Emby or a
// local library database). Each Sync fetches both catalogs, matches series
// by external identifier, and adds or removes the managed tags on the
// matched target items. Runs can be triggered manually, from the HTTP API,
// or periodically by the auto-sync loop.
//
// Example usage:
//
//	client, err := tagsync.New(
//	    tagsync.WithSource(sonarr.New(sonarr.Config{URL: sonarrURL, APIKey: sonarrKey})),
//	    tagsync.WithTarget(emby.New(emby.Config{URL: embyURL, APIKey: embyKey})),
//	    tagsync.WithTagPrefix("sonarr-"),
//	    tagsync.WithOverwriteExistingTags(true),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	client.OnRunCompleted(func(result *reconciler.Result) {
//	    log.Println(result)
//	})
//
//	result, err := client.Sync(ctx, sync.WithDryRun(true))
package tagsync

import (
	"context"
	gosync "sync"
	"sync/atomic"

	"github.com/agentstation/utc"

	"github.com/ellisd4/tagsync/pkg/errors"
	"github.com/ellisd4/tagsync/pkg/reconciler"
)

// Client runs tag syncs between a source and a target catalog.
type Client interface {

	// Syncer runs reconciliation
	Syncer

	// Connection reports on the configured catalogs
	Connection

	// AutoSyncer provides access to periodic sync controls
	AutoSyncer

	// Hooks provides access to event callback registration
	Hooks
}

// client is the internal implementation of the Client interface.
type client struct {
	options *options

	// running is set for the duration of a Sync
	running atomic.Bool

	// last run state
	mu        gosync.RWMutex
	last      *reconciler.Result
	lastErr   error
	lastRunAt utc.Time

	// auto sync state
	autoMu     gosync.Mutex
	autoCancel context.CancelFunc
	autoDone   chan struct{}
	autoOn     atomic.Bool

	hooks *hooks
}

// New creates a new Client with the given options.
func New(opts ...Option) (Client, error) {
	o, err := defaults().apply(opts...)
	if err != nil {
		return nil, err
	}
	if o.source == nil {
		return nil, errors.NewConfigError("tagsync", "source", "a source catalog is required")
	}
	if o.target == nil {
		return nil, errors.NewConfigError("tagsync", "target", "a target catalog is required")
	}
	if err := o.config.Validate(); err != nil {
		return nil, err
	}

	c := &client{
		options: o,
		hooks:   newHooks(),
	}

	if o.autoSyncEnabled {
		if err := c.AutoSyncOn(); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// LastResult returns the result of the most recent run that produced one,
// or nil before the first such run.
func (c *client) LastResult() *reconciler.Result {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.last
}

func (c *client) recordRun(result *reconciler.Result, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastRunAt = utc.Now()
	c.lastErr = err
	if result != nil {
		c.last = result
	}
}
