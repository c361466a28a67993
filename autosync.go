package tagsync

import (
	"context"
	"time"

	"github.com/ellisd4/tagsync/pkg/errors"
	"github.com/ellisd4/tagsync/pkg/logging"
)

// Compile-time interface check to ensure proper implementation.
var _ AutoSyncer = (*client)(nil)

// AutoSyncer provides controls for periodic syncs.
type AutoSyncer interface {
	// AutoSyncOn starts the periodic sync loop, restarting it if running
	AutoSyncOn() error

	// AutoSyncOff stops the loop and waits for an in-flight run to return
	AutoSyncOff() error

	// AutoSyncEnabled reports whether the loop is running
	AutoSyncEnabled() bool
}

// AutoSyncOn implements AutoSyncer.
func (c *client) AutoSyncOn() error {
	interval := c.options.autoSyncInterval
	if interval <= 0 {
		return &errors.ValidationError{
			Field:   "autoSyncInterval",
			Value:   interval,
			Message: "sync interval must be positive",
		}
	}

	c.autoMu.Lock()
	defer c.autoMu.Unlock()

	// Stop any existing loop to prevent leaking its goroutine
	c.stopAutoSyncLocked()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	c.autoCancel = cancel
	c.autoDone = done
	c.autoOn.Store(true)

	logging.Info().Dur("interval", interval).Msg("Auto sync enabled")

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				_, err := c.Sync(ctx)
				switch {
				case err == nil:
				case ctx.Err() != nil:
					return
				case errors.Is(err, errors.ErrRunInProgress):
					logging.Info().Msg("Skipping scheduled sync, a run is already in progress")
				default:
					// Log and keep going; the next tick retries
					logging.Error().Err(err).Msg("Scheduled sync failed")
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// AutoSyncOff implements AutoSyncer.
func (c *client) AutoSyncOff() error {
	c.autoMu.Lock()
	defer c.autoMu.Unlock()
	c.stopAutoSyncLocked()
	return nil
}

// AutoSyncEnabled implements AutoSyncer.
func (c *client) AutoSyncEnabled() bool {
	return c.autoOn.Load()
}

func (c *client) stopAutoSyncLocked() {
	if c.autoCancel == nil {
		return
	}
	c.autoOn.Store(false)
	c.autoCancel()
	<-c.autoDone
	c.autoCancel = nil
	c.autoDone = nil
	logging.Info().Msg("Auto sync disabled")
}
