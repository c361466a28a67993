package tagsync

import "time"

// SetAutoSyncInterval bypasses the interval floor so tests can tick quickly.
func SetAutoSyncInterval(c Client, d time.Duration) {
	c.(*client).options.autoSyncInterval = d
}
