// Package cache keeps recent sync results in memory for the HTTP API.
package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/ellisd4/tagsync/pkg/reconciler"
)

const lastResultKey = "sync:last"

// Cache wraps go-cache with typed accessors for the values the server shares
// between handlers.
type Cache struct {
	store *gocache.Cache
}

// New creates a cache. Entries expire after ttl; a ttl of zero or less keeps
// them until they are replaced.
func New(ttl, cleanupInterval time.Duration) *Cache {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	return &Cache{store: gocache.New(ttl, cleanupInterval)}
}

// SetLastResult stores the result of the most recent run.
func (c *Cache) SetLastResult(result *reconciler.Result) {
	if result == nil {
		return
	}
	c.store.Set(lastResultKey, result, gocache.DefaultExpiration)
}

// LastResult returns the cached result of the most recent run.
func (c *Cache) LastResult() (*reconciler.Result, bool) {
	v, ok := c.store.Get(lastResultKey)
	if !ok {
		return nil, false
	}
	result, ok := v.(*reconciler.Result)
	return result, ok
}

// Clear removes all items.
func (c *Cache) Clear() {
	c.store.Flush()
}

// ItemCount returns the number of cached items.
func (c *Cache) ItemCount() int {
	return c.store.ItemCount()
}
