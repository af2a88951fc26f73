// Package cache keeps downloaded result files in memory so repeated
// downloads of the same processing result skip the matching backend.
package cache

import (
	"strings"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Cache stores result files keyed by session and process id.
type Cache struct {
	store  *gocache.Cache
	hits   atomic.Int64
	misses atomic.Int64
}

// New creates a cache whose entries live for ttl. Expired entries are
// purged every cleanupInterval.
func New(ttl, cleanupInterval time.Duration) *Cache {
	return &Cache{store: gocache.New(ttl, cleanupInterval)}
}

func key(sessionID, processID string) string {
	return sessionID + "/" + processID
}

// Get returns a cached result file.
func (c *Cache) Get(sessionID, processID string) ([]byte, bool) {
	v, ok := c.store.Get(key(sessionID, processID))
	if !ok {
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return v.([]byte), true
}

// Put stores a result file.
func (c *Cache) Put(sessionID, processID string, data []byte) {
	c.store.SetDefault(key(sessionID, processID), data)
}

// Forget drops every file cached for a session.
func (c *Cache) Forget(sessionID string) {
	prefix := sessionID + "/"
	for k := range c.store.Items() {
		if strings.HasPrefix(k, prefix) {
			c.store.Delete(k)
		}
	}
}

// Clear removes all items from the cache.
func (c *Cache) Clear() {
	c.store.Flush()
}

// Stats reports cache usage.
type Stats struct {
	Items  int   `json:"items"`
	Bytes  int64 `json:"bytes"`
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
}

// Stats returns current cache statistics.
func (c *Cache) Stats() Stats {
	items := c.store.Items()
	var size int64
	for _, item := range items {
		size += int64(len(item.Object.([]byte)))
	}
	return Stats{
		Items:  len(items),
		Bytes:  size,
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
	}
}
