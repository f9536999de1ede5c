// Package cache provides a bounded, time-expiring result cache in
// front of the classification engine.
package cache

import (
	"container/list"
	"sync"
	"time"

	"github.com/saffronlabs/saffron/internal/model"
)

const (
	defaultTTL        = 15 * time.Minute
	defaultMaxEntries = 1000
	cleanupInterval   = 5 * time.Minute
)

type cacheEntry struct {
	expiry time.Time
	key    string
	result model.ClassificationResult
}

// ResultCache is a thread-safe TTL cache with LRU eviction. It is an
// optimization layer only: the engine's answers must be identical
// with the cache disabled.
type ResultCache struct {
	entries    map[string]*list.Element
	order      *list.List
	stopCh     chan struct{}
	ttl        time.Duration
	maxEntries int
	mu         sync.Mutex
}

// Option adjusts cache construction.
type Option func(*ResultCache)

// WithTTL overrides the entry lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(c *ResultCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithMaxEntries overrides the capacity bound.
func WithMaxEntries(max int) Option {
	return func(c *ResultCache) {
		if max > 0 {
			c.maxEntries = max
		}
	}
}

// New creates a cache and starts its background cleanup goroutine.
// Callers own the lifecycle and must Close it.
func New(opts ...Option) *ResultCache {
	c := &ResultCache{
		entries:    make(map[string]*list.Element),
		order:      list.New(),
		ttl:        defaultTTL,
		maxEntries: defaultMaxEntries,
		stopCh:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	go c.cleanup()

	return c
}

// Get retrieves a cached result. Expired entries are purged on the
// spot; a hit refreshes the entry's recency.
func (c *ResultCache) Get(key string) (model.ClassificationResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, exists := c.entries[key]
	if !exists {
		return model.ClassificationResult{}, false
	}

	entry := elem.Value.(*cacheEntry)
	if time.Now().After(entry.expiry) {
		c.removeLocked(elem)
		return model.ClassificationResult{}, false
	}

	c.order.MoveToFront(elem)
	return entry.result, true
}

// Set inserts or overwrites a result, evicting the least recently
// used entry when over capacity.
func (c *ResultCache) Set(key string, result model.ClassificationResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, exists := c.entries[key]; exists {
		entry := elem.Value.(*cacheEntry)
		entry.result = result
		entry.expiry = time.Now().Add(c.ttl)
		c.order.MoveToFront(elem)
		return
	}

	elem := c.order.PushFront(&cacheEntry{
		key:    key,
		result: result,
		expiry: time.Now().Add(c.ttl),
	})
	c.entries[key] = elem

	for len(c.entries) > c.maxEntries {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		c.removeLocked(oldest)
	}
}

// Size returns the number of live entries.
func (c *ResultCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear removes all entries.
func (c *ResultCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*list.Element)
	c.order.Init()
}

// Close stops the cleanup goroutine.
func (c *ResultCache) Close() {
	close(c.stopCh)
}

func (c *ResultCache) removeLocked(elem *list.Element) {
	entry := elem.Value.(*cacheEntry)
	c.order.Remove(elem)
	delete(c.entries, entry.key)
}

// cleanup periodically removes expired entries.
func (c *ResultCache) cleanup() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			now := time.Now()
			c.mu.Lock()
			for elem := c.order.Back(); elem != nil; {
				prev := elem.Prev()
				if now.After(elem.Value.(*cacheEntry).expiry) {
					c.removeLocked(elem)
				}
				elem = prev
			}
			c.mu.Unlock()
		}
	}
}
