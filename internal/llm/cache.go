package llm

import (
	"sync"
	"time"

	"github.com/sayboard/sayboard/internal/model"
)

// cacheEntry represents a cached frame classification.
type cacheEntry struct {
	expiry         time.Time
	classification model.Classification
}

// classificationCache provides thread-safe caching of frame classifications
// keyed by frame content hash. Identical frames, common when the camera is
// stationary, skip the API round trip.
type classificationCache struct {
	entries map[string]cacheEntry
	stopCh  chan struct{}
	ttl     time.Duration
	mu      sync.RWMutex
}

func newClassificationCache(ttl time.Duration) *classificationCache {
	if ttl == 0 {
		ttl = 30 * time.Second
	}

	cache := &classificationCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		stopCh:  make(chan struct{}),
	}

	go cache.cleanup()

	return cache
}

func (c *classificationCache) get(key string) (model.Classification, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.entries[key]
	if !exists {
		return model.Classification{}, false
	}

	if time.Now().After(entry.expiry) {
		return model.Classification{}, false
	}

	return entry.classification, true
}

func (c *classificationCache) set(key string, classification model.Classification) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry{
		classification: classification,
		expiry:         time.Now().Add(c.ttl),
	}
}

// cleanup periodically removes expired entries.
func (c *classificationCache) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.mu.Lock()
			now := time.Now()
			for key, entry := range c.entries {
				if now.After(entry.expiry) {
					delete(c.entries, key)
				}
			}
			c.mu.Unlock()
		}
	}
}

func (c *classificationCache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Close stops the cleanup goroutine.
func (c *classificationCache) Close() {
	close(c.stopCh)
}
