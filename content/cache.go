package content

import "sync"

// bodyCache remembers extracted post bodies by URL for the process lifetime,
// so re-running a harvest with overlapping results does not refetch pages.
// Safe for concurrent use.
type bodyCache struct {
	mu         sync.RWMutex
	store      map[string]string
	maxEntries int
}

func newBodyCache(maxEntries int) *bodyCache {
	return &bodyCache{
		store:      make(map[string]string),
		maxEntries: maxEntries,
	}
}

func (c *bodyCache) get(url string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	body, ok := c.store[url]
	return body, ok
}

func (c *bodyCache) set(url, body string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	// Evict one random entry at capacity (map iteration is random in Go).
	if len(c.store) >= c.maxEntries {
		for k := range c.store {
			delete(c.store, k)
			break
		}
	}
	c.store[url] = body
}
