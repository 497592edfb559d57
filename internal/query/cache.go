package query

import (
	"sync"
	"time"
)

// cachedResponse is one cached query result.
type cachedResponse struct {
	response   *Response
	computedAt time.Time
}

// ResultCache holds recent responses in memory so repeated polls for the
// active file don't re-run git. Keys include the HEAD commit, so a new commit
// makes old entries unreachable; they age out by TTL or are evicted oldest
// first once maxEntries is reached.
type ResultCache struct {
	mu         sync.RWMutex
	cache      map[string]*cachedResponse
	order      []string
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

// NewResultCache creates a cache. A zero ttl or maxEntries disables caching.
func NewResultCache(ttl time.Duration, maxEntries int) *ResultCache {
	return &ResultCache{
		cache:      make(map[string]*cachedResponse),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

func (c *ResultCache) enabled() bool {
	return c.ttl > 0 && c.maxEntries > 0
}

// Get returns the cached response for key if it has not expired.
func (c *ResultCache) Get(key string) (*Response, time.Time, bool) {
	if !c.enabled() {
		return nil, time.Time{}, false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	cached, found := c.cache[key]
	if !found || c.now().Sub(cached.computedAt) > c.ttl {
		return nil, time.Time{}, false
	}
	return cached.response, cached.computedAt, true
}

// Set stores a response, evicting the oldest entries beyond maxEntries.
func (c *ResultCache) Set(key string, response *Response) {
	if !c.enabled() {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.cache[key]; !exists {
		c.order = append(c.order, key)
	}
	c.cache[key] = &cachedResponse{response: response, computedAt: c.now()}

	for len(c.order) > c.maxEntries {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.cache, oldest)
	}
}

// Clear removes all cached entries.
func (c *ResultCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache = make(map[string]*cachedResponse)
	c.order = nil
}

// Size returns the number of cached entries, expired ones included.
func (c *ResultCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.cache)
}
