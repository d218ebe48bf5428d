package fetch

import (
	"sync"
	"time"
)

// Cache holds the last retrieved payload for one source key with a TTL.
// The mutex is held across the fill so concurrent callers inside a TTL
// window trigger at most one fresh fetch; late arrivals get the cached
// payload. Failures are never cached.
type Cache struct {
	mu     sync.Mutex
	ttl    time.Duration
	key    string
	data   []byte
	expiry time.Time
}

// NewCache creates a payload cache. A zero or negative ttl disables caching:
// every Fetch calls fill.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{ttl: ttl}
}

// Fetch returns the cached payload for key if it is still fresh, otherwise
// runs fill and caches its result. The second return value reports whether
// the payload came from the cache.
func (c *Cache) Fetch(key string, fill func() ([]byte, error)) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ttl > 0 && c.data != nil && c.key == key && time.Now().Before(c.expiry) {
		return c.data, true, nil
	}

	data, err := fill()
	if err != nil {
		return nil, false, err
	}

	c.key = key
	c.data = data
	c.expiry = time.Now().Add(c.ttl)
	return data, false, nil
}

// Invalidate drops the cached payload. The next Fetch goes to the network
// regardless of the TTL window. This is the refresh trigger.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = nil
	c.key = ""
}
