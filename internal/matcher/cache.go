package matcher

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// Cache memoises a Cluster() result keyed by the exact set of titles
// currently in the buffer, for the bounded TTL named in spec.md §4.5
// ("a cache in front of the matcher ... prevents recomputation per read
// request"). Adapted from cryptorun's data/cache/cache.go in-memory
// Cache variant — the matcher's cache is purely in-process, so the
// Redis-backed variant that package also offers has no role here.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	key     string
	result  Result
	expires time.Time
}

// NewCache creates a Cache with the given TTL.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{ttl: ttl}
}

// Get runs Cluster(inputs) if the cache is empty, expired, or the input
// set has changed since the last call; otherwise it returns the cached
// result.
func (c *Cache) Get(inputs []Input) Result {
	key := cacheKey(inputs)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.key == key && time.Now().Before(c.expires) {
		return c.result
	}

	result := Cluster(inputs)
	c.key = key
	c.result = result
	c.expires = time.Now().Add(c.ttl)
	return result
}

// Invalidate forces the next Get to recompute regardless of TTL, used
// after a forced recluster.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expires = time.Time{}
}

func cacheKey(inputs []Input) string {
	titles := make([]string, len(inputs))
	for i, in := range inputs {
		titles[i] = in.Venue + "\x00" + in.Title
	}
	sort.Strings(titles)
	return strings.Join(titles, "\x1f")
}
