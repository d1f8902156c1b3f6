package kb

import (
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/inception-project/concept-linker-go/internal/apptype"
	"github.com/inception-project/concept-linker-go/internal/metrics"
)

// ResultCache caches query results for one read-only knowledge base, keyed by
// condition-set key. Reads are concurrent; population of a given entry is
// serialized through singleflight so identical concurrent queries trigger the
// backend at most once. Fill errors are returned to callers and never stored.
type ResultCache struct {
	kbID string

	mu      sync.RWMutex
	entries map[string][]apptype.Handle
	group   singleflight.Group
}

// NewResultCache creates an empty cache for the given knowledge base.
func NewResultCache(kbID string) *ResultCache {
	return &ResultCache{
		kbID:    kbID,
		entries: make(map[string][]apptype.Handle),
	}
}

// Get returns the cached handles for key, filling the entry via fill on a
// miss. Callers receive a copy: ranks are assigned on handles downstream and
// must not leak back into the cache.
func (c *ResultCache) Get(key string, fill func() ([]apptype.Handle, error)) ([]apptype.Handle, error) {
	c.mu.RLock()
	cached, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		metrics.Default().IncCacheHit(c.kbID)
		return copyHandles(cached), nil
	}
	metrics.Default().IncCacheMiss(c.kbID)

	v, err, _ := c.group.Do(key, func() (any, error) {
		// Another caller may have populated the entry while we waited.
		c.mu.RLock()
		cached, ok := c.entries[key]
		c.mu.RUnlock()
		if ok {
			return cached, nil
		}

		handles, err := fill()
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.entries[key] = handles
		c.mu.Unlock()
		return handles, nil
	})
	if err != nil {
		return nil, err
	}
	return copyHandles(v.([]apptype.Handle)), nil
}

// Invalidate drops all cached entries.
func (c *ResultCache) Invalidate() {
	c.mu.Lock()
	c.entries = make(map[string][]apptype.Handle)
	c.mu.Unlock()
}

// Len returns the number of cached entries.
func (c *ResultCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func copyHandles(handles []apptype.Handle) []apptype.Handle {
	return append([]apptype.Handle(nil), handles...)
}
