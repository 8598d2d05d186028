package cache

import (
	"context"
	"sync/atomic"

	"github.com/mlourenco/civics-tutor/pkg/log"
)

// Content is the cache surface the pipelines use. It never propagates
// storage errors past its contract: a failed read degrades to a miss and a
// failed write is logged and dropped, so the caller's primary operation is
// never interrupted by the cache.
type Content struct {
	store  *Store
	hits   atomic.Int64
	misses atomic.Int64
}

func NewContent(store *Store) *Content {
	return &Content{store: store}
}

// Get reads an entry into dest. Returns false on miss or on any internal
// storage error.
func (c *Content) Get(ctx context.Context, ns Namespace, key string, dest any) bool {
	ok, err := c.store.Get(ctx, ns, key, dest)
	if err != nil {
		log.Warn("cache read %s/%s failed, treating as miss: %v", ns, key, err)
		c.misses.Add(1)
		return false
	}
	if !ok {
		c.misses.Add(1)
		return false
	}
	c.hits.Add(1)
	return true
}

// Put writes an entry. Write failures are non-fatal and only logged.
func (c *Content) Put(ctx context.Context, ns Namespace, key string, payload any) {
	if err := c.store.Put(ctx, ns, key, payload); err != nil {
		log.Warn("cache write %s/%s failed: %v", ns, key, err)
	}
}

// Stats describes cache usage across namespaces.
type Stats struct {
	Entries map[Namespace]int64 `json:"entries"`
	Hits    int64               `json:"hits"`
	Misses  int64               `json:"misses"`
}

// Stats returns per-namespace entry counts plus process-lifetime hit/miss
// counters. Count errors degrade to zero for the affected namespace.
func (c *Content) Stats(ctx context.Context) Stats {
	entries := make(map[Namespace]int64, len(Namespaces()))
	for _, ns := range Namespaces() {
		count, err := c.store.Count(ctx, ns)
		if err != nil {
			log.Warn("cache stats for %s failed: %v", ns, err)
		}
		entries[ns] = count
	}
	return Stats{
		Entries: entries,
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
	}
}
