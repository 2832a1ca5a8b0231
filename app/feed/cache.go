package feed

import (
	"sync"
	"time"
)

const DefaultCacheTTL = 30 * time.Minute

// SnapshotCache holds the latest snapshot per source. Snapshots are copied
// in and out so cached state is never shared with callers.
type SnapshotCache struct {
	ttl       time.Duration
	now       func() time.Time
	snapshots map[string]Snapshot
	mu        sync.RWMutex
}

func NewSnapshotCache(ttl time.Duration) *SnapshotCache {
	return NewSnapshotCacheWithClock(ttl, time.Now)
}

func NewSnapshotCacheWithClock(ttl time.Duration, now func() time.Time) *SnapshotCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &SnapshotCache{
		ttl:       ttl,
		now:       now,
		snapshots: make(map[string]Snapshot),
	}
}

func (c *SnapshotCache) Get(source string) (Snapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s, ok := c.snapshots[source]
	if !ok {
		return Snapshot{}, false
	}
	return s.clone(), true
}

// GetFresh returns the snapshot only while it is within the TTL.
func (c *SnapshotCache) GetFresh(source string) (Snapshot, bool) {
	s, ok := c.Get(source)
	if !ok || !c.IsFresh(s) {
		return Snapshot{}, false
	}
	return s, true
}

func (c *SnapshotCache) Put(s Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshots[s.Source] = s.clone()
}

func (c *SnapshotCache) IsFresh(s Snapshot) bool {
	return c.now().Sub(s.LastUpdated) < c.ttl
}

func (c *SnapshotCache) TTL() time.Duration {
	return c.ttl
}

func (c *SnapshotCache) Now() time.Time {
	return c.now()
}

func (c *SnapshotCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.snapshots)
}
