// Package expire implements the per-shard TTL bookkeeping: an absolute
// deadline index backed by jellydator/ttlcache (generic, O(1) bookkeeping)
// plus a monotonic min-heap of (deadline, key) pairs so a background
// sweeper can pop expired keys in batches without scanning the whole
// keyspace. The heap is never updated on Remove; stale entries are
// filtered out at pop time, per spec.md's TTL design note.
package expire

import (
	"container/heap"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// Map tracks absolute expiration deadlines for keys in one shard.
type Map struct {
	mu  sync.Mutex
	ttl *ttlcache.Cache[string, time.Time]
	pq  deadlineHeap
}

// New creates an empty expiration map.
func New() *Map {
	m := &Map{
		ttl: ttlcache.New[string, time.Time](ttlcache.WithDisableTouchOnHit[string, time.Time]()),
	}
	heap.Init(&m.pq)
	return m
}

// Set records an absolute deadline for key, overwriting any previous one.
// The backing ttlcache entry itself never auto-expires (ttlcache.NoTTL):
// logical expiry is decided by comparing the stored deadline against the
// caller's clock in IsExpired/Sweep, not by ttlcache's own eviction timer.
func (m *Map) Set(key string, deadline time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ttl.Set(key, deadline, ttlcache.NoTTL)
	heap.Push(&m.pq, deadlineEntry{key: key, deadline: deadline})
}

// Remove clears any deadline for key. The corresponding heap entry, if
// any, is left in place and discarded lazily when popped (see Sweep).
func (m *Map) Remove(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ttl.Delete(key)
}

// Deadline returns the current absolute deadline for key, if any.
func (m *Map) Deadline(key string) (time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item := m.ttl.Get(key)
	if item == nil {
		return time.Time{}, false
	}
	return item.Value(), true
}

// IsExpired reports whether key has a deadline that has passed. A key with
// no deadline is never expired.
func (m *Map) IsExpired(key string, now time.Time) bool {
	deadline, ok := m.Deadline(key)
	if !ok {
		return false
	}
	return !now.Before(deadline)
}

// Sweep pops up to budget expired (deadline, key) pairs in deadline order,
// skipping stale heap entries whose key was since removed or re-armed with
// a different deadline. It's intended to be called periodically by a
// background goroutine.
func (m *Map) Sweep(now time.Time, budget int) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var expired []string
	for len(expired) < budget && m.pq.Len() > 0 {
		top := m.pq[0]
		if top.deadline.After(now) {
			break
		}
		heap.Pop(&m.pq)

		item := m.ttl.Get(top.key)
		if item == nil || item.Value() != top.deadline {
			continue // stale: removed or re-armed since this entry was pushed
		}
		m.ttl.Delete(top.key)
		expired = append(expired, top.key)
	}
	return expired
}

// Len returns the number of keys currently carrying a deadline.
func (m *Map) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ttl.Len()
}

type deadlineEntry struct {
	key      string
	deadline time.Time
}

type deadlineHeap []deadlineEntry

func (h deadlineHeap) Len() int { return len(h) }
func (h deadlineHeap) Less(i, j int) bool {
	return h[i].deadline.Before(h[j].deadline)
}
func (h deadlineHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *deadlineHeap) Push(x any) {
	*h = append(*h, x.(deadlineEntry))
}

func (h *deadlineHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
