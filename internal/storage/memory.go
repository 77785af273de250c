package storage

import (
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/ryanuber/go-glob"

	"github.com/rpcpool/zumic/internal/dict"
	"github.com/rpcpool/zumic/internal/expire"
	"github.com/rpcpool/zumic/internal/snapshot"
	"github.com/rpcpool/zumic/internal/value"
)

// numStripes is the number of independently-locked key buckets. TTL state
// lives in its own lock (internal/expire.Map), separate from the key
// stripes, matching the "TTL structures use their own lock" rule.
const numStripes = 64

type stripe struct {
	mu   sync.RWMutex
	data *dict.Dict[value.Value]
}

// Memory is a single in-process shard: striped-lock key/value map plus a
// shared TTL map with its own lock and a background-sweeper-friendly
// Sweep hook.
type Memory struct {
	stripes     [numStripes]*stripe
	exp         *expire.Map
	sweepBudget int
}

// NewMemory creates an empty shard.
func NewMemory() *Memory {
	m := &Memory{exp: expire.New(), sweepBudget: 1000}
	for i := range m.stripes {
		m.stripes[i] = &stripe{data: dict.New[value.Value](uint64(i))}
	}
	return m
}

func stripeIndex(key string) int {
	return int(xxhash.Sum64String(key) % numStripes)
}

func (m *Memory) stripeFor(key string) *stripe {
	return m.stripes[stripeIndex(key)]
}

// expireIfDue removes key if its TTL deadline has passed, lazily, without
// holding the stripe lock across the expire-map check.
func (m *Memory) expireIfDue(key string) {
	if m.exp.IsExpired(key, timeNow()) {
		s := m.stripeFor(key)
		s.mu.Lock()
		s.data.Delete(key)
		s.mu.Unlock()
		m.exp.Remove(key)
	}
}

// timeNow is just time.Now, kept as a named func for readability at call
// sites; it is not replaceable by tests (expire owns its own clock
// abstraction in its tests).
func timeNow() time.Time { return time.Now() }

func (m *Memory) Set(key string, v value.Value) error {
	m.expireIfDue(key)
	s := m.stripeFor(key)
	s.mu.Lock()
	s.data.Set(key, v)
	s.mu.Unlock()
	m.exp.Remove(key) // a plain SET clears any previous TTL
	return nil
}

func (m *Memory) Get(key string) (value.Value, bool, error) {
	m.expireIfDue(key)
	s := m.stripeFor(key)
	s.mu.RLock()
	v, ok := s.data.Get(key)
	s.mu.RUnlock()
	return v, ok, nil
}

func (m *Memory) Del(key string) (bool, error) {
	m.expireIfDue(key)
	s := m.stripeFor(key)
	s.mu.Lock()
	_, had := s.data.Delete(key)
	s.mu.Unlock()
	m.exp.Remove(key)
	return had, nil
}

func (m *Memory) MSet(entries map[string]value.Value) error {
	for k, v := range entries {
		if err := m.Set(k, v); err != nil {
			return err
		}
	}
	return nil
}

func (m *Memory) MGet(keys []string) ([]Option, error) {
	out := make([]Option, len(keys))
	for i, k := range keys {
		v, ok, err := m.Get(k)
		if err != nil {
			return nil, err
		}
		out[i] = Option{Value: v, Ok: ok}
	}
	return out, nil
}

func (m *Memory) Expire(key string, ttl time.Duration) (bool, error) {
	m.expireIfDue(key)
	s := m.stripeFor(key)
	s.mu.RLock()
	_, ok := s.data.Get(key)
	s.mu.RUnlock()
	if !ok {
		return false, nil
	}
	m.exp.Set(key, timeNow().Add(ttl))
	return true, nil
}

func (m *Memory) Mutate(key string, fn func(cur value.Value, exists bool) (value.Value, error)) error {
	m.expireIfDue(key)
	s := m.stripeFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.data.Get(key)
	next, err := fn(cur, ok)
	if err != nil {
		return err
	}
	s.data.Set(key, next)
	return nil
}

// Scan gathers every live key matching a glob pattern, then returns a
// count-sized page starting at cursor. Unlike Redis's cursor-stable
// reverse-binary iteration, this snapshots the full matching key list per
// call: simpler, and sufficient for a single in-process shard where SCAN
// is not required to survive concurrent resizes mid-iteration.
func (m *Memory) Scan(cursor uint64, match string, count int) (uint64, []string, error) {
	var all []string
	for _, s := range m.stripes {
		s.mu.RLock()
		for _, e := range s.data.Iter() {
			if match == "" || match == "*" || glob.Glob(match, e.Key) {
				all = append(all, e.Key)
			}
		}
		s.mu.RUnlock()
	}
	if cursor >= uint64(len(all)) {
		return 0, nil, nil
	}
	end := cursor + uint64(count)
	if end > uint64(len(all)) {
		end = uint64(len(all))
	}
	page := all[cursor:end]
	next := end
	if next >= uint64(len(all)) {
		next = 0
	}
	return next, page, nil
}

// Sweep removes up to the shard's per-tick budget of expired keys. It is
// driven periodically by Supervisor (see supervisor.go) or by any other
// caller's timer.
func (m *Memory) Sweep() int {
	expired := m.exp.Sweep(timeNow(), m.sweepBudget)
	for _, key := range expired {
		s := m.stripeFor(key)
		s.mu.Lock()
		s.data.Delete(key)
		s.mu.Unlock()
	}
	return len(expired)
}

// SnapshotEntries implements snapshot.Source by walking every stripe
// under its read lock.
func (m *Memory) SnapshotEntries() ([]snapshot.Entry, error) {
	var out []snapshot.Entry
	for _, s := range m.stripes {
		s.mu.RLock()
		for _, e := range s.data.Iter() {
			out = append(out, snapshot.Entry{Key: []byte(e.Key), Value: e.Value})
		}
		s.mu.RUnlock()
	}
	return out, nil
}

// LoadEntries installs entries directly, bypassing TTL bookkeeping; used
// to restore a shard from a snapshot or AOF replay at startup.
func (m *Memory) LoadEntries(entries []snapshot.Entry) {
	for _, e := range entries {
		s := m.stripeFor(string(e.Key))
		s.mu.Lock()
		s.data.Set(string(e.Key), e.Value)
		s.mu.Unlock()
	}
}
