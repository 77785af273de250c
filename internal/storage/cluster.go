package storage

import (
	"time"

	"github.com/rpcpool/zumic/internal/slot"
	"github.com/rpcpool/zumic/internal/value"
	"github.com/rpcpool/zumic/internal/zerr"
)

// Cluster fans out over N Memory shards, routing each key by its slot.
// Multi-key operations whose keys map to different shards fail with
// WrongShard unless hash-tags co-locate them (internal/slot).
type Cluster struct {
	shards []*Memory
}

// NewCluster creates a Cluster with n independent in-memory shards.
func NewCluster(n int) *Cluster {
	if n < 1 {
		n = 1
	}
	c := &Cluster{shards: make([]*Memory, n)}
	for i := range c.shards {
		c.shards[i] = NewMemory()
	}
	return c
}

func (c *Cluster) shardFor(key string) *Memory {
	idx := int(slot.Of([]byte(key))) % len(c.shards)
	return c.shards[idx]
}

func (c *Cluster) Set(key string, v value.Value) error {
	return c.shardFor(key).Set(key, v)
}

func (c *Cluster) Get(key string) (value.Value, bool, error) {
	return c.shardFor(key).Get(key)
}

func (c *Cluster) Del(key string) (bool, error) {
	return c.shardFor(key).Del(key)
}

// sameShard requires every key to route to the same shard, returning
// WrongShard for the first key that doesn't.
func (c *Cluster) sameShard(keys []string) (*Memory, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	first := c.shardFor(keys[0])
	for _, k := range keys[1:] {
		if c.shardFor(k) != first {
			return nil, zerr.WrongShard(k)
		}
	}
	return first, nil
}

func (c *Cluster) MSet(entries map[string]value.Value) error {
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	shard, err := c.sameShard(keys)
	if err != nil {
		return err
	}
	if shard == nil {
		return nil
	}
	return shard.MSet(entries)
}

func (c *Cluster) MGet(keys []string) ([]Option, error) {
	shard, err := c.sameShard(keys)
	if err != nil {
		return nil, err
	}
	if shard == nil {
		return nil, nil
	}
	return shard.MGet(keys)
}

func (c *Cluster) Expire(key string, ttl time.Duration) (bool, error) {
	return c.shardFor(key).Expire(key, ttl)
}

func (c *Cluster) Mutate(key string, fn func(cur value.Value, exists bool) (value.Value, error)) error {
	return c.shardFor(key).Mutate(key, fn)
}

// Scan returns a page from one shard per call, skipping empty shards;
// cursor encodes (shardIndex, withinShardCursor) so callers can resume
// across shard boundaries.
func (c *Cluster) Scan(cursor uint64, match string, count int) (uint64, []string, error) {
	shardIdx := cursor >> 32
	withinCursor := cursor & 0xFFFFFFFF
	for int(shardIdx) < len(c.shards) {
		next, keys, err := c.shards[shardIdx].Scan(withinCursor, match, count)
		if err != nil {
			return 0, nil, err
		}
		if len(keys) > 0 {
			if next == 0 {
				shardIdx++
				withinCursor = 0
			} else {
				withinCursor = next
			}
			if shardIdx >= uint64(len(c.shards)) {
				return 0, keys, nil
			}
			return shardIdx<<32 | withinCursor, keys, nil
		}
		shardIdx++
		withinCursor = 0
	}
	return 0, nil, nil
}

// Shards exposes the underlying shards for snapshot/replay orchestration.
func (c *Cluster) Shards() []*Memory { return c.shards }
