package storage

import (
	"time"

	logging "github.com/ipfs/go-log/v2"

	"github.com/rpcpool/zumic/internal/aof"
	"github.com/rpcpool/zumic/internal/codec"
	"github.com/rpcpool/zumic/internal/snapshot"
	"github.com/rpcpool/zumic/internal/value"
)

var log = logging.Logger("storage")

// Persistent layers a Memory shard over an append-only log: every Set/Del
// is appended before being applied in-memory, whatever the sync policy;
// Mutate appends its result after the in-memory change succeeds. The log
// is replayed to reconstruct state on open.
type Persistent struct {
	mem *Memory
	w   *aof.Writer
}

// OpenPersistent replays path (if it exists) into a fresh Memory shard and
// opens it for further appends.
func OpenPersistent(path string, policy aof.SyncPolicy) (*Persistent, error) {
	records, err := aof.Replay(path, codec.CurrentVersion)
	if err != nil {
		return nil, err
	}
	mem := NewMemory()
	for _, r := range records {
		switch r.Op {
		case aof.OpSet:
			mem.LoadEntries([]snapshot.Entry{{Key: r.Key, Value: r.Value}})
		case aof.OpDel:
			mem.Del(string(r.Key))
		}
	}
	log.Infow("restored persistent shard", "path", path, "keys", len(records))

	w, err := aof.OpenWriter(path, policy, codec.CurrentVersion)
	if err != nil {
		return nil, err
	}
	return &Persistent{mem: mem, w: w}, nil
}

func (p *Persistent) Set(key string, v value.Value) error {
	if err := p.w.AppendSet([]byte(key), v); err != nil {
		return err
	}
	return p.mem.Set(key, v)
}

func (p *Persistent) Get(key string) (value.Value, bool, error) { return p.mem.Get(key) }

func (p *Persistent) Del(key string) (bool, error) {
	if err := p.w.AppendDel([]byte(key)); err != nil {
		return false, err
	}
	return p.mem.Del(key)
}

func (p *Persistent) MSet(entries map[string]value.Value) error {
	for k, v := range entries {
		if err := p.Set(k, v); err != nil {
			return err
		}
	}
	return nil
}

func (p *Persistent) MGet(keys []string) ([]Option, error) { return p.mem.MGet(keys) }

func (p *Persistent) Expire(key string, ttl time.Duration) (bool, error) {
	return p.mem.Expire(key, ttl)
}

func (p *Persistent) Mutate(key string, fn func(cur value.Value, exists bool) (value.Value, error)) error {
	var next value.Value
	var applyErr error
	err := p.mem.Mutate(key, func(cur value.Value, exists bool) (value.Value, error) {
		v, err := fn(cur, exists)
		if err != nil {
			applyErr = err
			return cur, err
		}
		next = v
		return v, nil
	})
	if err != nil || applyErr != nil {
		return err
	}
	return p.w.AppendSet([]byte(key), next)
}

func (p *Persistent) Scan(cursor uint64, match string, count int) (uint64, []string, error) {
	return p.mem.Scan(cursor, match, count)
}

// Tick drives the writer's once-per-second fsync policy; callers invoke
// this from their own timer loop.
func (p *Persistent) Tick() error { return p.w.Tick() }

// Close flushes and closes the underlying log.
func (p *Persistent) Close() error { return p.w.Close() }
