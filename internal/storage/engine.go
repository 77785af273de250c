// Package storage implements the polymorphic storage engine façade:
// Memory (a single in-process shard), Cluster (a slot-routed fan-out over
// N Memory shards), and Persistent (a Memory shard replayed from and
// appended to an AOF log). All three satisfy Engine.
package storage

import (
	"time"

	"github.com/rpcpool/zumic/internal/value"
)

// Engine is the polymorphic façade every backend implements.
type Engine interface {
	Set(key string, v value.Value) error
	Get(key string) (value.Value, bool, error)
	Del(key string) (bool, error)
	MSet(entries map[string]value.Value) error
	MGet(keys []string) ([]Option, error)
	Expire(key string, ttl time.Duration) (bool, error)
	Scan(cursor uint64, match string, count int) (uint64, []string, error)

	// Mutate performs an atomic read-modify-write of key: fn receives the
	// current value (and whether it exists) and returns the new value to
	// store. It is the building block command handlers use for in-place
	// container mutation (hash field set, zset add, list push, ...)
	// without a separate Get-then-Set race.
	Mutate(key string, fn func(cur value.Value, exists bool) (value.Value, error)) error
}

// Option is a present-or-absent value, returned by MGet in request order.
type Option struct {
	Value value.Value
	Ok    bool
}
