package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rpcpool/zumic/internal/aof"
	"github.com/rpcpool/zumic/internal/value"
)

func TestPersistentSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shard.aof")

	p, err := OpenPersistent(path, aof.SyncAlways)
	require.NoError(t, err)
	require.NoError(t, p.Set("k1", value.NewStr("v1")))
	require.NoError(t, p.Set("k2", value.Int{N: 9}))
	_, err = p.Del("k1")
	require.NoError(t, err)
	require.NoError(t, p.Close())

	p2, err := OpenPersistent(path, aof.SyncAlways)
	require.NoError(t, err)
	_, ok, err := p2.Get("k1")
	require.NoError(t, err)
	require.False(t, ok)
	v, ok, err := p2.Get("k2")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(9), v.(value.Int).N)
}

func TestPersistentMutateAppendsLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shard.aof")
	p, err := OpenPersistent(path, aof.SyncAlways)
	require.NoError(t, err)
	inc := func(cur value.Value, exists bool) (value.Value, error) {
		if !exists {
			return value.Int{N: 1}, nil
		}
		return value.Int{N: cur.(value.Int).N + 1}, nil
	}
	require.NoError(t, p.Mutate("counter", inc))
	require.NoError(t, p.Mutate("counter", inc))
	require.NoError(t, p.Close())

	p2, err := OpenPersistent(path, aof.SyncAlways)
	require.NoError(t, err)
	v, ok, err := p2.Get("counter")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(2), v.(value.Int).N)
}
