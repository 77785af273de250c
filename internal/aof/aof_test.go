package aof

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rpcpool/zumic/internal/codec"
	"github.com/rpcpool/zumic/internal/value"
)

func TestAppendAndReplay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "log.aof")

	w, err := OpenWriter(path, SyncAlways, codec.CurrentVersion)
	require.NoError(t, err)
	require.NoError(t, w.AppendSet([]byte("k1"), value.NewStr("v1")))
	require.NoError(t, w.AppendSet([]byte("k2"), value.Int{N: 7}))
	require.NoError(t, w.AppendDel([]byte("k1")))
	require.NoError(t, w.Close())

	records, err := Replay(path, codec.CurrentVersion)
	require.NoError(t, err)
	require.Len(t, records, 3)
	require.Equal(t, OpSet, records[0].Op)
	require.Equal(t, OpSet, records[1].Op)
	require.Equal(t, OpDel, records[2].Op)
	require.Equal(t, []byte("k1"), records[2].Key)
}

func TestReplayMissingFileIsEmpty(t *testing.T) {
	records, err := Replay(filepath.Join(t.TempDir(), "missing.aof"), codec.CurrentVersion)
	require.NoError(t, err)
	require.Empty(t, records)
}

func TestReplayToleratesTruncatedTail(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "log.aof")

	w, err := OpenWriter(path, SyncAlways, codec.CurrentVersion)
	require.NoError(t, err)
	require.NoError(t, w.AppendSet([]byte("complete"), value.NewStr("ok")))
	require.NoError(t, w.Close())

	// Simulate a crash mid-write: append a partial record (op + key length
	// 5, but only 4 key bytes and no value).
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0o644)
	require.NoError(t, err)
	_, err = f.Write([]byte{byte(OpSet), 0, 0, 0, 5, 'p', 'a', 'r', 't'})
	require.NoError(t, err)
	require.NoError(t, f.Close())

	records, err := Replay(path, codec.CurrentVersion)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, []byte("complete"), records[0].Key)
}
