package listpack

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPushBackIterGet(t *testing.T) {
	lp := New()
	require.NoError(t, lp.PushBack([]byte("a")))
	require.NoError(t, lp.PushBack([]byte("bb")))
	require.NoError(t, lp.PushBack([]byte("ccc")))

	require.Equal(t, 3, lp.Len())
	got, ok := lp.Get(1)
	require.True(t, ok)
	require.Equal(t, []byte("bb"), got)

	require.Equal(t, [][]byte{[]byte("a"), []byte("bb"), []byte("ccc")}, lp.Iter())
}

func TestPushFront(t *testing.T) {
	lp := New()
	require.NoError(t, lp.PushBack([]byte("b")))
	require.NoError(t, lp.PushFront([]byte("a")))
	require.Equal(t, [][]byte{[]byte("a"), []byte("b")}, lp.Iter())
}

func TestRemove(t *testing.T) {
	lp := New()
	lp.PushBack([]byte("a"))
	lp.PushBack([]byte("b"))
	lp.PushBack([]byte("c"))

	require.True(t, lp.Remove(1))
	require.Equal(t, [][]byte{[]byte("a"), []byte("c")}, lp.Iter())
	require.False(t, lp.Remove(5))
}

func TestFromBytesRoundTrip(t *testing.T) {
	lp := New()
	lp.PushBack([]byte("x"))
	lp.PushBack([]byte("y"))

	lp2 := FromBytes(lp.Bytes())
	require.Equal(t, lp.Iter(), lp2.Iter())
}
