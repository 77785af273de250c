package sds

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInlineRoundTrip(t *testing.T) {
	s := FromString("hello")
	require.Equal(t, 5, s.Len())
	require.Equal(t, []byte("hello"), s.Bytes())
	str, err := s.AsString()
	require.NoError(t, err)
	require.Equal(t, "hello", str)
}

func TestInlineToHeapTransitionPreservesContent(t *testing.T) {
	s := FromString(strings.Repeat("a", inlineCap))
	require.Equal(t, inlineCap, s.Len())
	require.False(t, s.isHeap())

	s.Push('b')
	require.True(t, s.isHeap())
	require.Equal(t, inlineCap+1, s.Len())
	require.Equal(t, strings.Repeat("a", inlineCap)+"b", string(s.Bytes()))
}

func TestHeapNeverTransitionsBackToInline(t *testing.T) {
	s := FromString(strings.Repeat("x", inlineCap+10))
	require.True(t, s.isHeap())
	s.Clear()
	require.True(t, s.isHeap())
	require.Equal(t, 0, s.Len())
}

func TestClearPreservesCapacity(t *testing.T) {
	s := FromString(strings.Repeat("y", 100))
	capBefore := cap(s.heap)
	s.Clear()
	require.Equal(t, capBefore, cap(s.heap))
	s.Append([]byte("short"))
	require.LessOrEqual(t, cap(s.heap), capBefore)
}

func TestAppendGrowsMonotonically(t *testing.T) {
	s := &Sds{}
	for i := 0; i < 1000; i++ {
		s.Push(byte('a' + i%26))
	}
	require.Equal(t, 1000, s.Len())
}

func TestAsStringRejectsInvalidUTF8(t *testing.T) {
	s := FromBytes([]byte{0xff, 0xfe, 0xfd})
	_, err := s.AsString()
	require.Error(t, err)
}

func TestSliceRange(t *testing.T) {
	s := FromString("hello world")
	require.Equal(t, []byte("hello"), s.SliceRange(0, 5))
	require.Equal(t, []byte("world"), s.SliceRange(6, 11))
}
