package expire

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestIsExpiredReflectsDeadline(t *testing.T) {
	m := New()
	now := time.Now()
	m.Set("k", now.Add(-time.Second))
	require.True(t, m.IsExpired("k", now))

	m.Set("k2", now.Add(time.Hour))
	require.False(t, m.IsExpired("k2", now))

	require.False(t, m.IsExpired("missing", now))
}

func TestSweepPopsExpiredInOrderUpToBudget(t *testing.T) {
	m := New()
	now := time.Now()
	m.Set("a", now.Add(-3*time.Second))
	m.Set("b", now.Add(-2*time.Second))
	m.Set("c", now.Add(-1*time.Second))
	m.Set("future", now.Add(time.Hour))

	got := m.Sweep(now, 2)
	require.Equal(t, []string{"a", "b"}, got)

	got = m.Sweep(now, 10)
	require.Equal(t, []string{"c"}, got)
}

func TestSweepSkipsStaleHeapEntries(t *testing.T) {
	m := New()
	now := time.Now()
	m.Set("k", now.Add(-time.Second))
	m.Remove("k")
	// Re-arm with a future deadline; the old heap entry for the expired
	// deadline must not cause a spurious expiry.
	m.Set("k", now.Add(time.Hour))

	got := m.Sweep(now, 10)
	require.Empty(t, got)
	require.True(t, func() bool { _, ok := m.Deadline("k"); return ok }())
}
