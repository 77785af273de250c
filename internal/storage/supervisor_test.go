package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rpcpool/zumic/internal/value"
)

func TestSupervisorSweepsExpiredKeys(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.Set("k", value.NewStr("v")))
	_, err := m.Expire("k", time.Millisecond)
	require.NoError(t, err)

	sup := RunSupervisor(context.Background(), m, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, sup.Stop())

	// Scan walks stripe data directly (no lazy-expiry check), so this only
	// passes if the background sweeper actually removed the key.
	_, keys, err := m.Scan(0, "*", 10)
	require.NoError(t, err)
	require.NotContains(t, keys, "k")
}
