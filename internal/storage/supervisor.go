package storage

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// Supervisor drives the background maintenance tasks a storage engine
// needs but cannot schedule for itself: the TTL sweeper (Memory.Sweep) and
// the AOF fsync tick (Persistent.Tick). Both run as goroutines coordinated
// by golang.org/x/sync/errgroup, mirroring the teacher's use of errgroup to
// fan out and jointly shut down its epoch-loader goroutines in
// cmd-rpc.go.
type Supervisor struct {
	group  *errgroup.Group
	cancel context.CancelFunc
}

// sweeper is satisfied by Memory. Persistent and Cluster do not implement
// Sweep, so RunSupervisor starts no TTL sweep for them.
type sweeper interface {
	Sweep() int
}

// ticker is satisfied by Persistent.
type ticker interface {
	Tick() error
}

// RunSupervisor starts a sweeper goroutine (interval-driven TTL sweep) and,
// if eng implements ticker, an fsync-tick goroutine, both stopping when the
// returned Supervisor is Stopped or the parent context is canceled.
func RunSupervisor(ctx context.Context, eng Engine, interval time.Duration) *Supervisor {
	ctx, cancel := context.WithCancel(ctx)
	g, ctx := errgroup.WithContext(ctx)
	s := &Supervisor{group: g, cancel: cancel}

	if sw, ok := eng.(sweeper); ok {
		g.Go(func() error { return runPeriodic(ctx, interval, func() error { sw.Sweep(); return nil }) })
	}
	if tk, ok := eng.(ticker); ok {
		g.Go(func() error { return runPeriodic(ctx, interval, tk.Tick) })
	}
	return s
}

func runPeriodic(ctx context.Context, interval time.Duration, fn func() error) error {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			if err := fn(); err != nil {
				return err
			}
		}
	}
}

// Stop cancels both background goroutines and waits for them to return.
func (s *Supervisor) Stop() error {
	s.cancel()
	return s.group.Wait()
}
