package pool

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPool(workers int, queueCap uint64) *Pool {
	p := NewSize(workers, queueCap)
	p.Start()
	return p
}

func TestPoolLifecycle(t *testing.T) {
	p := NewSize(2, 16)
	assert.Equal(t, StateCreated, p.State())

	p.Start()
	assert.Equal(t, StateRunning, p.State())
	assert.Equal(t, int64(2), p.CurrentWorkers())

	// A second start is a no-op.
	p.Start()
	assert.Equal(t, StateRunning, p.State())

	p.Stop(StopGraceful)
	assert.Equal(t, StateStopped, p.State())
	assert.Equal(t, int64(0), p.CurrentWorkers())

	// Stopping again is a no-op.
	p.Stop(StopGraceful)
	assert.Equal(t, StateStopped, p.State())
}

func TestPoolStopFromCreated(t *testing.T) {
	p := NewSize(2, 16)
	p.Stop(StopGraceful)
	assert.Equal(t, StateStopped, p.State())
}

func TestPoolPostExecutes(t *testing.T) {
	p := newTestPool(2, 16)
	defer p.Stop(StopGraceful)

	var ran atomic.Int32
	for i := 0; i < 10; i++ {
		require.True(t, p.Post(func() { ran.Add(1) }))
	}

	assert.Eventually(t, func() bool { return ran.Load() == 10 },
		2*time.Second, 5*time.Millisecond)
}

func TestPoolPostRejectedWhenNotRunning(t *testing.T) {
	p := NewSize(1, 8)
	assert.False(t, p.Post(func() {}))
	assert.Equal(t, uint64(1), p.Statistics().TotalRejected)

	p.Start()
	p.Stop(StopGraceful)
	assert.False(t, p.Post(func() {}))
}

func TestPoolSubmitFuture(t *testing.T) {
	p := newTestPool(2, 16)
	defer p.Stop(StopGraceful)

	fut, err := Submit(p, func() (int, error) {
		return 6 * 7, nil
	})
	require.NoError(t, err)

	v, err := fut.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestPoolSubmitTaskError(t *testing.T) {
	p := newTestPool(1, 8)
	defer p.Stop(StopGraceful)

	fut, err := Submit(p, func() (string, error) {
		return "", assert.AnError
	})
	require.NoError(t, err)

	_, err = fut.Wait(context.Background())
	assert.ErrorIs(t, err, assert.AnError)
}

func TestPoolSubmitRejectedWhenNotRunning(t *testing.T) {
	p := NewSize(1, 8)
	_, err := Submit(p, func() (int, error) { return 0, nil })
	assert.Error(t, err)
}

func TestPoolTaskPanicCountsFailed(t *testing.T) {
	p := newTestPool(1, 8)

	fut, err := Submit(p, func() (int, error) {
		panic("boom")
	})
	require.NoError(t, err)

	_, err = fut.Wait(context.Background())
	assert.ErrorContains(t, err, "task panicked")

	p.Stop(StopGraceful)
	stats := p.Statistics()
	assert.Equal(t, uint64(1), stats.TotalFailed)
	assert.Equal(t, uint64(0), stats.TotalCompleted)
}

func TestPoolGracefulDrainAccounting(t *testing.T) {
	p := newTestPool(4, 64)

	const n = 200
	var ran atomic.Int64
	for i := 0; i < n; i++ {
		require.True(t, p.Post(func() { ran.Add(1) }))
	}
	p.Stop(StopGraceful)

	// Graceful stop runs everything already accepted.
	assert.Equal(t, int64(n), ran.Load())
	stats := p.Statistics()
	assert.Equal(t, uint64(n), stats.TotalSubmitted)
	assert.Equal(t, stats.TotalSubmitted, stats.TotalCompleted+stats.TotalFailed)
	assert.Equal(t, int64(0), stats.PendingTasks)
	assert.Greater(t, stats.TotalExecTime, time.Duration(0))
}

func TestPoolForceStopCancelsBacklog(t *testing.T) {
	p := newTestPool(1, 8)

	release := make(chan struct{})
	started := make(chan struct{})
	require.True(t, p.Post(func() {
		close(started)
		<-release
	}))
	<-started

	fut, err := Submit(p, func() (int, error) { return 1, nil })
	require.NoError(t, err)

	close(release)
	p.Stop(StopForce)

	_, err = fut.Wait(context.Background())
	if err != nil {
		assert.ErrorContains(t, err, "force stopped")
		assert.GreaterOrEqual(t, p.Statistics().TotalCancelled, uint64(1))
	}
	assert.Equal(t, StateStopped, p.State())
	assert.Equal(t, int64(0), p.Pending())
}

func TestPoolPauseResume(t *testing.T) {
	p := newTestPool(2, 16)
	defer p.Stop(StopGraceful)

	p.Pause()
	require.True(t, p.Paused())

	var ran atomic.Int32
	posted := make(chan struct{})
	go func() {
		p.Post(func() { ran.Add(1) })
		close(posted)
	}()

	// The producer parks while paused.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), ran.Load())
	assert.Greater(t, p.PauseWaits(), uint64(0))

	p.Resume()
	require.True(t, p.Running())
	<-posted
	assert.Eventually(t, func() bool { return ran.Load() == 1 },
		2*time.Second, 5*time.Millisecond)
}

func TestPoolIllegalTransitionsIgnored(t *testing.T) {
	p := NewSize(1, 8)

	p.Pause()
	assert.Equal(t, StateCreated, p.State(), "pause from CREATED is a no-op")
	p.Resume()
	assert.Equal(t, StateCreated, p.State(), "resume from CREATED is a no-op")

	p.Start()
	p.Resume()
	assert.Equal(t, StateRunning, p.State(), "resume while RUNNING is a no-op")
	p.Stop(StopGraceful)
}

func TestPoolDiscardPolicy(t *testing.T) {
	p := newTestPool(1, 2)
	defer p.Stop(StopForce)
	p.SetPolicy(PolicyDiscard)

	release := make(chan struct{})
	started := make(chan struct{})
	require.True(t, p.Post(func() {
		close(started)
		<-release
	}))
	<-started

	// Fill the queue, then overflow it.
	require.True(t, p.Post(func() {}))
	require.True(t, p.Post(func() {}))

	fut, err := Submit(p, func() (int, error) { return 0, nil })
	require.NoError(t, err)
	_, err = fut.Wait(context.Background())
	assert.ErrorContains(t, err, "discarded")
	assert.Equal(t, uint64(1), p.DiscardedTasks())
	assert.Equal(t, uint64(1), p.Statistics().TotalRejected)

	close(release)
}

func TestPoolOverwritePolicy(t *testing.T) {
	p := newTestPool(1, 2)
	defer p.Stop(StopGraceful)
	p.SetPolicy(PolicyOverwrite)

	release := make(chan struct{})
	started := make(chan struct{})
	require.True(t, p.Post(func() {
		close(started)
		<-release
	}))
	<-started

	oldest, err := Submit(p, func() (int, error) { return 1, nil })
	require.NoError(t, err)
	second, err := Submit(p, func() (int, error) { return 2, nil })
	require.NoError(t, err)
	newest, err := Submit(p, func() (int, error) { return 3, nil })
	require.NoError(t, err)

	// The oldest queued task was evicted and cancelled.
	_, err = oldest.Wait(context.Background())
	assert.ErrorContains(t, err, "overwritten")
	assert.Equal(t, uint64(1), p.OverwrittenTasks())
	assert.Equal(t, uint64(1), p.Statistics().TotalCancelled)

	close(release)

	v, err := second.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, v)
	v, err = newest.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, v)
}

func TestPoolShutdownTimeoutEscalates(t *testing.T) {
	p := newTestPool(1, 8)

	release := make(chan struct{})
	started := make(chan struct{})
	require.True(t, p.Post(func() {
		close(started)
		<-release
	}))
	<-started
	var queuedRan atomic.Bool
	require.True(t, p.Post(func() { queuedRan.Store(true) }))

	done := make(chan struct{})
	go func() {
		p.Shutdown(ShutdownTimeout, 50*time.Millisecond)
		close(done)
	}()

	// Wait past the deadline so the escalation clears the backlog, then let
	// the stuck task finish.
	assert.Eventually(t, func() bool { return p.State() == StateForceStopping },
		5*time.Second, 5*time.Millisecond)
	close(release)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("shutdown never completed")
	}
	assert.Equal(t, StateStopped, p.State())
	assert.False(t, queuedRan.Load(), "queued task should have been cancelled")
	assert.GreaterOrEqual(t, p.Statistics().TotalCancelled, uint64(1))
}

func TestPoolPostBatch(t *testing.T) {
	p := newTestPool(2, 64)

	var ran atomic.Int32
	fns := make([]func(), 20)
	for i := range fns {
		fns[i] = func() { ran.Add(1) }
	}
	count := p.PostBatch(fns)
	assert.Equal(t, 20, count)

	p.Stop(StopGraceful)
	assert.Equal(t, int32(20), ran.Load())

	assert.Equal(t, 0, p.PostBatch(fns), "batch rejected once stopped")
}

func TestPoolScalesUpUnderLoad(t *testing.T) {
	cfg := DefaultConfig()
	cfg.QueueCap = 256
	cfg.CoreWorkers = 1
	cfg.MaxWorkers = 4
	cfg.LoadCheckInterval = 10 * time.Millisecond
	cfg.Cooldown = 10 * time.Millisecond
	cfg.DebounceHits = 2
	cfg.PendingHi = 4
	p := New(cfg)
	p.Start()
	defer p.Stop(StopForce)

	release := make(chan struct{})
	for i := 0; i < 64; i++ {
		p.Post(func() { <-release })
	}

	assert.Eventually(t, func() bool { return p.CurrentWorkers() > 1 },
		5*time.Second, 10*time.Millisecond, "controller should add workers under backlog")
	close(release)
}

func TestPoolScalesDownWhenIdle(t *testing.T) {
	cfg := DefaultConfig()
	cfg.QueueCap = 256
	cfg.CoreWorkers = 1
	cfg.MaxWorkers = 4
	cfg.LoadCheckInterval = 10 * time.Millisecond
	cfg.Cooldown = 10 * time.Millisecond
	cfg.DebounceHits = 2
	cfg.PendingHi = 4
	cfg.PendingLow = 1
	p := New(cfg)
	p.Start()
	defer p.Stop(StopForce)

	release := make(chan struct{})
	for i := 0; i < 64; i++ {
		p.Post(func() { <-release })
	}
	assert.Eventually(t, func() bool { return p.CurrentWorkers() > 1 },
		5*time.Second, 10*time.Millisecond)
	close(release)

	// Idle again; the controller retires the extras down to core.
	assert.Eventually(t, func() bool { return p.CurrentWorkers() == 1 },
		10*time.Second, 10*time.Millisecond)
	stats := p.Statistics()
	assert.Greater(t, stats.TotalWorkersDestroyed, uint64(0))
	assert.GreaterOrEqual(t, stats.PeakWorkers, int64(2))
}

func TestPoolResetStatistics(t *testing.T) {
	p := newTestPool(1, 8)

	require.True(t, p.Post(func() {}))
	p.Stop(StopGraceful)
	require.Greater(t, p.Statistics().TotalSubmitted, uint64(0))

	p.ResetStatistics()
	stats := p.Statistics()
	assert.Equal(t, uint64(0), stats.TotalSubmitted)
	assert.Equal(t, uint64(0), stats.TotalCompleted)
	assert.Equal(t, time.Duration(0), stats.TotalExecTime)
}
