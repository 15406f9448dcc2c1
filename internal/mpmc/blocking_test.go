package mpmc

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlockingTryPushDiscards(t *testing.T) {
	b := NewBlocking[int](2)

	require.True(t, b.TryPush(1))
	require.True(t, b.TryPush(2))
	assert.False(t, b.TryPush(3))
	assert.Equal(t, uint64(1), b.DiscardCount())

	b.ResetDiscardCount()
	assert.Equal(t, uint64(0), b.DiscardCount())
}

func TestBlockingWaitPopWakesOnPush(t *testing.T) {
	b := NewBlocking[int](4)

	got := make(chan int, 1)
	go func() {
		v, ok := b.WaitPop(context.Background())
		if ok {
			got <- v
		}
	}()

	time.Sleep(20 * time.Millisecond)
	require.True(t, b.TryPush(42))

	select {
	case v := <-got:
		assert.Equal(t, 42, v)
	case <-time.After(2 * time.Second):
		t.Fatal("waiting consumer was never woken")
	}
}

func TestBlockingWaitPushWakesOnPop(t *testing.T) {
	b := NewBlocking[int](2)
	require.True(t, b.TryPush(1))
	require.True(t, b.TryPush(2))

	done := make(chan bool, 1)
	go func() {
		done <- b.WaitPush(context.Background(), 3)
	}()

	time.Sleep(20 * time.Millisecond)
	_, ok := b.TryPop()
	require.True(t, ok)

	select {
	case ok := <-done:
		assert.True(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("waiting producer was never woken")
	}
	assert.Equal(t, int64(2), b.Size())
}

func TestBlockingWaitPopTimeout(t *testing.T) {
	b := NewBlocking[int](2)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, ok := b.WaitPop(ctx)
	assert.False(t, ok)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestBlockingWaitPushTimeoutDiscards(t *testing.T) {
	b := NewBlocking[int](2)
	require.True(t, b.TryPush(1))
	require.True(t, b.TryPush(2))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	assert.False(t, b.WaitPush(ctx, 3))
	assert.Equal(t, uint64(1), b.DiscardCount())
}

func TestBlockingCloseWakesWaiters(t *testing.T) {
	b := NewBlocking[int](2)

	var wg sync.WaitGroup
	var failed atomic.Int32
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := b.WaitPop(context.Background()); !ok {
				failed.Add(1)
			}
		}()
	}

	time.Sleep(20 * time.Millisecond)
	b.Close()
	wg.Wait()

	assert.Equal(t, int32(3), failed.Load())
	assert.True(t, b.Closed())
	assert.False(t, b.TryPush(1), "push after close must fail")
}

func TestBlockingCloseDrains(t *testing.T) {
	b := NewBlocking[int](4)
	require.True(t, b.TryPush(1))
	require.True(t, b.TryPush(2))
	b.Close()

	// Close fails pushes immediately but pending elements stay poppable.
	v, ok := b.WaitPop(context.Background())
	require.True(t, ok)
	assert.Equal(t, 1, v)
	v, ok = b.TryPop()
	require.True(t, ok)
	assert.Equal(t, 2, v)
	_, ok = b.WaitPop(context.Background())
	assert.False(t, ok)
}

func TestBlockingOverwritePush(t *testing.T) {
	b := NewBlocking[int](2)
	require.True(t, b.TryPush(1))
	require.True(t, b.TryPush(2))

	evicted, overwrote, ok := b.OverwritePush(3)
	require.True(t, ok)
	require.True(t, overwrote)
	assert.Equal(t, 1, evicted, "oldest pending element is evicted")
	assert.Equal(t, int64(2), b.Size())

	v, _ := b.TryPop()
	assert.Equal(t, 2, v)
	v, _ = b.TryPop()
	assert.Equal(t, 3, v)
}

func TestBlockingOverwritePushFastPath(t *testing.T) {
	b := NewBlocking[int](2)

	_, overwrote, ok := b.OverwritePush(1)
	require.True(t, ok)
	assert.False(t, overwrote, "no eviction while room remains")
}

func TestBlockingClearVisitsAll(t *testing.T) {
	b := NewBlocking[int](8)
	for i := 0; i < 5; i++ {
		require.True(t, b.TryPush(i))
	}

	var seen []int
	b.Clear(func(v int) { seen = append(seen, v) })

	assert.Equal(t, []int{0, 1, 2, 3, 4}, seen)
	assert.Equal(t, int64(0), b.Size())
}

func TestBlockingWaitPopBatchMin(t *testing.T) {
	b := NewBlocking[int](8)
	require.True(t, b.TryPush(1))

	go func() {
		time.Sleep(20 * time.Millisecond)
		b.TryPush(2)
		b.TryPush(3)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	got := b.WaitPopBatch(ctx, 8, 2)
	assert.GreaterOrEqual(t, len(got), 2)
	assert.Equal(t, 1, got[0])
}

func TestBlockingConcurrentAccounting(t *testing.T) {
	const (
		producers   = 4
		consumers   = 4
		perProducer = 2000
	)

	b := NewBlocking[int](64)
	ctx := context.Background()

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				if !b.WaitPush(ctx, i) {
					return
				}
			}
		}()
	}

	var popped atomic.Int64
	var cwg sync.WaitGroup
	for c := 0; c < consumers; c++ {
		cwg.Add(1)
		go func() {
			defer cwg.Done()
			for {
				if _, ok := b.WaitPop(ctx); !ok {
					return
				}
				popped.Add(1)
			}
		}()
	}

	wg.Wait()
	for b.Size() > 0 {
		time.Sleep(time.Millisecond)
	}
	b.Close()
	cwg.Wait()

	assert.Equal(t, int64(producers*perProducer), popped.Load())
	assert.Equal(t, int64(0), b.Size())
	assert.Equal(t, uint64(0), b.DiscardCount())
}
