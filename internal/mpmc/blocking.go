package mpmc

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Blocking wraps Queue with suspension and close semantics. The lock-free
// fast path is always attempted first; waiters park on unit-capacity signal
// channels and chain wakeups forward, so a notify reaches one waiter and
// each satisfied waiter re-signals while room (or work) remains.
type Blocking[T any] struct {
	q *Queue[T]

	notFull  chan struct{}
	notEmpty chan struct{}
	closeCh  chan struct{}
	closeOne sync.Once

	// Serializes the pop-then-push window of OverwritePush.
	overwriteMu sync.Mutex

	pending  atomic.Int64
	discards atomic.Uint64
}

func NewBlocking[T any](capacity uint64) *Blocking[T] {
	return &Blocking[T]{
		q:        NewQueue[T](capacity),
		notFull:  make(chan struct{}, 1),
		notEmpty: make(chan struct{}, 1),
		closeCh:  make(chan struct{}),
	}
}

func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

func (b *Blocking[T]) pushDone() {
	// Notify only on the empty to non-empty transition.
	if b.pending.Add(1) == 1 {
		signal(b.notEmpty)
	}
}

// TryPush enqueues without blocking. A refused push counts as a discard.
func (b *Blocking[T]) TryPush(item T) bool {
	if b.Closed() {
		return false
	}
	if b.q.TryPush(item) {
		b.pushDone()
		return true
	}
	b.discards.Add(1)
	return false
}

// TryPop dequeues without blocking.
func (b *Blocking[T]) TryPop() (T, bool) {
	v, ok := b.q.TryPop()
	if !ok {
		var zero T
		return zero, false
	}
	prev := b.pending.Add(-1) + 1
	// Notify only on the full to non-full transition.
	if prev > 0 && uint64(prev) == b.q.Capacity() {
		signal(b.notFull)
	}
	return v, true
}

// WaitPush blocks until the item is enqueued, the adapter closes, or ctx
// expires. A ctx expiry counts as a discard; a close does not.
func (b *Blocking[T]) WaitPush(ctx context.Context, item T) bool {
	if b.Closed() {
		return false
	}
	if b.q.TryPush(item) {
		b.pushDone()
		return true
	}
	for {
		select {
		case <-b.closeCh:
			return false
		case <-ctx.Done():
			b.discards.Add(1)
			return false
		case <-b.notFull:
		}
		if b.Closed() {
			return false
		}
		if b.q.TryPush(item) {
			b.pushDone()
			// Chain the wakeup while room remains.
			if !b.q.Full() {
				signal(b.notFull)
			}
			return true
		}
	}
}

// WaitPop blocks until an element is available, the adapter closes, or ctx
// expires. A closed adapter still drains: close only fails the wait once the
// queue is empty.
func (b *Blocking[T]) WaitPop(ctx context.Context) (T, bool) {
	var zero T
	if v, ok := b.q.TryPop(); ok {
		b.pending.Add(-1)
		signal(b.notFull)
		return v, true
	}
	for {
		select {
		case <-b.closeCh:
			// Drain whatever raced in before the close.
			if v, ok := b.q.TryPop(); ok {
				b.pending.Add(-1)
				signal(b.notFull)
				return v, true
			}
			return zero, false
		case <-ctx.Done():
			return zero, false
		case <-b.notEmpty:
		}
		if v, ok := b.q.TryPop(); ok {
			b.pending.Add(-1)
			signal(b.notFull)
			// Chain the wakeup while work remains.
			if !b.q.Empty() {
				signal(b.notEmpty)
			}
			return v, true
		}
		if b.Closed() && b.q.Empty() {
			return zero, false
		}
	}
}

// OverwritePush enqueues item, evicting the oldest pending element when the
// queue is full. The evicted element is returned to the caller. Returns
// (evicted, evictedOK, pushed).
func (b *Blocking[T]) OverwritePush(item T) (T, bool, bool) {
	var zero T
	if b.Closed() {
		return zero, false, false
	}

	if b.q.TryPush(item) {
		b.pending.Add(1)
		signal(b.notEmpty)
		return zero, false, true
	}

	b.overwriteMu.Lock()
	if b.Closed() {
		b.overwriteMu.Unlock()
		return zero, false, false
	}

	var evicted T
	popped := b.q.TryPopConsume(func(v T) { evicted = v })
	if !popped {
		b.overwriteMu.Unlock()
		return zero, false, false
	}
	b.pending.Add(-1)

	ok := b.q.TryPush(item)
	if ok {
		b.pending.Add(1)
	}
	b.overwriteMu.Unlock()
	signal(b.notEmpty)
	return evicted, true, ok
}

// TryPushBatch enqueues items until refusal. Refused items are not counted
// as discards; the caller decides what to do with the remainder.
func (b *Blocking[T]) TryPushBatch(items []T) int {
	if b.Closed() {
		return 0
	}
	n := b.q.TryPushBatch(items)
	if n > 0 {
		if b.pending.Add(int64(n)) == int64(n) {
			signal(b.notEmpty)
		}
	}
	return n
}

// WaitPushBatch enqueues every item, blocking as needed. Returns the number
// enqueued; short on close or ctx expiry.
func (b *Blocking[T]) WaitPushBatch(ctx context.Context, items []T) int {
	if b.Closed() {
		return 0
	}
	pushed := b.TryPushBatch(items)
	for _, item := range items[pushed:] {
		if !b.WaitPush(ctx, item) {
			return pushed
		}
		pushed++
	}
	return pushed
}

// TryPopBatch dequeues up to max elements without blocking.
func (b *Blocking[T]) TryPopBatch(max int) []T {
	out := b.q.TryPopBatch(max)
	b.notifyPopped(len(out))
	return out
}

// TryConsumeBatch dequeues up to max elements through consume.
func (b *Blocking[T]) TryConsumeBatch(consume func(T), max int) int {
	n := b.q.TryConsumeBatch(consume, max)
	b.notifyPopped(n)
	return n
}

func (b *Blocking[T]) notifyPopped(n int) {
	if n == 0 {
		return
	}
	prev := b.pending.Add(int64(-n)) + int64(n)
	if prev >= int64(b.q.Capacity())-int64(n) && prev <= int64(b.q.Capacity()) {
		signal(b.notFull)
	}
}

// WaitPopBatch dequeues between min and max elements, blocking until at
// least min arrive or the adapter closes. min is clamped to [1, max].
func (b *Blocking[T]) WaitPopBatch(ctx context.Context, max, min int) []T {
	if min < 1 || min > max {
		min = 1
	}
	out := b.TryPopBatch(max)
	if len(out) >= min || len(out) == max {
		return out
	}
	for len(out) < min {
		v, ok := b.WaitPop(ctx)
		if !ok {
			return out
		}
		out = append(out, v)
	}
	out = append(out, b.TryPopBatch(max-len(out))...)
	return out
}

// Close marks the adapter closed and wakes every waiter. Pending elements
// stay poppable.
func (b *Blocking[T]) Close() {
	b.closeOne.Do(func() { close(b.closeCh) })
}

func (b *Blocking[T]) Closed() bool {
	select {
	case <-b.closeCh:
		return true
	default:
		return false
	}
}

// Clear drains all pending elements through visitor (which may be nil) and
// resets the pending count. Visitor panics are contained per element.
func (b *Blocking[T]) Clear(visitor func(T)) {
	for {
		v, ok := b.q.TryPop()
		if !ok {
			break
		}
		if visitor != nil {
			visitClear(visitor, v)
		}
	}
	b.pending.Store(0)
	signal(b.notFull)
}

func visitClear[T any](visitor func(T), v T) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("queue clear visitor panicked", "panic", r)
		}
	}()
	visitor(v)
}

// Size is the pending-element count maintained by the adapter.
func (b *Blocking[T]) Size() int64 {
	n := b.pending.Load()
	if n < 0 {
		return 0
	}
	return n
}

func (b *Blocking[T]) Capacity() uint64 { return b.q.Capacity() }

// DiscardCount is the number of pushes refused for capacity since the last
// reset.
func (b *Blocking[T]) DiscardCount() uint64 { return b.discards.Load() }

func (b *Blocking[T]) ResetDiscardCount() { b.discards.Store(0) }
