package pool

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
)

// ErrCancelled is the default cancellation reason.
var ErrCancelled = errors.New("task cancelled")

// Task is a unit of work the pool executes. Execute must not panic out;
// implementations contain their own panics and report through Success.
// Execute and Cancel each take effect at most once, in either order.
type Task interface {
	Execute()
	Cancel(err error)
	Success() bool
}

// simpleTask is the lightweight fire-and-forget task used by Post.
type simpleTask struct {
	fn   func()
	done atomic.Bool
	ok   atomic.Bool
}

func newSimpleTask(fn func()) *simpleTask {
	return &simpleTask{fn: fn}
}

func (t *simpleTask) Execute() {
	if t.done.Load() {
		return
	}
	func() {
		defer func() {
			if r := recover(); r != nil {
				t.ok.Store(false)
				return
			}
		}()
		t.fn()
		t.ok.Store(true)
	}()
	t.done.Store(true)
}

func (t *simpleTask) Cancel(error) {
	if !t.done.Swap(true) {
		t.ok.Store(false)
	}
}

func (t *simpleTask) Success() bool { return t.ok.Load() }

// Future resolves once its task has executed or been cancelled.
type Future[T any] struct {
	done chan struct{}
	val  T
	err  error
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// Wait blocks until the future resolves or ctx expires.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Done reports whether the future has resolved.
func (f *Future[T]) Done() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

func (f *Future[T]) complete(val T, err error) {
	f.val = val
	f.err = err
	close(f.done)
}

// futureTask runs a value-bearing function and resolves its future.
type futureTask[T any] struct {
	fn   func() (T, error)
	fut  *Future[T]
	done atomic.Bool
	ok   atomic.Bool
}

func newFutureTask[T any](fn func() (T, error)) *futureTask[T] {
	return &futureTask[T]{fn: fn, fut: newFuture[T]()}
}

func (t *futureTask[T]) Execute() {
	if t.done.Load() {
		return
	}
	val, err := runProtected(t.fn)
	// A concurrent Cancel wins; the future already carries its reason.
	if !t.done.CompareAndSwap(false, true) {
		return
	}
	t.ok.Store(err == nil)
	t.fut.complete(val, err)
}

func (t *futureTask[T]) Cancel(err error) {
	if t.done.CompareAndSwap(false, true) {
		if err == nil {
			err = ErrCancelled
		}
		t.ok.Store(false)
		var zero T
		t.fut.complete(zero, err)
	}
}

func (t *futureTask[T]) Success() bool { return t.ok.Load() }

func runProtected[T any](fn func() (T, error)) (val T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			val = zero
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()
	return fn()
}

// exitTask is a directed retire request. A worker that pops one addressed to
// another slot puts it back.
type exitTask struct {
	slot *workerSlot
}

func (t *exitTask) Execute()     {}
func (t *exitTask) Cancel(error) {}
func (t *exitTask) Success() bool {
	return true
}
