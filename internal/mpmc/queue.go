// Package mpmc provides a bounded multi-producer multi-consumer queue built
// on per-cell sequence counters, plus a blocking adapter that layers
// suspension, close semantics and back-pressure policies on top of it.
package mpmc

import "sync/atomic"

type cell[T any] struct {
	seq atomic.Uint64
	val T
}

// Queue is a fixed-capacity lock-free ring. Capacity is rounded up to the
// next power of two, minimum 2. All operations are non-blocking.
type Queue[T any] struct {
	capacity uint64
	mask     uint64
	buffer   []cell[T]

	producerPos atomic.Uint64
	consumerPos atomic.Uint64
}

func roundUpToPow2(n uint64) uint64 {
	if n < 2 {
		return 2
	}
	n--
	for i := uint(1); i < 64; i <<= 1 {
		n |= n >> i
	}
	return n + 1
}

func NewQueue[T any](capacity uint64) *Queue[T] {
	adjusted := roundUpToPow2(capacity)
	q := &Queue[T]{
		capacity: adjusted,
		mask:     adjusted - 1,
		buffer:   make([]cell[T], adjusted),
	}
	for i := uint64(0); i < adjusted; i++ {
		q.buffer[i].seq.Store(i)
	}
	return q
}

// TryPush enqueues item. Returns false when the queue is full.
func (q *Queue[T]) TryPush(item T) bool {
	return q.TryPushWith(func() (T, bool) { return item, true })
}

// TryPushWith claims a cell, then asks producer for the value. If producer
// declines, the cell's sequence is rolled back and the push fails. The
// claimed ticket is not returned, matching the construction-failure contract.
func (q *Queue[T]) TryPushWith(producer func() (T, bool)) bool {
	pos := q.producerPos.Load()
	for {
		c := &q.buffer[pos&q.mask]
		seq := c.seq.Load()

		diff := int64(seq) - int64(pos)
		switch {
		case diff == 0:
			// Cell is writable; try to claim it.
			if q.producerPos.CompareAndSwap(pos, pos+1) {
				val, ok := producer()
				if !ok {
					c.seq.Store(pos)
					return false
				}
				c.val = val
				// Mark consumable.
				c.seq.Store(pos + 1)
				return true
			}
			pos = q.producerPos.Load()
		case diff < 0:
			// Full for this round; wait for a consumer.
			return false
		default:
			// Another producer claimed the cell; retry with a fresh ticket.
			pos = q.producerPos.Load()
		}
	}
}

// TryPop dequeues into out. Returns false when the queue is empty.
func (q *Queue[T]) TryPop() (T, bool) {
	var out T
	ok := q.TryPopConsume(func(v T) { out = v })
	return out, ok
}

// TryPopConsume dequeues one element and hands it to consume while the cell
// is still claimed, then releases the cell for the next write round.
func (q *Queue[T]) TryPopConsume(consume func(T)) bool {
	pos := q.consumerPos.Load()
	for {
		c := &q.buffer[pos&q.mask]
		seq := c.seq.Load()

		diff := int64(seq) - int64(pos+1)
		switch {
		case diff == 0:
			// Cell is consumable; try to claim it.
			if q.consumerPos.CompareAndSwap(pos, pos+1) {
				consume(c.val)
				var zero T
				c.val = zero
				// Ready for the next write round.
				c.seq.Store(pos + q.capacity)
				return true
			}
			pos = q.consumerPos.Load()
		case diff < 0:
			// Empty for this round; wait for a producer.
			return false
		default:
			// Another consumer claimed the cell; retry with a fresh ticket.
			pos = q.consumerPos.Load()
		}
	}
}

// TryFront copies the element at the head without claiming it. The value may
// be concurrently consumed by the time the caller looks at it.
func (q *Queue[T]) TryFront() (T, bool) {
	var zero T
	pos := q.consumerPos.Load()
	c := &q.buffer[pos&q.mask]
	seq := c.seq.Load()
	if int64(seq)-int64(pos+1) != 0 {
		return zero, false
	}
	return c.val, true
}

// TryPushBatch enqueues items in order, stopping at the first refusal.
// Returns the number enqueued.
func (q *Queue[T]) TryPushBatch(items []T) int {
	n := 0
	for _, item := range items {
		if !q.TryPush(item) {
			break
		}
		n++
	}
	return n
}

// TryPopBatch dequeues up to max elements. Returns what was taken.
func (q *Queue[T]) TryPopBatch(max int) []T {
	out := make([]T, 0, max)
	for i := 0; i < max; i++ {
		v, ok := q.TryPop()
		if !ok {
			break
		}
		out = append(out, v)
	}
	return out
}

// TryConsumeBatch dequeues up to max elements through consume. Returns the
// number consumed.
func (q *Queue[T]) TryConsumeBatch(consume func(T), max int) int {
	n := 0
	for i := 0; i < max; i++ {
		if !q.TryPopConsume(consume) {
			break
		}
		n++
	}
	return n
}

// ApproxSize is producer ticket minus consumer ticket. Exact only at
// quiescence.
func (q *Queue[T]) ApproxSize() uint64 {
	return q.producerPos.Load() - q.consumerPos.Load()
}

func (q *Queue[T]) Capacity() uint64 { return q.capacity }

func (q *Queue[T]) Empty() bool { return q.ApproxSize() == 0 }

func (q *Queue[T]) Full() bool { return q.ApproxSize() >= q.capacity }
