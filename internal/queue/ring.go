// Package queue implements the bounded, lock-free MPMC ring used to hand
// order messages from generator goroutines to workers. Each cell carries its
// own sequence number (the Vyukov cell-sequence protocol); producers and
// consumers advance independently by CAS-claiming a slot rather than
// contending on a single shared lock.
package queue

import "sync/atomic"

const cacheLinePad = 64

// Producer is the narrow interface a generator needs: push one item, or
// push as many as fit from a batch. Any *Ring[T] satisfies it.
type Producer[T any] interface {
	Push(v T) bool
	PushBatch(batch []T) int
}

// Consumer is the narrow interface a worker needs.
type Consumer[T any] interface {
	Pop(out *T) bool
	PopBatch(out []T) int
}

type cell[T any] struct {
	seq uint64
	val T
}

// Ring is a bounded multi-producer multi-consumer queue of fixed capacity
// (rounded up to the next power of two). It is grounded on the classic
// Vyukov bounded queue: every cell owns an atomic sequence number, and a
// push/pop claims a slot with a CAS on the shared head/tail counter rather
// than locking. head and tail live on separate cache lines so producers and
// consumers advancing them concurrently don't false-share.
type Ring[T any] struct {
	mask uint64
	_    [cacheLinePad - 8]byte

	head uint64
	_    [cacheLinePad - 8]byte

	tail uint64
	_    [cacheLinePad - 8]byte

	cells []cell[T]
}

// NewRing builds a ring with room for at least capacity items; capacity is
// rounded up to the next power of two.
func NewRing[T any](capacity int) *Ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	n := nextPow2(uint64(capacity))
	r := &Ring[T]{
		mask:  n - 1,
		cells: make([]cell[T], n),
	}
	for i := range r.cells {
		r.cells[i].seq = uint64(i)
	}
	return r
}

func nextPow2(n uint64) uint64 {
	p := uint64(1)
	for p < n {
		p <<= 1
	}
	return p
}

// Capacity reports the ring's fixed slot count.
func (r *Ring[T]) Capacity() int { return len(r.cells) }

// Size reports a best-effort snapshot of the number of items currently
// queued. Under concurrent access this is a point-in-time estimate, not a
// linearizable count.
func (r *Ring[T]) Size() int {
	tail := atomic.LoadUint64(&r.tail)
	head := atomic.LoadUint64(&r.head)
	if tail < head {
		return 0
	}
	return int(tail - head)
}

// Available reports capacity minus the current size estimate.
func (r *Ring[T]) Available() int { return r.Capacity() - r.Size() }

// Empty reports whether the ring is (momentarily) empty.
func (r *Ring[T]) Empty() bool { return r.Size() == 0 }

// Full reports whether the ring is (momentarily) full.
func (r *Ring[T]) Full() bool { return r.Size() >= r.Capacity() }

// Push claims the next slot and stores v, returning false if the ring was
// full at the moment of the claiming CAS.
func (r *Ring[T]) Push(v T) bool {
	for {
		tail := atomic.LoadUint64(&r.tail)
		c := &r.cells[tail&r.mask]
		seq := atomic.LoadUint64(&c.seq)
		diff := int64(seq) - int64(tail)
		switch {
		case diff == 0:
			if atomic.CompareAndSwapUint64(&r.tail, tail, tail+1) {
				c.val = v
				atomic.StoreUint64(&c.seq, tail+1)
				return true
			}
		case diff < 0:
			return false
		default:
			// another producer has already advanced tail past our read; retry
		}
	}
}

// PushBatch pushes as many items from batch as fit, stopping at the first
// full ring, and returns the count actually pushed.
func (r *Ring[T]) PushBatch(batch []T) int {
	n := 0
	for _, v := range batch {
		if !r.Push(v) {
			break
		}
		n++
	}
	return n
}

// Pop claims the next filled slot and writes its value into out, returning
// false if the ring was empty at the moment of the claiming CAS.
func (r *Ring[T]) Pop(out *T) bool {
	for {
		head := atomic.LoadUint64(&r.head)
		c := &r.cells[head&r.mask]
		seq := atomic.LoadUint64(&c.seq)
		diff := int64(seq) - int64(head+1)
		switch {
		case diff == 0:
			if atomic.CompareAndSwapUint64(&r.head, head, head+1) {
				*out = c.val
				atomic.StoreUint64(&c.seq, head+uint64(len(r.cells)))
				return true
			}
		case diff < 0:
			return false
		default:
			// another consumer has already advanced head past our read; retry
		}
	}
}

// PopBatch pops up to len(out) items into out, stopping at the first empty
// ring, and returns the count actually popped.
func (r *Ring[T]) PopBatch(out []T) int {
	n := 0
	for n < len(out) {
		if !r.Pop(&out[n]) {
			break
		}
		n++
	}
	return n
}

// Clear resets the ring to empty. It is not safe to call concurrently with
// any Push or Pop; it exists for benchmark harnesses that reuse a ring
// across runs.
func (r *Ring[T]) Clear() {
	atomic.StoreUint64(&r.head, 0)
	atomic.StoreUint64(&r.tail, 0)
	for i := range r.cells {
		r.cells[i].seq = uint64(i)
		var zero T
		r.cells[i].val = zero
	}
}
