package ringbus

import "sync/atomic"

// mpscSlot is a mailbox slot: its sequence equals the producer index that
// may claim it when it is free to write, index+1 once that producer has
// filled it and it is ready to read, and index+capacity after the consumer
// has drained it (free for the producer one lap later).
// This is the exact protocol from original_source/cpp/core/disruptor/
// mpsc_queue.h, ported to Go atomics.
type mpscSlot struct {
	sequence atomic.Uint64
	item     OrderCommand
}

// OrderQueue is the MPSC fan-in queue described in spec.md §4.A: any
// number of producer goroutines, exactly one consumer, power-of-two
// capacity, fail-fast (never blocking) on full.
type OrderQueue struct {
	_    cacheLinePad
	head atomic.Uint64 // multi-writer, advanced via CAS
	_    cacheLinePad
	tail atomic.Uint64 // single-consumer, owned exclusively by the drain side
	_    cacheLinePad
	mask uint64
	cap  uint64
	buf  []mpscSlot
}

// NewOrderQueue builds a queue of the given power-of-two capacity. As with
// MarketRing, a bad capacity is a programming error and panics.
func NewOrderQueue(capacity int) *OrderQueue {
	if !isPowerOfTwo(capacity) {
		panic(ErrBadCapacity)
	}
	q := &OrderQueue{
		mask: uint64(capacity - 1),
		cap:  uint64(capacity),
		buf:  make([]mpscSlot, capacity),
	}
	for i := range q.buf {
		q.buf[i].sequence.Store(uint64(i))
	}
	return q
}

// Capacity returns the queue's fixed slot count.
func (q *OrderQueue) Capacity() int {
	return int(q.cap)
}

// TryPush attempts a single non-blocking enqueue. It returns ErrFull
// immediately if the queue has no free slot; it never blocks and never
// overwrites (unlike MarketRing, a full order queue is a caller-facing
// failure per spec.md §7's error taxonomy).
func (q *OrderQueue) TryPush(cmd OrderCommand) error {
	for {
		head := q.head.Load()
		slot := &q.buf[head&q.mask]
		seq := slot.sequence.Load()

		diff := int64(seq) - int64(head)
		switch {
		case diff == 0:
			if q.head.CompareAndSwap(head, head+1) {
				slot.item = cmd
				slot.sequence.Store(head + 1)
				return nil
			}
			// another producer won the race; retry
		case diff < 0:
			return ErrFull
		default:
			// another producer has already advanced past us; retry
		}
	}
}

// Push spins until TryPush succeeds. It is the pause-spin convenience
// wrapper spec.md §4.A calls for; it still never overwrites and will spin
// forever against a permanently full, undrained queue (by design — the
// caller decides whether that is ever acceptable).
func (q *OrderQueue) Push(cmd OrderCommand) {
	for {
		if err := q.TryPush(cmd); err == nil {
			return
		}
		spinWait()
	}
}

// TryPop is the single-consumer dequeue. Calling it from more than one
// goroutine concurrently is a misuse of the contract (MPSC, not MPMC) and
// will corrupt the tail sequence.
func (q *OrderQueue) TryPop() (OrderCommand, bool) {
	tail := q.tail.Load()
	slot := &q.buf[tail&q.mask]
	seq := slot.sequence.Load()

	if seq != tail+1 {
		return OrderCommand{}, false
	}

	cmd := slot.item
	slot.sequence.Store(tail + q.cap)
	q.tail.Store(tail + 1)
	return cmd, true
}

// PopBatch drains up to len(dst) commands, returning how many were copied.
func (q *OrderQueue) PopBatch(dst []OrderCommand) int {
	n := 0
	for n < len(dst) {
		cmd, ok := q.TryPop()
		if !ok {
			break
		}
		dst[n] = cmd
		n++
	}
	return n
}

// Empty reports whether the consumer currently has nothing to drain. It is
// a snapshot, not a guarantee against a concurrent producer landing a new
// item immediately after the check.
func (q *OrderQueue) Empty() bool {
	tail := q.tail.Load()
	seq := q.buf[tail&q.mask].sequence.Load()
	return seq != tail+1
}
