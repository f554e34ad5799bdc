package ringbus

import "sync/atomic"

// ByteRing is the optional SPSC queue from spec.md §4.A: a single
// producer, a single consumer, no per-slot sequence array — just a pair of
// cache-line-isolated cursors. It is offered for adapter-to-journal or
// adapter-to-single-strategy hot paths where MPSC's CAS overhead is
// unnecessary, matching the acquire/release span API shown in
// other_examples' shmring.go.
type ByteRing struct {
	_    cacheLinePad
	rd   atomic.Uint64
	_    cacheLinePad
	wr   atomic.Uint64
	_    cacheLinePad
	mask uint64
	buf  []MarketEvent
}

// NewByteRing builds an SPSC ring of MarketEvent slots (reused here rather
// than raw bytes: the adapter→journal and adapter→single-strategy hot
// paths both move whole MarketEvent values, never a free-form byte span).
func NewByteRing(capacity int) *ByteRing {
	if !isPowerOfTwo(capacity) {
		panic(ErrBadCapacity)
	}
	return &ByteRing{
		mask: uint64(capacity - 1),
		buf:  make([]MarketEvent, capacity),
	}
}

// TryPush enqueues one event. Returns false if the ring is full; the
// single producer must not call this concurrently from more than one
// goroutine.
func (r *ByteRing) TryPush(ev MarketEvent) bool {
	wr := r.wr.Load()
	rd := r.rd.Load()
	if wr-rd >= uint64(len(r.buf)) {
		return false
	}
	r.buf[wr&r.mask] = ev
	r.wr.Store(wr + 1)
	return true
}

// TryPop dequeues one event. Returns false if the ring is empty; the
// single consumer must not call this concurrently from more than one
// goroutine.
func (r *ByteRing) TryPop() (MarketEvent, bool) {
	rd := r.rd.Load()
	wr := r.wr.Load()
	if rd == wr {
		return MarketEvent{}, false
	}
	ev := r.buf[rd&r.mask]
	r.rd.Store(rd + 1)
	return ev, true
}

// Len reports the number of unread events, a racy snapshot useful only for
// telemetry.
func (r *ByteRing) Len() int {
	return int(r.wr.Load() - r.rd.Load())
}
