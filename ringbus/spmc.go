package ringbus

import (
	"sync"
	"sync/atomic"
)

// cacheLinePad occupies enough space to push the next struct field onto its
// own cache line on common x86-64/arm64 layouts. False sharing between the
// producer sequence and any consumer sequence is the single worst failure
// mode this package exists to avoid.
type cacheLinePad [64]byte

// MarketRing is the SPMC fan-out ring described in spec.md §4.A: one
// producer, any number of registered consumers, power-of-two capacity,
// silent overwrite on wrap. The producer never checks consumer positions;
// a lagging consumer detects the gap itself via Consumer.Lag.
type MarketRing struct {
	_           cacheLinePad
	producerSeq atomic.Uint64
	_           cacheLinePad
	mask        uint64
	slots       []MarketEvent

	mu        sync.Mutex // guards consumers slice registration only
	consumers []*marketConsumerState
}

// marketConsumerState is the padded, per-consumer sequence cursor.
type marketConsumerState struct {
	_   cacheLinePad
	seq atomic.Uint64
	_   cacheLinePad
}

// NewMarketRing builds a ring of the given power-of-two capacity. Capacity
// not a power of two is a programming error per REDESIGN FLAGS §9 ("reserve
// panics strictly for programming bugs") and panics rather than returning
// an error.
func NewMarketRing(capacity int) *MarketRing {
	if !isPowerOfTwo(capacity) {
		panic(ErrBadCapacity)
	}
	return &MarketRing{
		mask:  uint64(capacity - 1),
		slots: make([]MarketEvent, capacity),
	}
}

// Capacity returns the ring's fixed slot count.
func (r *MarketRing) Capacity() int {
	return int(r.mask + 1)
}

// Next returns a mutable pointer to the next slot for the producer to fill.
// Callers must not retain the pointer past the matching Publish call.
func (r *MarketRing) Next() *MarketEvent {
	idx := (r.producerSeq.Load() + 1) & r.mask
	return &r.slots[idx]
}

// Publish makes the slot most recently returned by Next visible to
// consumers. The release-ordered store of producerSeq happens only after
// the caller has finished writing the slot's payload (spec.md §3's
// publish-after-write invariant).
func (r *MarketRing) Publish() {
	r.producerSeq.Add(1)
}

// PublishTicker composes Next+fill+Publish for the common ticker case,
// mirroring the original C++ market_data_bus.h convenience method.
func (r *MarketRing) PublishTicker(symbolID uint16, venueID uint8, lastPrice, bidPrice, askPrice, qty float64, genTimeNs int64) {
	slot := r.Next()
	slot.Reset()
	slot.Kind = KindTicker
	slot.SymbolID = symbolID
	slot.VenueID = venueID
	slot.Price = lastPrice
	slot.BidPrice = bidPrice
	slot.AskPrice = askPrice
	slot.Qty = qty
	slot.GenTimeNs = genTimeNs
	slot.Sequence = uint32(r.producerSeq.Load() + 1)
	r.Publish()
}

// Stop publishes a NONE-kind slot. Consumer loops skip NONE payloads but
// use the wake to re-check their own running flag, per spec.md §4.A's
// "stop is signaled by publishing a NONE slot" tie-break.
func (r *MarketRing) Stop() {
	slot := r.Next()
	slot.Reset()
	r.Publish()
}

// ProducerSeq returns the current producer sequence (acquire load), mostly
// useful for tests and telemetry.
func (r *MarketRing) ProducerSeq() uint64 {
	return r.producerSeq.Load()
}

// MarketHandler processes one slot during a drain. Returning early from a
// handler does not stop the drain; panics inside a handler are the
// consumer's own responsibility to guard (the ring itself never recovers
// one, unlike fabric.Fabric's listener dispatch).
type MarketHandler func(*MarketEvent)

// Consumer is a registered reader of a MarketRing. Consumers are not
// thread-safe themselves: each Consumer is meant to be driven by exactly
// one goroutine, matching spec.md's single-threaded-per-consumer-group
// model (§5's core-pinning table).
type Consumer struct {
	ring  *MarketRing
	state *marketConsumerState
}

// RegisterConsumer adds a new consumer starting at the current producer
// sequence (it does not replay history already overwritten).
func (r *MarketRing) RegisterConsumer() *Consumer {
	st := &marketConsumerState{}
	st.seq.Store(r.producerSeq.Load())

	r.mu.Lock()
	r.consumers = append(r.consumers, st)
	r.mu.Unlock()

	return &Consumer{ring: r, state: st}
}

// Seq returns the consumer's current local sequence.
func (c *Consumer) Seq() uint64 {
	return c.state.seq.Load()
}

// Lag reports how far behind the producer this consumer is. A non-zero
// value after a Poll/WaitFor round does not by itself mean data was lost;
// callers combine it with Capacity to detect an actual overwrite (spec.md
// §8 scenario 1, and SPEC_FULL.md Supplemented Feature 3).
func (c *Consumer) Lag() uint64 {
	return c.ring.producerSeq.Load() - c.state.seq.Load()
}

// Poll drains every slot published since the consumer's last call, up to
// the current producer sequence, invoking handler for each non-NONE slot.
// It returns the number of slots inspected (including skipped NONE slots)
// and the sequence gap detected, if the consumer had fallen behind the
// ring's capacity before this call (i.e. slots were silently overwritten).
func (c *Consumer) Poll(handler MarketHandler) (observed int, gap uint64) {
	producer := c.ring.producerSeq.Load()
	local := c.state.seq.Load()

	if producer-local > uint64(c.ring.Capacity()) {
		gap = producer - local - uint64(c.ring.Capacity())
		local = producer - uint64(c.ring.Capacity())
	}

	for local < producer {
		local++
		slot := &c.ring.slots[local&c.ring.mask]
		if slot.Kind != KindNone {
			handler(slot)
		}
		observed++
		c.state.seq.Store(local)
	}
	return observed, gap
}

// WaitFor busy-spins (with a brief CPU-friendly yield) until the producer
// sequence reaches at least target, then returns. It never blocks on a
// channel or mutex, preserving the ring's non-suspending hot path contract
// (spec.md §5).
func (c *Consumer) WaitFor(target uint64) {
	for c.ring.producerSeq.Load() < target {
		spinWait()
	}
}
