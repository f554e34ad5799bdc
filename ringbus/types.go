// Package ringbus implements the intra-process lock-free fan-out/fan-in
// fabric: a single-producer/multi-consumer ring for market events and a
// multi-producer/single-consumer queue for order commands.
//
// Every exported type here is POD on purpose: these values live inside
// ring slots and cross goroutine boundaries purely through atomic
// sequence bookkeeping, never through a mutex.
package ringbus

import "errors"

// ErrFull is returned by the MPSC producer path when no slot is available.
var ErrFull = errors.New("ringbus: queue full")

// ErrBadCapacity is a programming error: capacity must be a power of two.
var ErrBadCapacity = errors.New("ringbus: capacity must be a power of two")

// MarketEventKind discriminates the payload union carried by a MarketEvent.
type MarketEventKind uint8

const (
	KindNone MarketEventKind = iota
	KindTicker
	KindTrade
	KindKline
	KindDepth
	KindMarkPrice
	KindOrderReport
)

func (k MarketEventKind) String() string {
	switch k {
	case KindNone:
		return "NONE"
	case KindTicker:
		return "TICKER"
	case KindTrade:
		return "TRADE"
	case KindKline:
		return "KLINE"
	case KindDepth:
		return "DEPTH"
	case KindMarkPrice:
		return "MARK_PRICE"
	case KindOrderReport:
		return "ORDER_REPORT"
	default:
		return "UNKNOWN"
	}
}

// OrderSide mirrors the venue-agnostic buy/sell discriminant.
type OrderSide uint8

const (
	SideBuy OrderSide = iota
	SideSell
)

// DepthArity is the number of price levels per side that a MarketEvent of
// kind KindDepth carries in Bids and Asks. It holds the top N levels only;
// deeper levels are dropped and are not carried by any other event type.
const DepthArity = 5

// MarketEvent is the fixed-size, cache-line-aligned, ring-resident record.
// Its size is a power-of-two multiple of 64 bytes (one cache line): the
// fields, including the two DepthArity-level price arrays, sum to exactly
// 256 bytes, four cache lines, with no trailing padding.
type MarketEvent struct {
	Kind        MarketEventKind
	Side        OrderSide
	_           [6]byte // alignment filler, keeps 8-byte fields 8-byte aligned
	SymbolID    uint16
	VenueID     uint8
	_           [5]byte
	Sequence    uint32
	_           [4]byte
	GenTimeNs   int64
	TriggerNs   int64
	SourceID    uint32
	ProducerID  uint32
	Price       float64
	BidPrice    float64
	AskPrice    float64
	Qty         float64
	FundingRate float64
	OrderState  uint8
	_           [7]byte
	Bids        [DepthArity][2]float64
	Asks        [DepthArity][2]float64
}

// Reset zeroes a MarketEvent in place so a reused ring slot never leaks a
// previous publication's fields into a caller that only fills part of it.
func (m *MarketEvent) Reset() {
	*m = MarketEvent{}
}

// OrderCommandKind discriminates the OrderCommand union.
type OrderCommandKind uint8

const (
	CmdPlace OrderCommandKind = iota
	CmdCancel
	CmdAmend
	CmdCancelAll
)

// PositionSide distinguishes long/short/both on venues with hedge mode.
type PositionSide uint8

const (
	PositionBoth PositionSide = iota
	PositionLong
	PositionShort
)

// OrderType enumerates the order types the gateway accepts from strategies.
type OrderType uint8

const (
	OrderTypeLimit OrderType = iota
	OrderTypeMarket
	OrderTypePostOnly
	OrderTypeFOK
	OrderTypeIOC
)

// TimeInForce enumerates the standard TIF values.
type TimeInForce uint8

const (
	TIFGTC TimeInForce = iota
	TIFIOC
	TIFFOK
	TIFGTX
)

// clientOrderIDLen is the inline buffer size for OrderCommand.ClientOrderID,
// matching spec.md's "inline 32-byte buffer" requirement.
const clientOrderIDLen = 32

// OrderCommand is the fixed-size, queue-resident record strategies push
// onto the MPSC order queue.
type OrderCommand struct {
	Kind           OrderCommandKind
	Side           OrderSide
	OrderType      OrderType
	TimeInForce    TimeInForce
	PositionSide   PositionSide
	_              [3]byte
	VenueID        uint8
	_              [7]byte
	SymbolID       uint16
	_              [6]byte
	StrategyID     uint32
	Quantity       float64
	Price          float64
	ClientOrderID  [clientOrderIDLen]byte
}

// SetClientOrderID copies s into the inline buffer, truncating if s is
// longer than the buffer (callers should keep ids well under 32 bytes).
func (c *OrderCommand) SetClientOrderID(s string) {
	c.ClientOrderID = [clientOrderIDLen]byte{}
	n := copy(c.ClientOrderID[:], s)
	_ = n
}

// ClientOrderIDString returns the NUL-trimmed client-order-id string.
func (c *OrderCommand) ClientOrderIDString() string {
	n := 0
	for n < clientOrderIDLen && c.ClientOrderID[n] != 0 {
		n++
	}
	return string(c.ClientOrderID[:n])
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}
