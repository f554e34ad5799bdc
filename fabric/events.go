package fabric

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/primevenue/gateway/exchange"
)

// Event is the common header every rich, EventFabric-resident event
// carries: a generation timestamp, an optional trigger timestamp, a
// source identifier, and a producer id used for loop-suppression
// (spec.md §3's Event base, §4.D's ignore_self).
type Event struct {
	GenTimeNs int64
	TriggerNs int64
	SourceID  uint32
	// ProducerID is stamped by Fabric.Put, not by the caller — matching
	// "each listener sees producer_id attached by put" (spec.md §4.D).
	ProducerID uint32
}

// Ts returns the event's generation timestamp, satisfying the Fabric's
// timestamp-discipline bookkeeping.
func (e Event) Ts() int64 { return e.GenTimeNs }

// Envelope is implemented by every concrete event type via a pointer
// receiver returning the address of its embedded Event header, letting
// Fabric stamp producer_id/timestamp and dispatch on the concrete type
// (reflect.TypeOf(e)) without each event type reimplementing that
// bookkeeping (spec.md §4.D).
type Envelope interface {
	Header() *Event
}

func (e *MarketEvent) Header() *Event        { return &e.Event }
func (e *OrderEvent) Header() *Event         { return &e.Event }
func (e *AdapterStatusEvent) Header() *Event { return &e.Event }
func (e *AccountUpdate) Header() *Event      { return &e.Event }

// MarketEvent is the rich, off-ring counterpart to ringbus.MarketEvent:
// strategies that register on the fabric (rather than polling the ring
// directly) receive this decimal-accurate variant. It is deliberately NOT
// the ring-resident POD type — REDESIGN FLAGS §9 keeps the ring's closed,
// tagged-variant dispatch on the hot path and reserves the fabric's open
// type-tag map for richer consumption.
type MarketEvent struct {
	Event
	Kind     string
	SymbolID uint16
	VenueID  uint8
	Sequence uint32
	Price    decimal.Decimal
	Qty      decimal.Decimal
}

// OrderEvent carries an Order state transition to fabric listeners. Order
// itself is defined in package exchange (it is constructed and owned by
// the adapter's id-mapping layer); fabric only re-exports the pointer
// through its own event envelope.
type OrderEvent struct {
	Event
	Order *exchange.Order
}

// AdapterStatus enumerates the adapter-visible connection states a
// strategy can observe (SPEC_FULL.md Supplemented Feature 4).
type AdapterStatus uint8

const (
	AdapterConnected AdapterStatus = iota
	AdapterReconnecting
	AdapterDegraded
	AdapterStopped
)

func (s AdapterStatus) String() string {
	switch s {
	case AdapterConnected:
		return "CONNECTED"
	case AdapterReconnecting:
		return "RECONNECTING"
	case AdapterDegraded:
		return "DEGRADED"
	case AdapterStopped:
		return "STOPPED"
	default:
		return "UNKNOWN"
	}
}

// AdapterStatusEvent is published when an adapter reports CONNECTED,
// RECONNECTING or STOPPED; STARTING and STOPPING are not reported.
type AdapterStatusEvent struct {
	Event
	VenueID uint8
	Status  AdapterStatus
	Reason  string
}

// AccountUpdate is the balance-update event (Open Question decision #3 in
// SPEC_FULL.md §D). It has fields for per-asset balances and an update
// timestamp, but Engine.OnAccountUpdate fills only VenueID and Raw (the
// venue's original payload); Balances and UpdateTs stay empty.
type AccountUpdate struct {
	Event
	VenueID   uint8
	Balances  []AssetBalance
	UpdateTs  int64
	Raw       json.RawMessage
}

// AssetBalance is one (asset, free, locked) tuple inside an AccountUpdate.
type AssetBalance struct {
	Asset  string
	Free   decimal.Decimal
	Locked decimal.Decimal
}
