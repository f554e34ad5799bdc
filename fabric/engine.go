package fabric

import (
	"encoding/json"
	"fmt"
	"sync/atomic"

	"github.com/shopspring/decimal"

	"github.com/primevenue/gateway/exchange"
	"github.com/primevenue/gateway/internal/telemetry"
	"github.com/primevenue/gateway/journal"
	"github.com/primevenue/gateway/ringbus"
)

// VenueAdapter is the subset of exchange/binance.Adapter and
// exchange/okx.Adapter the Engine needs to drive adapters generically
// without a monolithic cross-venue interface (spec.md §9's REDESIGN
// FLAGS note on keeping venue adapters separate types).
type VenueAdapter interface {
	Start() error
	Stop()
	VenueID() uint8
	State() exchange.AdapterState
	Symbols() *exchange.SymbolTable
	Orders() *exchange.OrderStore
	PlaceOrder(o *exchange.Order) error
	CancelOrder(symbol, clientOrderID string) error
	AmendOrder(o *exchange.Order, newPrice, newQty string) error
}

// Engine is the EventFabric's ownership half from spec.md §4.D: "owns the
// ring, the adapters, and strategy listeners; bridges inbound adapter
// callbacks to the ring-bus and outbound command queue to adapters." It
// implements exchange.EventSink so adapters can be wired directly to it,
// and drives the MPSC OrderQueue on the order-egress thread (spec.md §5's
// core 4 role).
type Engine struct {
	*Fabric

	ring    *ringbus.MarketRing
	queue   *ringbus.OrderQueue
	journal *journal.Writer

	adapters map[uint8]VenueAdapter

	producerID uint32
	seq        atomic.Uint32
}

// NewEngine builds an Engine around a market ring, an order queue, and an
// optional journal writer (nil disables durable recording, useful in
// tests). producerID is stamped on every fabric event this engine puts,
// letting strategies' ignore_self skip their own echoes.
func NewEngine(ring *ringbus.MarketRing, queue *ringbus.OrderQueue, j *journal.Writer, producerID uint32) *Engine {
	return &Engine{
		Fabric:     New(),
		ring:       ring,
		queue:      queue,
		journal:    j,
		adapters:   make(map[uint8]VenueAdapter),
		producerID: producerID,
	}
}

// AddAdapter registers a venue adapter under its own VenueID and starts
// it. Adapters must be added before the engine's egress loop is started.
func (e *Engine) AddAdapter(a VenueAdapter) error {
	e.adapters[a.VenueID()] = a
	return a.Start()
}

// Stop halts every registered adapter, in no particular order (adapters
// don't depend on each other), matching spec.md §5's reverse-dependency
// shutdown at the fabric layer.
func (e *Engine) Stop() {
	for _, a := range e.adapters {
		a.Stop()
	}
}

// Adapter returns the registered adapter for venueID, if any. Used by the
// operator console to resolve a venue name to a live adapter for order
// entry and symbol interning without the console importing binance/okx
// directly.
func (e *Engine) Adapter(venueID uint8) (VenueAdapter, bool) {
	a, ok := e.adapters[venueID]
	return a, ok
}

// Adapters returns every registered adapter, keyed by venue id, for the
// console's `status` command.
func (e *Engine) Adapters() map[uint8]VenueAdapter {
	return e.adapters
}

func (e *Engine) nextSeq() uint32 { return e.seq.Add(1) }

// --- exchange.EventSink ---

func (e *Engine) OnTicker(venueID uint8, symbolID uint16, last, bid, ask, qty float64, genTimeNs int64) {
	slot := e.ring.Next()
	slot.Reset()
	slot.Kind = ringbus.KindTicker
	slot.VenueID = venueID
	slot.SymbolID = symbolID
	slot.Price, slot.BidPrice, slot.AskPrice, slot.Qty = last, bid, ask, qty
	slot.GenTimeNs = genTimeNs
	slot.Sequence = e.nextSeq()
	e.ring.Publish()

	if e.journal != nil {
		if err := e.journal.WriteTicker(journal.TickerFrame{
			SymbolID: symbolID, VenueID: venueID,
			LastPx: last, BidPx: bid, AskPx: ask, Qty: qty,
		}, e.producerID, 0); err != nil {
			telemetry.JournalPageFull.WithLabelValues("market").Inc()
		}
	}

	e.Put(&MarketEvent{
		Event:    Event{GenTimeNs: genTimeNs},
		Kind:     "TICKER",
		SymbolID: symbolID,
		VenueID:  venueID,
		Price:    decimal.NewFromFloat(last),
		Qty:      decimal.NewFromFloat(qty),
	}, e.producerID)
}

func (e *Engine) OnTrade(venueID uint8, symbolID uint16, price, qty float64, side uint8, genTimeNs int64) {
	slot := e.ring.Next()
	slot.Reset()
	slot.Kind = ringbus.KindTrade
	slot.VenueID = venueID
	slot.SymbolID = symbolID
	slot.Price, slot.Qty = price, qty
	slot.Side = ringbus.OrderSide(side)
	slot.GenTimeNs = genTimeNs
	slot.Sequence = e.nextSeq()
	e.ring.Publish()

	if e.journal != nil {
		if err := e.journal.WriteTrade(journal.TradeFrame{
			SymbolID: symbolID, VenueID: venueID, Price: price, Qty: qty, Side: side,
		}, e.producerID, 0); err != nil {
			telemetry.JournalPageFull.WithLabelValues("market").Inc()
		}
	}

	e.Put(&MarketEvent{
		Event:    Event{GenTimeNs: genTimeNs},
		Kind:     "TRADE",
		SymbolID: symbolID,
		VenueID:  venueID,
		Price:    decimal.NewFromFloat(price),
		Qty:      decimal.NewFromFloat(qty),
	}, e.producerID)
}

func (e *Engine) OnKline(venueID uint8, symbolID uint16, open, high, low, close, volume float64, openTime, closeTime int64) {
	slot := e.ring.Next()
	slot.Reset()
	slot.Kind = ringbus.KindKline
	slot.VenueID = venueID
	slot.SymbolID = symbolID
	slot.Price = close
	slot.BidPrice, slot.AskPrice = open, high
	slot.Qty = volume
	slot.GenTimeNs = closeTime
	slot.Sequence = e.nextSeq()
	e.ring.Publish()

	if e.journal != nil {
		if err := e.journal.WriteKline(journal.KlineFrame{
			SymbolID: symbolID, VenueID: venueID,
			Open: open, High: high, Low: low, Close: close, Volume: volume,
			OpenTime: openTime, CloseTime: closeTime,
		}, e.producerID, 0); err != nil {
			telemetry.JournalPageFull.WithLabelValues("market").Inc()
		}
	}

	e.Put(&MarketEvent{
		Event:    Event{GenTimeNs: closeTime},
		Kind:     "KLINE",
		SymbolID: symbolID,
		VenueID:  venueID,
		Price:    decimal.NewFromFloat(close),
		Qty:      decimal.NewFromFloat(volume),
	}, e.producerID)
}

func (e *Engine) OnDepth(venueID uint8, symbolID uint16, isDelta bool, bids, asks [][2]float64, genTimeNs int64) {
	slot := e.ring.Next()
	slot.Reset()
	slot.Kind = ringbus.KindDepth
	slot.VenueID = venueID
	slot.SymbolID = symbolID
	slot.GenTimeNs = genTimeNs
	slot.Sequence = e.nextSeq()
	for i := 0; i < ringbus.DepthArity && i < len(bids); i++ {
		slot.Bids[i] = bids[i]
	}
	for i := 0; i < ringbus.DepthArity && i < len(asks); i++ {
		slot.Asks[i] = asks[i]
	}
	e.ring.Publish()

	if e.journal != nil {
		f := journal.DepthFrame{SymbolID: symbolID, VenueID: venueID, IsDelta: isDelta}
		for i := 0; i < len(f.Bids) && i < len(bids); i++ {
			f.Bids[i] = bids[i]
		}
		for i := 0; i < len(f.Asks) && i < len(asks); i++ {
			f.Asks[i] = asks[i]
		}
		if err := e.journal.WriteDepth(f, e.producerID, 0); err != nil {
			telemetry.JournalPageFull.WithLabelValues("market").Inc()
		}
	}
}

func (e *Engine) OnMarkPrice(venueID uint8, symbolID uint16, mark, index, funding float64, genTimeNs int64) {
	slot := e.ring.Next()
	slot.Reset()
	slot.Kind = ringbus.KindMarkPrice
	slot.VenueID = venueID
	slot.SymbolID = symbolID
	slot.Price = mark
	slot.BidPrice = index
	slot.FundingRate = funding
	slot.GenTimeNs = genTimeNs
	slot.Sequence = e.nextSeq()
	e.ring.Publish()

	if e.journal != nil {
		if err := e.journal.WriteMarkPrice(journal.MarkPriceFrame{
			SymbolID: symbolID, VenueID: venueID, MarkPrice: mark, IndexPrice: index, FundingRate: funding,
		}, e.producerID, 0); err != nil {
			telemetry.JournalPageFull.WithLabelValues("market").Inc()
		}
	}
}

func (e *Engine) OnOrderUpdate(order *exchange.Order) {
	slot := e.ring.Next()
	slot.Reset()
	slot.Kind = ringbus.KindOrderReport
	slot.VenueID = order.VenueID
	slot.OrderState = uint8(order.State)
	slot.GenTimeNs = order.UpdatedAt.UnixNano()
	slot.Sequence = e.nextSeq()
	e.ring.Publish()

	if e.journal != nil {
		var clientID [32]byte
		var exchangeID [24]byte
		copy(clientID[:], order.ClientOrderID)
		copy(exchangeID[:], order.ExchangeOrderID)
		if err := e.journal.WriteOrderReport(journal.OrderReportFrame{
			ClientOrderID:   clientID,
			ExchangeOrderID: exchangeID,
			VenueID:         order.VenueID,
			State:           uint8(order.State),
			Price:           mustFloat(order.Price),
			Qty:             mustFloat(order.Quantity),
			FilledQty:       mustFloat(order.FilledQuantity),
			FilledAvgPrice:  mustFloat(order.FilledAvgPrice),
		}, e.producerID, 0); err != nil {
			telemetry.JournalPageFull.WithLabelValues("order").Inc()
		}
	}

	e.Put(&OrderEvent{Event: Event{}, Order: order}, e.producerID)
}

func (e *Engine) OnAccountUpdate(venueID uint8, raw []byte) {
	e.Put(&AccountUpdate{Event: Event{}, VenueID: venueID, Raw: json.RawMessage(append([]byte(nil), raw...))}, e.producerID)
}

func (e *Engine) OnAdapterStatus(venueID uint8, status exchange.AdapterState, reason string) {
	if status == exchange.StateReconnecting {
		telemetry.AdapterReconnects.WithLabelValues(fmt.Sprintf("%d", venueID)).Inc()
	}

	if e.journal != nil {
		if err := e.journal.WriteAdapterStatus(journal.AdapterStatusFrame{
			VenueID: venueID, Status: adapterStatusFrameCode(status),
		}, e.producerID, 0); err != nil {
			telemetry.JournalPageFull.WithLabelValues("status").Inc()
		}
	}

	e.Put(&AdapterStatusEvent{
		Event:   Event{},
		VenueID: venueID,
		Status:  mapAdapterStatus(status),
		Reason:  reason,
	}, e.producerID)
}

// --- order egress ---

// Submit enqueues cmd for the egress loop to drain. Telemetry records a
// rejection when the queue is saturated (spec.md §7's error taxonomy).
func (e *Engine) Submit(cmd ringbus.OrderCommand) error {
	if err := e.queue.TryPush(cmd); err != nil {
		telemetry.QueueRejections.WithLabelValues(fmt.Sprintf("%d", cmd.VenueID)).Inc()
		return err
	}
	return nil
}

// RunEgressLoop drains the order queue until stop is closed, translating
// each OrderCommand into a REST call against the owning venue adapter
// (spec.md §5's core 4 "Order-egress" role). It busy-spins between empty
// polls, matching the ring/queue's non-suspending hot-path contract.
func (e *Engine) RunEgressLoop(stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		default:
		}

		cmd, ok := e.queue.TryPop()
		if !ok {
			continue
		}
		e.applyCommand(cmd)
	}
}

func (e *Engine) applyCommand(cmd ringbus.OrderCommand) {
	a, ok := e.adapters[cmd.VenueID]
	if !ok {
		return
	}
	symbol, ok := a.Symbols().Symbol(cmd.SymbolID)
	if !ok {
		return
	}
	clientID := cmd.ClientOrderIDString()

	switch cmd.Kind {
	case ringbus.CmdPlace:
		o := &exchange.Order{
			ClientOrderID: clientID,
			Symbol:        symbol,
			VenueID:       cmd.VenueID,
			Side:          cmd.Side,
			Type:          cmd.OrderType,
			Price:         decimal.NewFromFloat(cmd.Price),
			Quantity:      decimal.NewFromFloat(cmd.Quantity),
		}
		if err := a.Orders().Create(o); err != nil {
			return
		}
		_ = a.PlaceOrder(o)
	case ringbus.CmdCancel:
		_ = a.CancelOrder(symbol, clientID)
	case ringbus.CmdAmend:
		if o, ok := a.Orders().ByClientID(clientID); ok {
			_ = a.AmendOrder(o, fmt.Sprintf("%v", cmd.Price), fmt.Sprintf("%v", cmd.Quantity))
		}
	case ringbus.CmdCancelAll:
		for _, o := range a.Orders().Open() {
			_ = a.CancelOrder(o.Symbol, o.ClientOrderID)
		}
	}
}

func mustFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

func mapAdapterStatus(s exchange.AdapterState) AdapterStatus {
	switch s {
	case exchange.StateConnected:
		return AdapterConnected
	case exchange.StateReconnecting:
		return AdapterReconnecting
	case exchange.StateStopped:
		return AdapterStopped
	default:
		return AdapterDegraded
	}
}

func adapterStatusFrameCode(s exchange.AdapterState) uint8 {
	return uint8(mapAdapterStatus(s))
}
