package console

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/primevenue/gateway/exchange"
	"github.com/primevenue/gateway/fabric"
	"github.com/primevenue/gateway/ringbus"
)

// mockAdapter is a minimal fabric.VenueAdapter stand-in, grounded on the
// real Binance/OKX adapters' accessor shape but without any network I/O,
// so order-entry and status commands can be exercised without a live
// exchange.
type mockAdapter struct {
	venueID uint8
	state   exchange.AdapterState
	symbols *exchange.SymbolTable
	orders  *exchange.OrderStore

	placed    []*exchange.Order
	cancelled []string
	amended   []string
}

func newMockAdapter(venueID uint8) *mockAdapter {
	return &mockAdapter{
		venueID: venueID,
		state:   exchange.StateConnected,
		symbols: exchange.NewSymbolTable(),
		orders:  exchange.NewOrderStore(),
	}
}

func (m *mockAdapter) Start() error                       { return nil }
func (m *mockAdapter) Stop()                               {}
func (m *mockAdapter) VenueID() uint8                      { return m.venueID }
func (m *mockAdapter) State() exchange.AdapterState        { return m.state }
func (m *mockAdapter) Symbols() *exchange.SymbolTable      { return m.symbols }
func (m *mockAdapter) Orders() *exchange.OrderStore        { return m.orders }

func (m *mockAdapter) PlaceOrder(o *exchange.Order) error {
	m.placed = append(m.placed, o)
	return nil
}

func (m *mockAdapter) CancelOrder(symbol, clientOrderID string) error {
	m.cancelled = append(m.cancelled, clientOrderID)
	return nil
}

func (m *mockAdapter) AmendOrder(o *exchange.Order, newPrice, newQty string) error {
	m.amended = append(m.amended, o.ClientOrderID)
	return nil
}

func newTestEngine(t *testing.T, adapters ...*mockAdapter) *fabric.Engine {
	t.Helper()
	ring := ringbus.NewMarketRing(16)
	queue := ringbus.NewOrderQueue(16)
	engine := fabric.NewEngine(ring, queue, nil, 1)
	for _, a := range adapters {
		require.NoError(t, engine.AddAdapter(a))
	}
	return engine
}

func TestConsole_OrderSubmitsPlaceCommand(t *testing.T) {
	adapter := newMockAdapter(1)
	engine := newTestEngine(t, adapter)

	h := &Handle{Name: "binance", Adapter: adapter}
	c := New(engine, []*Handle{h})

	c.handleOrder([]string{"order", "binance", "buy", "BTCUSDT", "0.01", "50000"})

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		engine.RunEgressLoop(stop)
		close(done)
	}()
	for len(adapter.placed) == 0 {
		time.Sleep(time.Millisecond)
	}
	close(stop)
	<-done

	require.Len(t, adapter.placed, 1)
	assert.Equal(t, "BTCUSDT", adapter.placed[0].Symbol)
	assert.Equal(t, ringbus.SideBuy, adapter.placed[0].Side)
}

func TestConsole_UnknownVenueRejected(t *testing.T) {
	adapter := newMockAdapter(1)
	engine := newTestEngine(t, adapter)
	h := &Handle{Name: "binance", Adapter: adapter}
	c := New(engine, []*Handle{h})

	// Should not panic, and should not touch the adapter.
	c.handleOrder([]string{"order", "okx", "buy", "BTCUSDT", "0.01"})
	assert.Empty(t, adapter.placed)
}

func TestConsole_StatusListsVenues(t *testing.T) {
	adapter := newMockAdapter(1)
	engine := newTestEngine(t, adapter)
	h := &Handle{Name: "binance", Adapter: adapter}
	c := New(engine, []*Handle{h})

	assert.Contains(t, c.venues, "binance")
	c.handleStatus() // smoke test: must not panic
}

func TestConsole_OrdersListsOpenOrders(t *testing.T) {
	adapter := newMockAdapter(1)
	engine := newTestEngine(t, adapter)
	h := &Handle{Name: "binance", Adapter: adapter}
	c := New(engine, []*Handle{h})

	order := &exchange.Order{
		ClientOrderID: "cid-1",
		Symbol:        "BTCUSDT",
		VenueID:       1,
		Side:          ringbus.SideBuy,
		Price:         decimal.NewFromFloat(50000),
		Quantity:      decimal.NewFromFloat(0.01),
	}
	require.NoError(t, adapter.orders.Create(order))

	c.handleOrders([]string{"orders"}) // smoke test: must not panic
	assert.Len(t, adapter.orders.Open(), 1)
}

func TestConsole_ReplaceUnknownOrderNoOp(t *testing.T) {
	adapter := newMockAdapter(1)
	engine := newTestEngine(t, adapter)
	h := &Handle{Name: "binance", Adapter: adapter}
	c := New(engine, []*Handle{h})

	c.handleReplace([]string{"replace", "binance", "BTCUSDT", "missing"})
	assert.Empty(t, adapter.amended)
}
