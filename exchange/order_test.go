package exchange

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/primevenue/gateway/ringbus"
)

func newTestOrder(clientID string) *Order {
	return &Order{
		ClientOrderID: clientID,
		Symbol:        "BTCUSDT",
		VenueID:       1,
		Side:          ringbus.SideBuy,
		Type:          ringbus.OrderTypeLimit,
		Price:         decimal.NewFromFloat(50000),
		Quantity:      decimal.NewFromFloat(0.01),
	}
}

func TestOrder_FullLifecyclePlaceToFilled(t *testing.T) {
	store := NewOrderStore()
	o := newTestOrder("cid-1")
	require.NoError(t, store.Create(o))
	assert.Equal(t, StateCreated, o.State)

	require.NoError(t, o.TransitionTo(StateSubmitted))
	require.NoError(t, store.BindExchangeID("cid-1", "exch-1"))
	require.NoError(t, o.TransitionTo(StateAccepted))

	require.NoError(t, o.TransitionTo(StatePartiallyFilled))
	require.NoError(t, o.TransitionTo(StatePartiallyFilled)) // successive partial fills
	require.NoError(t, o.TransitionTo(StateFilled))

	assert.Equal(t, StateFilled, o.State)
	assert.True(t, o.State.terminal())

	found, ok := store.ByExchangeID("exch-1")
	require.True(t, ok)
	assert.Equal(t, "cid-1", found.ClientOrderID)

	assert.Empty(t, store.Open(), "a filled order is no longer open")
}

func TestOrder_TerminalStateIsSink(t *testing.T) {
	o := newTestOrder("cid-2")
	o.State = StateCancelled
	assert.ErrorIs(t, o.TransitionTo(StateAccepted), ErrInvalidTransition)
}

func TestOrder_SkippingAcceptedRejected(t *testing.T) {
	o := newTestOrder("cid-3")
	assert.ErrorIs(t, o.TransitionTo(StateFilled), ErrInvalidTransition, "CREATED cannot jump straight to FILLED")
}

func TestOrder_RejectedAfterSubmit(t *testing.T) {
	o := newTestOrder("cid-4")
	require.NoError(t, o.TransitionTo(StateSubmitted))
	require.NoError(t, o.TransitionTo(StateRejected))
	assert.True(t, o.State.terminal())
}

func TestOrderStore_DuplicateClientOrderIDRejected(t *testing.T) {
	store := NewOrderStore()
	require.NoError(t, store.Create(newTestOrder("cid-5")))
	assert.ErrorIs(t, store.Create(newTestOrder("cid-5")), ErrDuplicateClientOrderID)
}

func TestOrderStore_RemoveEvictsBothMaps(t *testing.T) {
	store := NewOrderStore()
	o := newTestOrder("cid-6")
	require.NoError(t, store.Create(o))
	require.NoError(t, store.BindExchangeID("cid-6", "exch-6"))

	store.Remove("cid-6")

	_, ok := store.ByClientID("cid-6")
	assert.False(t, ok)
	_, ok = store.ByExchangeID("exch-6")
	assert.False(t, ok)
}
