package okx

import (
	"github.com/shopspring/decimal"

	"github.com/primevenue/gateway/exchange"
)

// applyOrderUpdate folds a private "orders" channel push into the order
// it refers to, mirroring binance/execreport.go's applyExecutionReport.
// Pushes for an order this process never placed are dropped: the lookup
// simply misses.
func (a *Adapter) applyOrderUpdate(r orderRow) {
	o, ok := a.orders.ByClientID(r.ClOrdID)
	if !ok {
		o, ok = a.orders.ByExchangeID(r.OrdID)
		if !ok {
			return
		}
	}

	next := okxStateFor(r.State)
	if next == exchange.StateRejected {
		o.ErrorMsg = r.RejectMsg
	}

	if err := o.TransitionTo(next); err != nil {
		return
	}

	if qty, err := decimal.NewFromString(r.AccFillSz); err == nil {
		o.FilledQuantity = qty
	}
	if px, err := decimal.NewFromString(r.AvgPx); err == nil && px.IsPositive() {
		o.FilledAvgPrice = px
	}

	a.sink.OnOrderUpdate(o)
}

func okxStateFor(state string) exchange.OrderState {
	switch state {
	case orderStateLive:
		return exchange.StateAccepted
	case orderStatePartiallyFilled:
		return exchange.StatePartiallyFilled
	case orderStateFilled:
		return exchange.StateFilled
	case orderStateCanceled:
		return exchange.StateCancelled
	default:
		return exchange.StateRejected
	}
}
