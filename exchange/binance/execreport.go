package binance

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/primevenue/gateway/exchange"
)

// applyExecutionReport folds a user-stream executionReport into the order
// it refers to, advancing its state machine and publishing the result,
// per spec.md §8 scenario 5's PLACE -> SUBMITTED -> ACCEPTED -> FILLED
// lifecycle. Reports for an order this process never placed (a foreign
// client-order-id, or a restart losing in-memory state) are dropped: the
// exchange-id lookup simply misses and there is nothing to fold into.
func (a *Adapter) applyExecutionReport(m executionReportMsg) {
	exchangeID := fmt.Sprintf("%d", m.ExchangeOrderID)
	o, ok := a.orders.ByClientID(m.ClientOrderID)
	if !ok {
		o, ok = a.orders.ByExchangeID(exchangeID)
		if !ok {
			return
		}
	}

	next, terminal := execStateFor(m.OrderStatus)
	if terminal == exchange.StateRejected {
		o.ErrorMsg = m.RejectReason
	}

	if err := o.TransitionTo(next); err != nil {
		return
	}

	if qty, err := decimal.NewFromString(m.CumFilledQty); err == nil {
		o.FilledQuantity = qty
	}
	if px, err := decimal.NewFromString(m.LastFilledPrice); err == nil && px.IsPositive() {
		o.FilledAvgPrice = px
	}

	a.sink.OnOrderUpdate(o)
}

// execStateFor maps Binance's "X" order-status wire value to the local
// OrderState DAG. The second return value is only meaningful when next is
// itself a terminal rejection state; it exists so callers can tell a
// REJECTED transition apart from other terminal ones without a second
// switch.
func execStateFor(status string) (next exchange.OrderState, terminal exchange.OrderState) {
	switch status {
	case execStatusNew:
		return exchange.StateAccepted, exchange.StateAccepted
	case execStatusPartiallyFilled:
		return exchange.StatePartiallyFilled, exchange.StatePartiallyFilled
	case execStatusFilled:
		return exchange.StateFilled, exchange.StateFilled
	case execStatusCanceled:
		return exchange.StateCancelled, exchange.StateCancelled
	case execStatusRejected, execStatusExpired:
		return exchange.StateRejected, exchange.StateRejected
	default:
		return exchange.StateFailed, exchange.StateFailed
	}
}
