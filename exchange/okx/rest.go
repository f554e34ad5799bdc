package okx

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"github.com/primevenue/gateway/exchange"
	"github.com/primevenue/gateway/ringbus"
)

type orderRequest struct {
	InstID  string `json:"instId"`
	TdMode  string `json:"tdMode"`
	Side    string `json:"side"`
	OrdType string `json:"ordType"`
	Sz      string `json:"sz"`
	Px      string `json:"px,omitempty"`
	ClOrdID string `json:"clOrdId"`
}

type apiEnvelope struct {
	Code string            `json:"code"`
	Msg  string            `json:"msg"`
	Data []json.RawMessage `json:"data"`
}

type orderAck struct {
	OrdID   string `json:"ordId"`
	ClOrdID string `json:"clOrdId"`
	SCode   string `json:"sCode"`
	SMsg    string `json:"sMsg"`
}

// PlaceOrder POSTs /api/v5/trade/order, signed per spec.md §4.C.2.
func (a *Adapter) PlaceOrder(o *exchange.Order) error {
	req := []orderRequest{{
		InstID:  o.Symbol,
		TdMode:  "cash",
		Side:    sideWire(o.Side),
		OrdType: orderTypeWire(o.Type),
		Sz:      o.Quantity.String(),
		ClOrdID: o.ClientOrderID,
	}}
	if o.Type == ringbus.OrderTypeLimit {
		req[0].Px = o.Price.String()
	}

	const path = "/api/v5/trade/order"
	var env apiEnvelope
	r, err := a.signedRequest("POST", path, req, &env)
	if err != nil {
		return a.failOrder(o, err.Error())
	}
	return a.handleOrderResponse(o, r, env)
}

func (a *Adapter) handleOrderResponse(o *exchange.Order, r *resty.Response, env apiEnvelope) error {
	if r.StatusCode() < 200 || r.StatusCode() >= 300 || len(env.Data) == 0 {
		return a.failOrder(o, fmt.Sprintf("http %d: %s", r.StatusCode(), env.Msg))
	}

	var ack orderAck
	if err := json.Unmarshal(env.Data[0], &ack); err != nil {
		return a.failOrder(o, err.Error())
	}

	if ack.SCode != "0" {
		o.ErrorMsg = ack.SMsg
		_ = o.TransitionTo(exchange.StateSubmitted)
		_ = o.TransitionTo(exchange.StateRejected)
		a.sink.OnOrderUpdate(o)
		return nil
	}

	o.ExchangeOrderID = ack.OrdID
	if err := a.orders.BindExchangeID(o.ClientOrderID, o.ExchangeOrderID); err != nil {
		return err
	}
	if err := o.TransitionTo(exchange.StateSubmitted); err != nil {
		return err
	}
	a.sink.OnOrderUpdate(o)
	return nil
}

func (a *Adapter) failOrder(o *exchange.Order, msg string) error {
	o.ErrorMsg = msg
	_ = o.TransitionTo(exchange.StateSubmitted)
	_ = o.TransitionTo(exchange.StateFailed)
	a.sink.OnOrderUpdate(o)
	return nil
}

// CancelOrder cancels by client-order-id via /api/v5/trade/cancel-order.
func (a *Adapter) CancelOrder(instID, clientOrderID string) error {
	body := []map[string]string{{"instId": instID, "clOrdId": clientOrderID}}
	var env apiEnvelope
	_, err := a.signedRequest("POST", "/api/v5/trade/cancel-order", body, &env)
	return err
}

// AmendOrder implements the two-phase fallback from SPEC_FULL.md §D
// decision 1: OKX has no atomic replace, so it cancels the live order,
// polls the order's state every 50ms for up to 3s until the private orders
// channel marks it CANCELLED, and only then places the replacement. If the
// order is seen FILLED or PARTIALLY_FILLED first, or the 3s pass without a
// cancel confirmation, ErrAmendRace is returned and no replacement is
// sent, per spec.md §4.C.2's "amend never sends a duplicate when the
// original already executed."
func (a *Adapter) AmendOrder(o *exchange.Order, newPrice, newQty string) error {
	if err := a.CancelOrder(o.Symbol, o.ClientOrderID); err != nil {
		return err
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		snap := o.Snapshot()
		switch snap.State {
		case exchange.StateCancelled:
			newOrder := &exchange.Order{
				ClientOrderID: snap.ClientOrderID + "-r",
				Symbol:        snap.Symbol,
				VenueID:       snap.VenueID,
				Side:          snap.Side,
				Type:          snap.Type,
				Quantity:      decimalOrZero(newQty),
				Price:         decimalOrZero(newPrice),
			}
			if err := a.orders.Create(newOrder); err != nil {
				return err
			}
			return a.PlaceOrder(newOrder)
		case exchange.StateFilled, exchange.StatePartiallyFilled:
			return exchange.ErrAmendRace
		}
		time.Sleep(50 * time.Millisecond)
	}
	return exchange.ErrAmendRace
}

func decimalOrZero(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func (a *Adapter) signedRequest(method, path string, body interface{}, out *apiEnvelope) (*resty.Response, error) {
	payload := []byte{}
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		payload = b
	}
	ts, sig := a.signer.sign(method, path, string(payload))

	req := a.rest.R().
		SetHeader("OK-ACCESS-KEY", a.cfg.APIKey).
		SetHeader("OK-ACCESS-SIGN", sig).
		SetHeader("OK-ACCESS-TIMESTAMP", ts).
		SetHeader("OK-ACCESS-PASSPHRASE", a.signer.passphrase).
		SetHeader("Content-Type", "application/json").
		SetResult(out)

	if len(payload) > 0 {
		req.SetBody(payload)
	}

	switch method {
	case "POST":
		return req.Post(a.restBase + path)
	case "DELETE":
		return req.Delete(a.restBase + path)
	default:
		return req.Get(a.restBase + path)
	}
}

func sideWire(s ringbus.OrderSide) string {
	if s == ringbus.SideBuy {
		return sideBuy
	}
	return sideSell
}

func orderTypeWire(t ringbus.OrderType) string {
	switch t {
	case ringbus.OrderTypeMarket:
		return orderTypeMarket
	case ringbus.OrderTypeFOK:
		return orderTypeFOK
	case ringbus.OrderTypeIOC:
		return orderTypeIOC
	case ringbus.OrderTypePostOnly:
		return orderTypePostOnly
	default:
		return orderTypeLimit
	}
}
