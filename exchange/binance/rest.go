package binance

import (
	"fmt"

	"github.com/go-resty/resty/v2"

	"github.com/primevenue/gateway/exchange"
	"github.com/primevenue/gateway/ringbus"
)

type orderResponse struct {
	OrderID int64  `json:"orderId"`
	Status  string `json:"status"`
	Code    int    `json:"code"`
	Msg     string `json:"msg"`
}

// PlaceOrder implements the REST order-placement path from spec.md
// §4.C.2 steps 1-7: build the signed query, submit with a short timeout,
// and publish a SUBMITTED/REJECTED/FAILED Order event.
func (a *Adapter) PlaceOrder(o *exchange.Order) error {
	params := map[string]string{
		"symbol":        o.Symbol,
		"side":          sideWire(o.Side),
		"type":          orderTypeWire(o.Type),
		"quantity":      o.Quantity.String(),
		"newClientOrderId": o.ClientOrderID,
	}
	if o.Type == ringbus.OrderTypeLimit {
		params["price"] = o.Price.String()
		params["timeInForce"] = tifGTC
	}

	query, sig := a.signer.sign(params)
	endpoint := a.restBase + "/api/v3/order?" + query + "&signature=" + sig

	var resp orderResponse
	r, err := a.rest.R().
		SetHeader("X-MBX-APIKEY", a.cfg.APIKey).
		SetResult(&resp).
		Post(endpoint)

	if err != nil {
		return a.failOrder(o, err.Error())
	}
	return a.handleOrderResponse(o, r, resp)
}

func (a *Adapter) handleOrderResponse(o *exchange.Order, r *resty.Response, resp orderResponse) error {
	if r.StatusCode() >= 200 && r.StatusCode() < 300 {
		o.ExchangeOrderID = fmt.Sprintf("%d", resp.OrderID)
		if err := a.orders.BindExchangeID(o.ClientOrderID, o.ExchangeOrderID); err != nil {
			return err
		}
		if err := o.TransitionTo(exchange.StateSubmitted); err != nil {
			return err
		}
		a.sink.OnOrderUpdate(o)
		return nil
	}
	if r.StatusCode() >= 400 && r.StatusCode() < 500 {
		o.ErrorMsg = resp.Msg
		_ = o.TransitionTo(exchange.StateSubmitted)
		_ = o.TransitionTo(exchange.StateRejected)
		a.sink.OnOrderUpdate(o)
		return nil
	}
	return a.failOrder(o, fmt.Sprintf("http %d", r.StatusCode()))
}

func (a *Adapter) failOrder(o *exchange.Order, msg string) error {
	o.ErrorMsg = msg
	_ = o.TransitionTo(exchange.StateSubmitted)
	_ = o.TransitionTo(exchange.StateFailed)
	a.sink.OnOrderUpdate(o)
	return nil
}

// CancelOrder cancels by client-order-id only (sent as origClientOrderId);
// there is no variant that cancels by exchange-order-id.
func (a *Adapter) CancelOrder(symbol, clientOrderID string) error {
	params := map[string]string{
		"symbol":            symbol,
		"origClientOrderId": clientOrderID,
	}
	query, sig := a.signer.sign(params)
	endpoint := a.restBase + "/api/v3/order?" + query + "&signature=" + sig

	_, err := a.rest.R().
		SetHeader("X-MBX-APIKEY", a.cfg.APIKey).
		Delete(endpoint)
	return err
}

// AmendOrder: Binance supports native order amendment via cancelReplace,
// so unlike OKX this venue does not need the two-phase fallback from
// SPEC_FULL.md §D decision 1.
func (a *Adapter) AmendOrder(o *exchange.Order, newPrice, newQty string) error {
	params := map[string]string{
		"symbol":            o.Symbol,
		"cancelReplaceMode": "STOP_ON_FAILURE",
		"cancelOrigClientOrderId": o.ClientOrderID,
		"side":              sideWire(o.Side),
		"type":              orderTypeWire(o.Type),
		"quantity":          newQty,
		"price":             newPrice,
		"timeInForce":       tifGTC,
	}
	query, sig := a.signer.sign(params)
	endpoint := a.restBase + "/api/v3/order/cancelReplace?" + query + "&signature=" + sig

	_, err := a.rest.R().
		SetHeader("X-MBX-APIKEY", a.cfg.APIKey).
		Post(endpoint)
	return err
}

type listenKeyResponse struct {
	ListenKey string `json:"listenKey"`
}

func (a *Adapter) obtainListenKey() (string, error) {
	var resp listenKeyResponse
	_, err := a.rest.R().
		SetHeader("X-MBX-APIKEY", a.cfg.APIKey).
		SetResult(&resp).
		Post(a.restBase + "/api/v3/userDataStream")
	if err != nil {
		return "", err
	}
	return resp.ListenKey, nil
}

func (a *Adapter) keepAliveListenKey(key string) error {
	_, err := a.rest.R().
		SetHeader("X-MBX-APIKEY", a.cfg.APIKey).
		SetQueryParam("listenKey", key).
		Put(a.restBase + "/api/v3/userDataStream")
	return err
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
	default:
		return orderTypeLimit
	}
}
