// Package okx implements the OKX ExchangeAdapter: separate public
// (market data) and private (orders/account) WebSocket connections, with
// no business-channel connection, HMAC-SHA256-base64 request
// signing with a separate passphrase header, and the two-phase
// cancel-then-confirm amend fallback OKX needs because it has no native
// order-replace endpoint (spec.md §4.C.2, SPEC_FULL.md §D decision 1).
package okx

import "github.com/primevenue/gateway/exchange"

// Host families, matching original_source/cpp/adapters/okx/okx_websocket.h.
const (
	mainnetWSPublic   = "wss://ws.okx.com:8443/ws/v5/public"
	mainnetWSPrivate  = "wss://ws.okx.com:8443/ws/v5/private"
	mainnetWSBusiness = "wss://ws.okx.com:8443/ws/v5/business"
	mainnetREST       = "https://www.okx.com"

	testnetWSPublic   = "wss://wspap.okx.com:8443/ws/v5/public"
	testnetWSPrivate  = "wss://wspap.okx.com:8443/ws/v5/private"
	testnetWSBusiness = "wss://wspap.okx.com:8443/ws/v5/business"
	testnetREST       = "https://www.okx.com"
)

func publicWSBase(cfg exchange.Config) string {
	if cfg.IsTestnet {
		return testnetWSPublic
	}
	return mainnetWSPublic
}

func privateWSBase(cfg exchange.Config) string {
	if cfg.IsTestnet {
		return testnetWSPrivate
	}
	return mainnetWSPrivate
}

func businessWSBase(cfg exchange.Config) string {
	if cfg.IsTestnet {
		return testnetWSBusiness
	}
	return mainnetWSBusiness
}

func restBase(cfg exchange.Config) string {
	if cfg.IsTestnet {
		return testnetREST
	}
	return mainnetREST
}

// channel names for the public/business streams.
const (
	channelTickers   = "tickers"
	channelTrades    = "trades"
	channelBooks5    = "books5"
	channelCandle1m  = "candle1m"
	channelMarkPrice = "mark-price"
	channelOrders    = "orders"
	channelAccount   = "account"
)

// order side/type/TIF wire values.
const (
	sideBuy  = "buy"
	sideSell = "sell"

	orderTypeLimit  = "limit"
	orderTypeMarket = "market"
	orderTypeFOK    = "fok"
	orderTypeIOC    = "ioc"
	orderTypePostOnly = "post_only"
)

// order-state ("state") values carried in private "orders" channel pushes.
const (
	orderStateLive            = "live"
	orderStatePartiallyFilled = "partially_filled"
	orderStateFilled          = "filled"
	orderStateCanceled        = "canceled"
)
