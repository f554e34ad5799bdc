// Package binance implements the Binance-family ExchangeAdapter: REST +
// WebSocket market data and user-data streams, HMAC-SHA256 query-string
// signing, and listen-key lifecycle management, per spec.md §4.C.2.
package binance

import "github.com/primevenue/gateway/exchange"

// Host families. Testnet and mainnet use distinct host families per venue
// (spec.md §4.C.2's URL-selection contract), matching the endpoints
// documented in original_source/cpp/adapters/binance/binance_websocket.h.
const (
	mainnetWSMarket    = "wss://stream.binance.com:9443/ws"
	mainnetWSTrading   = "wss://ws-api.binance.com/ws-api/v3"
	mainnetRESTSpot    = "https://api.binance.com"
	mainnetRESTFutures = "https://fapi.binance.com"

	testnetWSMarket    = "wss://stream.testnet.binance.vision/ws"
	testnetWSTrading   = "wss://ws-api.testnet.binance.vision/ws-api/v3"
	testnetRESTSpot    = "https://testnet.binance.vision"
	testnetRESTFutures = "https://testnet.binancefuture.com"
)

// marketWSBase returns the streaming host for the configured market type
// and network, per spec.md §4.C.2 URL selection.
func marketWSBase(cfg exchange.Config) string {
	if cfg.IsTestnet {
		return testnetWSMarket
	}
	return mainnetWSMarket
}

func tradingWSBase(cfg exchange.Config) string {
	if cfg.IsTestnet {
		return testnetWSTrading
	}
	return mainnetWSTrading
}

func restBase(cfg exchange.Config) string {
	switch cfg.MarketType {
	case exchange.MarketUSDTFutures, exchange.MarketCoinFutures:
		if cfg.IsTestnet {
			return testnetRESTFutures
		}
		return mainnetRESTFutures
	default:
		if cfg.IsTestnet {
			return testnetRESTSpot
		}
		return mainnetRESTSpot
	}
}

// Event-type discriminant values carried in the "e" field of combined
// stream payloads.
const (
	eventTrade            = "trade"
	eventKline            = "kline"
	eventDepthUpdate      = "depthUpdate"
	eventTicker           = "24hrTicker"
	eventMarkPriceUpdate  = "markPriceUpdate"
	eventExecutionReport  = "executionReport"
	eventOutboundAccount  = "outboundAccountPosition"
)

// Order side/type/TIF wire values.
const (
	sideBuy  = "BUY"
	sideSell = "SELL"

	orderTypeLimit  = "LIMIT"
	orderTypeMarket = "MARKET"
	orderTypeFOK    = "FOK"
	orderTypeIOC    = "IOC"

	tifGTC = "GTC"
	tifIOC = "IOC"
	tifFOK = "FOK"
)

// executionReport order-status ("X") values.
const (
	execStatusNew             = "NEW"
	execStatusPartiallyFilled = "PARTIALLY_FILLED"
	execStatusFilled          = "FILLED"
	execStatusCanceled        = "CANCELED"
	execStatusRejected        = "REJECTED"
	execStatusExpired         = "EXPIRED"
)
