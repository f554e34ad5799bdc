package binance

import (
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/primevenue/gateway/exchange"
)

// VenueID is the 8-bit venue enum value ringbus.MarketEvent.VenueID and
// journal frames carry for Binance.
const VenueID uint8 = 1

// Adapter is the Binance-family ExchangeAdapter: one instance per
// account, owning up to two WS connections (public market and, when
// credentials are set, user data) plus a REST client. There is no separate
// business-market stream and no WS trading connection; orders go over REST.
type Adapter struct {
	cfg      exchange.Config
	venueID  uint8
	restBase string

	rest   *resty.Client
	signer signer

	symbols *exchange.SymbolTable
	orders  *exchange.OrderStore
	sink    exchange.EventSink

	marketWS   *exchange.PerpetualClient
	userWS     *exchange.PerpetualClient
	marketSubs *exchange.SubscriptionSet

	listenKeys *exchange.ListenKeyManager
	state      exchange.StateMachine
}

// NewAdapter builds a Binance adapter. sink receives every parsed event;
// in the running system it is the owning fabric.Engine.
func NewAdapter(cfg exchange.Config, sink exchange.EventSink) *Adapter {
	cfg = cfg.WithDefaults()
	a := &Adapter{
		cfg:        cfg,
		venueID:    VenueID,
		restBase:   restBase(cfg),
		rest:       exchange.NewRESTClient(cfg),
		signer:     signer{secretKey: cfg.SecretKey},
		symbols:    exchange.NewSymbolTable(),
		orders:     exchange.NewOrderStore(),
		sink:       sink,
		marketSubs: exchange.NewSubscriptionSet(),
	}
	return a
}

// Start brings the adapter from CREATED to CONNECTED: opens the market
// data WS, and — if credentials are present — obtains a listen key and
// opens the user-data WS. Both connections are dialed on their own
// goroutines; Start reports CONNECTED as soon as those goroutines are
// launched and the listen key is obtained, without waiting for either
// socket to open or for subscriptions to be sent.
func (a *Adapter) Start() error {
	a.state.Transition(exchange.StateStarting)

	a.marketWS = exchange.NewPerpetualClient(a.cfg, marketWSBase(a.cfg)+"/stream",
		func() { a.onMarketOpen() },
		a.dispatch,
		a.onMarketClose,
	)
	go a.marketWS.Start()

	if a.cfg.APIKey != "" && a.cfg.SecretKey != "" {
		a.listenKeys = exchange.NewListenKeyManager(
			time.Duration(a.cfg.ListenKeyRefreshSec)*time.Second, 3,
			a.obtainListenKey, a.keepAliveListenKey, a.onListenKeyExpired,
		)
		key, err := a.listenKeys.Start()
		if err != nil {
			return err
		}
		a.userWS = exchange.NewPerpetualClient(a.cfg, marketWSBase(a.cfg)+"/"+key,
			nil, a.dispatch, a.onUserClose,
		)
		go a.userWS.Start()
	}

	a.state.Transition(exchange.StateConnected)
	a.sink.OnAdapterStatus(a.venueID, exchange.StateConnected, "")
	return nil
}

func (a *Adapter) onMarketOpen() {
	for _, payload := range a.marketSubs.Replay() {
		_ = a.marketWS.Send(payload)
	}
	if a.state.Current() == exchange.StateReconnecting && a.state.Transition(exchange.StateConnected) {
		a.sink.OnAdapterStatus(a.venueID, exchange.StateConnected, "")
	}
}

func (a *Adapter) onMarketClose(err error) {
	a.state.Transition(exchange.StateReconnecting)
	reason := ""
	if err != nil {
		reason = err.Error()
	}
	a.sink.OnAdapterStatus(a.venueID, exchange.StateReconnecting, reason)
}

func (a *Adapter) onUserClose(err error) {
	// listen-key refresh owns user-stream recovery; a close here just
	// surfaces status, it does not itself reconnect (the key may have
	// expired, which onListenKeyExpired handles separately).
	reason := ""
	if err != nil {
		reason = err.Error()
	}
	a.sink.OnAdapterStatus(a.venueID, exchange.StateReconnecting, "user stream: "+reason)
}

func (a *Adapter) onListenKeyExpired() {
	if a.userWS != nil {
		a.userWS.Stop()
	}
	key, err := a.obtainListenKey()
	if err != nil {
		a.sink.OnAdapterStatus(a.venueID, exchange.StateReconnecting, "listen key refresh: "+err.Error())
		return
	}
	a.userWS = exchange.NewPerpetualClient(a.cfg, marketWSBase(a.cfg)+"/"+key,
		nil, a.dispatch, a.onUserClose,
	)
	go a.userWS.Start()
}

// subscribe sends a Binance "SUBSCRIBE" envelope and records it for
// replay, per spec.md §4.C.2.
func (a *Adapter) subscribe(stream string) error {
	payload := []byte(fmt.Sprintf(`{"method":"SUBSCRIBE","params":["%s"],"id":1}`, stream))
	a.marketSubs.Add(stream, payload)
	if a.marketWS == nil || !a.marketWS.Connected() {
		return nil
	}
	return a.marketWS.Send(payload)
}

// SubscribeTicker subscribes to the 24hr rolling ticker stream.
func (a *Adapter) SubscribeTicker(symbol string) error {
	return a.subscribe(lower(symbol) + "@ticker")
}

// SubscribeTrades subscribes to the raw trade stream.
func (a *Adapter) SubscribeTrades(symbol string) error {
	return a.subscribe(lower(symbol) + "@trade")
}

// SubscribeOrderBook subscribes to the partial-depth stream at the given
// level (5/10/20), matching original_source's subscribe_orderbook(levels).
func (a *Adapter) SubscribeOrderBook(symbol string, levels int) error {
	return a.subscribe(fmt.Sprintf("%s@depth%d", lower(symbol), levels))
}

// SubscribeKline subscribes to a kline/candlestick interval stream.
func (a *Adapter) SubscribeKline(symbol, interval string) error {
	return a.subscribe(lower(symbol) + "@kline_" + interval)
}

// SubscribeMarkPrice subscribes to the perpetual mark-price stream.
func (a *Adapter) SubscribeMarkPrice(symbol string) error {
	return a.subscribe(lower(symbol) + "@markPrice")
}

// Unsubscribe removes a stream from the replay set and sends the inverse
// UNSUBSCRIBE message.
func (a *Adapter) Unsubscribe(stream string) error {
	a.marketSubs.Remove(stream)
	payload := []byte(fmt.Sprintf(`{"method":"UNSUBSCRIBE","params":["%s"],"id":1}`, stream))
	if a.marketWS == nil || !a.marketWS.Connected() {
		return nil
	}
	return a.marketWS.Send(payload)
}

// Stop drives STOPPING regardless of current state and tears everything
// down: ping/refresh loops first, then the WS connections (spec.md
// §4.C.2).
func (a *Adapter) Stop() {
	a.state.Transition(exchange.StateStopping)
	if a.listenKeys != nil {
		a.listenKeys.Stop()
	}
	if a.marketWS != nil {
		a.marketWS.Stop()
	}
	if a.userWS != nil {
		a.userWS.Stop()
	}
	a.state.Transition(exchange.StateStopped)
	a.sink.OnAdapterStatus(a.venueID, exchange.StateStopped, "")
}

// State returns the adapter's current top-level state.
func (a *Adapter) State() exchange.AdapterState {
	return a.state.Current()
}

// VenueID returns this adapter's venue enum value.
func (a *Adapter) VenueID() uint8 { return a.venueID }

// Symbols returns the adapter's symbol-id interning table, for the
// order-egress path to recover a venue symbol string from the 16-bit id
// carried by an OrderCommand.
func (a *Adapter) Symbols() *exchange.SymbolTable { return a.symbols }

// Orders returns the adapter's order store.
func (a *Adapter) Orders() *exchange.OrderStore { return a.orders }

func lower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
