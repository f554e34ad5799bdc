package okx

import (
	"encoding/json"

	"github.com/primevenue/gateway/exchange"
	"github.com/primevenue/gateway/internal/telemetry"
)

func (a *Adapter) parseError() {
	telemetry.ParseErrors.WithLabelValues("okx").Inc()
}

// envelope is OKX's combined-stream wrapper: every push carries an "arg"
// naming the channel/instrument and a "data" array of one or more rows
// (spec.md §4.C.2's per-venue wire adaptation).
type envelope struct {
	Arg struct {
		Channel  string `json:"channel"`
		InstID   string `json:"instId"`
	} `json:"arg"`
	Data json.RawMessage `json:"data"`
	Event string `json:"event"` // "subscribe"/"error"/"login" acks, no "arg.channel"
}

// dispatch parses one inbound WS text frame and invokes the matching sink
// callback. A malformed frame or unrecognized channel is dropped silently,
// never panicking the read loop (spec.md §4.C.2).
func (a *Adapter) dispatch(raw []byte) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		a.parseError()
		return
	}
	if env.Event != "" {
		// subscribe/login/error acknowledgements carry no market data.
		return
	}

	switch env.Arg.Channel {
	case channelTickers:
		a.handleTickers(env.Data)
	case channelTrades:
		a.handleTrades(env.Data)
	case channelBooks5:
		a.handleBooks5(env.Data)
	case channelCandle1m:
		a.handleCandle(env.Data)
	case channelMarkPrice:
		a.handleMarkPrice(env.Data)
	case channelOrders:
		a.handleOrders(env.Data)
	case channelAccount:
		a.sink.OnAccountUpdate(a.venueID, env.Data)
	default:
		// unknown/unsubscribed channel: survive venue schema drift
	}
}

type tickerRow struct {
	InstID    string `json:"instId"`
	Last      string `json:"last"`
	BidPx     string `json:"bidPx"`
	AskPx     string `json:"askPx"`
	Vol24h    string `json:"vol24h"`
	Timestamp string `json:"ts"`
}

func (a *Adapter) handleTickers(data json.RawMessage) {
	var rows []tickerRow
	if err := json.Unmarshal(data, &rows); err != nil {
		a.parseError()
		return
	}
	for _, r := range rows {
		a.sink.OnTicker(a.venueID, a.symbolID(r.InstID),
			exchange.ParseFloat(r.Last), exchange.ParseFloat(r.BidPx),
			exchange.ParseFloat(r.AskPx), exchange.ParseFloat(r.Vol24h),
			int64(exchange.ParseFloat(r.Timestamp))*1_000_000)
	}
}

type tradeRow struct {
	InstID    string `json:"instId"`
	Price     string `json:"px"`
	Size      string `json:"sz"`
	Side      string `json:"side"`
	Timestamp string `json:"ts"`
}

func (a *Adapter) handleTrades(data json.RawMessage) {
	var rows []tradeRow
	if err := json.Unmarshal(data, &rows); err != nil {
		a.parseError()
		return
	}
	for _, r := range rows {
		side := uint8(0)
		if r.Side == sideSell {
			side = 1
		}
		a.sink.OnTrade(a.venueID, a.symbolID(r.InstID),
			exchange.ParseFloat(r.Price), exchange.ParseFloat(r.Size), side,
			int64(exchange.ParseFloat(r.Timestamp))*1_000_000)
	}
}

type booksRow struct {
	Bids      [][2]string `json:"bids"`
	Asks      [][2]string `json:"asks"`
	Timestamp string      `json:"ts"`
}

func (a *Adapter) handleBooks5(data json.RawMessage) {
	var rows []booksRow
	if err := json.Unmarshal(data, &rows); err != nil {
		a.parseError()
		return
	}
	for _, r := range rows {
		// books5 is a fixed 5-level snapshot resent every tick, never a
		// delta, so isDelta is always false here.
		a.sink.OnDepth(a.venueID, 0, false,
			exchange.ParseLevels(r.Bids), exchange.ParseLevels(r.Asks),
			int64(exchange.ParseFloat(r.Timestamp))*1_000_000)
	}
}

// candleRow is OKX's candle array-of-strings shape:
// [ts, o, h, l, c, vol, volCcy, volCcyQuote, confirm].
type candleRow [9]string

func (a *Adapter) handleCandle(data json.RawMessage) {
	var rows []candleRow
	if err := json.Unmarshal(data, &rows); err != nil {
		a.parseError()
		return
	}
	for _, r := range rows {
		ts := exchange.ParseFloat(r[0])
		a.sink.OnKline(a.venueID, 0,
			exchange.ParseFloat(r[1]), exchange.ParseFloat(r[2]),
			exchange.ParseFloat(r[3]), exchange.ParseFloat(r[4]),
			exchange.ParseFloat(r[5]), int64(ts)*1_000_000, int64(ts)*1_000_000)
	}
}

type markPriceRow struct {
	InstID    string `json:"instId"`
	MarkPx    string `json:"markPx"`
	Timestamp string `json:"ts"`
}

func (a *Adapter) handleMarkPrice(data json.RawMessage) {
	var rows []markPriceRow
	if err := json.Unmarshal(data, &rows); err != nil {
		a.parseError()
		return
	}
	for _, r := range rows {
		a.sink.OnMarkPrice(a.venueID, a.symbolID(r.InstID),
			exchange.ParseFloat(r.MarkPx), 0, 0, int64(exchange.ParseFloat(r.Timestamp))*1_000_000)
	}
}

// orderRow is the private "orders" channel push. Field names follow
// OKX's wire schema; see spec.md §8 scenario 5 for the lifecycle this
// feeds.
type orderRow struct {
	ClOrdID    string `json:"clOrdId"`
	OrdID      string `json:"ordId"`
	State      string `json:"state"`
	FillSz     string `json:"fillSz"`
	AccFillSz  string `json:"accFillSz"`
	AvgPx      string `json:"avgPx"`
	RejectMsg  string `json:"rejectMsg"`
}

func (a *Adapter) handleOrders(data json.RawMessage) {
	var rows []orderRow
	if err := json.Unmarshal(data, &rows); err != nil {
		a.parseError()
		return
	}
	for _, r := range rows {
		a.applyOrderUpdate(r)
	}
}

func (a *Adapter) symbolID(instID string) uint16 {
	return a.symbols.Intern(instID)
}
