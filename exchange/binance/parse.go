package binance

import (
	"encoding/json"

	"github.com/primevenue/gateway/exchange"
	"github.com/primevenue/gateway/internal/telemetry"
)

func (a *Adapter) parseError() {
	telemetry.ParseErrors.WithLabelValues("binance").Inc()
}

// wireEnvelope is the minimal shape every combined-stream payload shares:
// enough to read the event-type discriminant without committing to a full
// schema before we know which one applies (spec.md §4.C.2's "dispatch on
// the event-type discriminant field").
type wireEnvelope struct {
	EventType string `json:"e"`
}

// depthSnapshotProbe detects the snapshot shape, which lacks "e" entirely
// (spec.md §4.C.2's snapshot-vs-delta branch).
type depthSnapshotProbe struct {
	LastUpdateID int64 `json:"lastUpdateId"`
}

// dispatch parses one inbound WS text frame and invokes the matching
// sink callback. Unknown event types are ignored and malformed frames are
// dropped after a parse-error count (neither is logged), never panicking
// the read loop — a single bad frame must not kill the adapter (spec.md
// §4.C.2).
func (a *Adapter) dispatch(raw []byte) {
	trimmed := raw
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var arr []json.RawMessage
		if err := json.Unmarshal(trimmed, &arr); err != nil {
			a.parseError()
			return
		}
		for _, item := range arr {
			a.dispatchObject(item)
		}
		return
	}
	a.dispatchObject(raw)
}

func (a *Adapter) dispatchObject(raw json.RawMessage) {
	var env wireEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		a.parseError()
		return
	}

	if env.EventType == "" {
		// Open Question decision #2 (SPEC_FULL.md §D): dispatch on "e"
		// first; only fall through to the snapshot shape when it is
		// genuinely absent.
		var probe depthSnapshotProbe
		if err := json.Unmarshal(raw, &probe); err == nil && probe.LastUpdateID != 0 {
			a.handleDepthSnapshot(raw)
		}
		return
	}

	switch env.EventType {
	case eventTrade:
		a.handleTrade(raw)
	case eventKline:
		a.handleKline(raw)
	case eventDepthUpdate:
		a.handleDepthUpdate(raw)
	case eventTicker:
		a.handleTicker(raw)
	case eventMarkPriceUpdate:
		a.handleMarkPrice(raw)
	case eventExecutionReport:
		a.handleExecutionReport(raw)
	case eventOutboundAccount:
		a.sink.OnAccountUpdate(a.venueID, raw)
	default:
		// unknown event type: survive venue schema drift by ignoring it
	}
}

type tradeMsg struct {
	EventTime int64  `json:"E"`
	Symbol    string `json:"s"`
	Price     string `json:"p"`
	Qty       string `json:"q"`
	IsBuyerMaker bool `json:"m"`
}

func (a *Adapter) handleTrade(raw json.RawMessage) {
	var m tradeMsg
	if err := json.Unmarshal(raw, &m); err != nil {
		a.parseError()
		return
	}
	side := uint8(0)
	if m.IsBuyerMaker {
		side = 1
	}
	a.sink.OnTrade(a.venueID, a.symbolID(m.Symbol), exchange.ParseFloat(m.Price), exchange.ParseFloat(m.Qty), side, m.EventTime*1_000_000)
}

type klineMsg struct {
	Symbol string `json:"s"`
	K      struct {
		OpenTime  int64  `json:"t"`
		CloseTime int64  `json:"T"`
		Open      string `json:"o"`
		High      string `json:"h"`
		Low       string `json:"l"`
		Close     string `json:"c"`
		Volume    string `json:"v"`
	} `json:"k"`
}

func (a *Adapter) handleKline(raw json.RawMessage) {
	var m klineMsg
	if err := json.Unmarshal(raw, &m); err != nil {
		a.parseError()
		return
	}
	a.sink.OnKline(a.venueID, a.symbolID(m.Symbol),
		exchange.ParseFloat(m.K.Open), exchange.ParseFloat(m.K.High),
		exchange.ParseFloat(m.K.Low), exchange.ParseFloat(m.K.Close),
		exchange.ParseFloat(m.K.Volume), m.K.OpenTime*1_000_000, m.K.CloseTime*1_000_000)
}

type depthUpdateMsg struct {
	EventTime int64       `json:"E"`
	Symbol    string      `json:"s"`
	Bids      [][2]string `json:"b"`
	Asks      [][2]string `json:"a"`
}

func (a *Adapter) handleDepthUpdate(raw json.RawMessage) {
	var m depthUpdateMsg
	if err := json.Unmarshal(raw, &m); err != nil {
		a.parseError()
		return
	}
	a.sink.OnDepth(a.venueID, a.symbolID(m.Symbol), true,
		exchange.ParseLevels(m.Bids), exchange.ParseLevels(m.Asks), m.EventTime*1_000_000)
}

type depthSnapshotMsg struct {
	LastUpdateID int64       `json:"lastUpdateId"`
	Bids         [][2]string `json:"bids"`
	Asks         [][2]string `json:"asks"`
}

func (a *Adapter) handleDepthSnapshot(raw json.RawMessage) {
	var m depthSnapshotMsg
	if err := json.Unmarshal(raw, &m); err != nil {
		a.parseError()
		return
	}
	a.sink.OnDepth(a.venueID, 0, false, exchange.ParseLevels(m.Bids), exchange.ParseLevels(m.Asks), 0)
}

type tickerMsg struct {
	EventTime int64  `json:"E"`
	Symbol    string `json:"s"`
	LastPrice string `json:"c"`
	BidPrice  string `json:"b"`
	AskPrice  string `json:"a"`
	Volume    string `json:"v"`
}

func (a *Adapter) handleTicker(raw json.RawMessage) {
	var m tickerMsg
	if err := json.Unmarshal(raw, &m); err != nil {
		a.parseError()
		return
	}
	a.sink.OnTicker(a.venueID, a.symbolID(m.Symbol),
		exchange.ParseFloat(m.LastPrice), exchange.ParseFloat(m.BidPrice),
		exchange.ParseFloat(m.AskPrice), exchange.ParseFloat(m.Volume), m.EventTime*1_000_000)
}

type markPriceMsg struct {
	EventTime   int64  `json:"E"`
	Symbol      string `json:"s"`
	MarkPrice   string `json:"p"`
	IndexPrice  string `json:"i"`
	FundingRate string `json:"r"`
}

func (a *Adapter) handleMarkPrice(raw json.RawMessage) {
	var m markPriceMsg
	if err := json.Unmarshal(raw, &m); err != nil {
		a.parseError()
		return
	}
	a.sink.OnMarkPrice(a.venueID, a.symbolID(m.Symbol),
		exchange.ParseFloat(m.MarkPrice), exchange.ParseFloat(m.IndexPrice),
		exchange.ParseFloat(m.FundingRate), m.EventTime*1_000_000)
}

// executionReportMsg is the user-stream order-update payload. Field
// letters follow Binance's wire names; see spec.md §8 scenario 5 for the
// lifecycle this feeds.
type executionReportMsg struct {
	ClientOrderID   string `json:"c"`
	Symbol          string `json:"s"`
	OrderStatus     string `json:"X"`
	ExchangeOrderID int64  `json:"i"`
	LastFilledQty   string `json:"l"`
	CumFilledQty    string `json:"z"`
	LastFilledPrice string `json:"L"`
	RejectReason    string `json:"r"`
}

func (a *Adapter) handleExecutionReport(raw json.RawMessage) {
	var m executionReportMsg
	if err := json.Unmarshal(raw, &m); err != nil {
		a.parseError()
		return
	}
	a.applyExecutionReport(m)
}

func (a *Adapter) symbolID(symbol string) uint16 {
	return a.symbols.Intern(symbol)
}
