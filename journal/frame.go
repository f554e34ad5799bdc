package journal

import "encoding/binary"

// MsgType identifies a frame's payload schema, per spec.md §6: "msg_type
// maps to a published schema version per payload kind."
type MsgType uint32

const (
	MsgTypeNone MsgType = iota
	MsgTypeTicker
	MsgTypeTrade
	MsgTypeKline
	MsgTypeDepth
	MsgTypeMarkPrice
	MsgTypeOrderReport
	MsgTypeAdapterStatus
)

// frameHeaderSize is the on-wire size of FrameHeader: length(4) +
// msg_type(4) + gen_time_ns(8) + trigger_time_ns(8) + source(4) + dest(4).
const frameHeaderSize = 32

// FrameHeader precedes every payload in the frame arena. length is
// payload-only, excluding the header itself (spec.md §6).
type FrameHeader struct {
	Length        uint32
	MsgType       MsgType
	GenTimeNs     int64
	TriggerTimeNs int64
	Source        uint32
	Dest          uint32
}

func (h FrameHeader) encode(dst []byte) {
	binary.LittleEndian.PutUint32(dst[0:4], h.Length)
	binary.LittleEndian.PutUint32(dst[4:8], uint32(h.MsgType))
	binary.LittleEndian.PutUint64(dst[8:16], uint64(h.GenTimeNs))
	binary.LittleEndian.PutUint64(dst[16:24], uint64(h.TriggerTimeNs))
	binary.LittleEndian.PutUint32(dst[24:28], h.Source)
	binary.LittleEndian.PutUint32(dst[28:32], h.Dest)
}

func decodeFrameHeader(src []byte) FrameHeader {
	return FrameHeader{
		Length:        binary.LittleEndian.Uint32(src[0:4]),
		MsgType:       MsgType(binary.LittleEndian.Uint32(src[4:8])),
		GenTimeNs:     int64(binary.LittleEndian.Uint64(src[8:16])),
		TriggerTimeNs: int64(binary.LittleEndian.Uint64(src[16:24])),
		Source:        binary.LittleEndian.Uint32(src[24:28]),
		Dest:          binary.LittleEndian.Uint32(src[28:32]),
	}
}

// TickerFrame is the MsgTypeTicker payload schema.
type TickerFrame struct {
	SymbolID uint16
	VenueID  uint8
	LastPx   float64
	BidPx    float64
	AskPx    float64
	Qty      float64
}

const tickerFrameSize = 2 + 1 + 5 + 8*4 // symbol(2) venue(1) pad(5) 4 floats

func (f TickerFrame) encode(dst []byte) {
	binary.LittleEndian.PutUint16(dst[0:2], f.SymbolID)
	dst[2] = f.VenueID
	binary.LittleEndian.PutUint64(dst[8:16], f64bits(f.LastPx))
	binary.LittleEndian.PutUint64(dst[16:24], f64bits(f.BidPx))
	binary.LittleEndian.PutUint64(dst[24:32], f64bits(f.AskPx))
	binary.LittleEndian.PutUint64(dst[32:40], f64bits(f.Qty))
}

func decodeTickerFrame(src []byte) TickerFrame {
	return TickerFrame{
		SymbolID: binary.LittleEndian.Uint16(src[0:2]),
		VenueID:  src[2],
		LastPx:   bitsf64(binary.LittleEndian.Uint64(src[8:16])),
		BidPx:    bitsf64(binary.LittleEndian.Uint64(src[16:24])),
		AskPx:    bitsf64(binary.LittleEndian.Uint64(src[24:32])),
		Qty:      bitsf64(binary.LittleEndian.Uint64(src[32:40])),
	}
}

// TradeFrame is the MsgTypeTrade payload schema.
type TradeFrame struct {
	SymbolID uint16
	VenueID  uint8
	Side     uint8
	Price    float64
	Qty      float64
}

const tradeFrameSize = 2 + 1 + 1 + 4 + 8*2

func (f TradeFrame) encode(dst []byte) {
	binary.LittleEndian.PutUint16(dst[0:2], f.SymbolID)
	dst[2] = f.VenueID
	dst[3] = f.Side
	binary.LittleEndian.PutUint64(dst[8:16], f64bits(f.Price))
	binary.LittleEndian.PutUint64(dst[16:24], f64bits(f.Qty))
}

func decodeTradeFrame(src []byte) TradeFrame {
	return TradeFrame{
		SymbolID: binary.LittleEndian.Uint16(src[0:2]),
		VenueID:  src[2],
		Side:     src[3],
		Price:    bitsf64(binary.LittleEndian.Uint64(src[8:16])),
		Qty:      bitsf64(binary.LittleEndian.Uint64(src[16:24])),
	}
}

// KlineFrame is the MsgTypeKline payload schema (one OHLCV candle).
type KlineFrame struct {
	SymbolID  uint16
	VenueID   uint8
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	OpenTime  int64
	CloseTime int64
}

const klineFrameSize = 2 + 1 + 5 + 8*7

func (f KlineFrame) encode(dst []byte) {
	binary.LittleEndian.PutUint16(dst[0:2], f.SymbolID)
	dst[2] = f.VenueID
	binary.LittleEndian.PutUint64(dst[8:16], f64bits(f.Open))
	binary.LittleEndian.PutUint64(dst[16:24], f64bits(f.High))
	binary.LittleEndian.PutUint64(dst[24:32], f64bits(f.Low))
	binary.LittleEndian.PutUint64(dst[32:40], f64bits(f.Close))
	binary.LittleEndian.PutUint64(dst[40:48], f64bits(f.Volume))
	binary.LittleEndian.PutUint64(dst[48:56], uint64(f.OpenTime))
	binary.LittleEndian.PutUint64(dst[56:64], uint64(f.CloseTime))
}

func decodeKlineFrame(src []byte) KlineFrame {
	return KlineFrame{
		SymbolID:  binary.LittleEndian.Uint16(src[0:2]),
		VenueID:   src[2],
		Open:      bitsf64(binary.LittleEndian.Uint64(src[8:16])),
		High:      bitsf64(binary.LittleEndian.Uint64(src[16:24])),
		Low:       bitsf64(binary.LittleEndian.Uint64(src[24:32])),
		Close:     bitsf64(binary.LittleEndian.Uint64(src[32:40])),
		Volume:    bitsf64(binary.LittleEndian.Uint64(src[40:48])),
		OpenTime:  int64(binary.LittleEndian.Uint64(src[48:56])),
		CloseTime: int64(binary.LittleEndian.Uint64(src[56:64])),
	}
}

// DepthFrame is the MsgTypeDepth payload schema, top-5 levels per side
// (matching ringbus.DepthArity — the journal persists exactly what the
// ring carried, nothing deeper).
type DepthFrame struct {
	SymbolID  uint16
	VenueID   uint8
	IsDelta   bool
	UpdateID  uint64
	Bids      [5][2]float64
	Asks      [5][2]float64
}

const depthFrameSize = 2 + 1 + 1 + 4 + 8 + 8*2*5*2

func (f DepthFrame) encode(dst []byte) {
	binary.LittleEndian.PutUint16(dst[0:2], f.SymbolID)
	dst[2] = f.VenueID
	if f.IsDelta {
		dst[3] = 1
	}
	binary.LittleEndian.PutUint64(dst[8:16], f.UpdateID)
	off := 16
	for _, lvl := range f.Bids {
		binary.LittleEndian.PutUint64(dst[off:off+8], f64bits(lvl[0]))
		binary.LittleEndian.PutUint64(dst[off+8:off+16], f64bits(lvl[1]))
		off += 16
	}
	for _, lvl := range f.Asks {
		binary.LittleEndian.PutUint64(dst[off:off+8], f64bits(lvl[0]))
		binary.LittleEndian.PutUint64(dst[off+8:off+16], f64bits(lvl[1]))
		off += 16
	}
}

func decodeDepthFrame(src []byte) DepthFrame {
	f := DepthFrame{
		SymbolID: binary.LittleEndian.Uint16(src[0:2]),
		VenueID:  src[2],
		IsDelta:  src[3] == 1,
		UpdateID: binary.LittleEndian.Uint64(src[8:16]),
	}
	off := 16
	for i := range f.Bids {
		f.Bids[i][0] = bitsf64(binary.LittleEndian.Uint64(src[off : off+8]))
		f.Bids[i][1] = bitsf64(binary.LittleEndian.Uint64(src[off+8 : off+16]))
		off += 16
	}
	for i := range f.Asks {
		f.Asks[i][0] = bitsf64(binary.LittleEndian.Uint64(src[off : off+8]))
		f.Asks[i][1] = bitsf64(binary.LittleEndian.Uint64(src[off+8 : off+16]))
		off += 16
	}
	return f
}

// MarkPriceFrame is the MsgTypeMarkPrice payload schema.
type MarkPriceFrame struct {
	SymbolID    uint16
	VenueID     uint8
	MarkPrice   float64
	IndexPrice  float64
	FundingRate float64
}

const markPriceFrameSize = 2 + 1 + 5 + 8*3

func (f MarkPriceFrame) encode(dst []byte) {
	binary.LittleEndian.PutUint16(dst[0:2], f.SymbolID)
	dst[2] = f.VenueID
	binary.LittleEndian.PutUint64(dst[8:16], f64bits(f.MarkPrice))
	binary.LittleEndian.PutUint64(dst[16:24], f64bits(f.IndexPrice))
	binary.LittleEndian.PutUint64(dst[24:32], f64bits(f.FundingRate))
}

func decodeMarkPriceFrame(src []byte) MarkPriceFrame {
	return MarkPriceFrame{
		SymbolID:    binary.LittleEndian.Uint16(src[0:2]),
		VenueID:     src[2],
		MarkPrice:   bitsf64(binary.LittleEndian.Uint64(src[8:16])),
		IndexPrice:  bitsf64(binary.LittleEndian.Uint64(src[16:24])),
		FundingRate: bitsf64(binary.LittleEndian.Uint64(src[24:32])),
	}
}

// OrderReportFrame is the MsgTypeOrderReport payload schema: the journal's
// record of an order-state transition, independent of the richer
// exchange.Order the adapters' OrderStore keeps in memory.
type OrderReportFrame struct {
	VenueID        uint8
	State          uint8
	SymbolID       uint16
	ClientOrderID  [32]byte
	ExchangeOrderID [24]byte
	Price          float64
	Qty            float64
	FilledQty      float64
	FilledAvgPrice float64
}

const orderReportFrameSize = 1 + 1 + 2 + 4 + 32 + 24 + 8*4

func (f OrderReportFrame) encode(dst []byte) {
	dst[0] = f.VenueID
	dst[1] = f.State
	binary.LittleEndian.PutUint16(dst[2:4], f.SymbolID)
	off := 8
	copy(dst[off:off+32], f.ClientOrderID[:])
	off += 32
	copy(dst[off:off+24], f.ExchangeOrderID[:])
	off += 24
	binary.LittleEndian.PutUint64(dst[off:off+8], f64bits(f.Price))
	binary.LittleEndian.PutUint64(dst[off+8:off+16], f64bits(f.Qty))
	binary.LittleEndian.PutUint64(dst[off+16:off+24], f64bits(f.FilledQty))
	binary.LittleEndian.PutUint64(dst[off+24:off+32], f64bits(f.FilledAvgPrice))
}

func decodeOrderReportFrame(src []byte) OrderReportFrame {
	var f OrderReportFrame
	f.VenueID = src[0]
	f.State = src[1]
	f.SymbolID = binary.LittleEndian.Uint16(src[2:4])
	off := 8
	copy(f.ClientOrderID[:], src[off:off+32])
	off += 32
	copy(f.ExchangeOrderID[:], src[off:off+24])
	off += 24
	f.Price = bitsf64(binary.LittleEndian.Uint64(src[off : off+8]))
	f.Qty = bitsf64(binary.LittleEndian.Uint64(src[off+8 : off+16]))
	f.FilledQty = bitsf64(binary.LittleEndian.Uint64(src[off+16 : off+24]))
	f.FilledAvgPrice = bitsf64(binary.LittleEndian.Uint64(src[off+24 : off+32]))
	return f
}

// AdapterStatusFrame records a connection-state transition for durable
// post-mortem review (Supplemented Feature 4).
type AdapterStatusFrame struct {
	VenueID uint8
	Status  uint8
}

const adapterStatusFrameSize = 2

func (f AdapterStatusFrame) encode(dst []byte) {
	dst[0] = f.VenueID
	dst[1] = f.Status
}

func decodeAdapterStatusFrame(src []byte) AdapterStatusFrame {
	return AdapterStatusFrame{VenueID: src[0], Status: src[1]}
}
