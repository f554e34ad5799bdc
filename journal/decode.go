package journal

// DecodeTicker decodes a TickerFrame payload. Callers should check
// FrameHeader.MsgType == MsgTypeTicker before calling.
func DecodeTicker(payload []byte) TickerFrame { return decodeTickerFrame(payload) }

// DecodeTrade decodes a TradeFrame payload.
func DecodeTrade(payload []byte) TradeFrame { return decodeTradeFrame(payload) }

// DecodeKline decodes a KlineFrame payload.
func DecodeKline(payload []byte) KlineFrame { return decodeKlineFrame(payload) }

// DecodeDepth decodes a DepthFrame payload.
func DecodeDepth(payload []byte) DepthFrame { return decodeDepthFrame(payload) }

// DecodeMarkPrice decodes a MarkPriceFrame payload.
func DecodeMarkPrice(payload []byte) MarkPriceFrame { return decodeMarkPriceFrame(payload) }

// DecodeOrderReport decodes an OrderReportFrame payload.
func DecodeOrderReport(payload []byte) OrderReportFrame { return decodeOrderReportFrame(payload) }

// DecodeAdapterStatus decodes an AdapterStatusFrame payload.
func DecodeAdapterStatus(payload []byte) AdapterStatusFrame { return decodeAdapterStatusFrame(payload) }
