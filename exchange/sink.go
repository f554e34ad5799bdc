package exchange

// EventSink is the adapter's callback surface into whatever owns it. In
// the running system that owner is fabric.Engine, but exchange never
// imports fabric directly — fabric holds strong ownership of the adapter
// (spec.md §9's "shared-ownership cycles" note: the adapter keeps only a
// back-pointer, expressed here as an interface value; Stop does not clear
// it and reports STOPPED through it).
type EventSink interface {
	OnTicker(venueID uint8, symbolID uint16, last, bid, ask, qty float64, genTimeNs int64)
	OnTrade(venueID uint8, symbolID uint16, price, qty float64, side uint8, genTimeNs int64)
	OnKline(venueID uint8, symbolID uint16, open, high, low, close, volume float64, openTime, closeTime int64)
	OnDepth(venueID uint8, symbolID uint16, isDelta bool, bids, asks [][2]float64, genTimeNs int64)
	OnMarkPrice(venueID uint8, symbolID uint16, mark, index, funding float64, genTimeNs int64)
	OnOrderUpdate(order *Order)
	OnAccountUpdate(venueID uint8, raw []byte)
	OnAdapterStatus(venueID uint8, status AdapterState, reason string)
}

// NopSink discards every callback; useful as a default before an adapter
// is wired into a fabric, and in tests that only care about a subset of
// callbacks (embed it and override the ones under test).
type NopSink struct{}

func (NopSink) OnTicker(uint8, uint16, float64, float64, float64, float64, int64)    {}
func (NopSink) OnTrade(uint8, uint16, float64, float64, uint8, int64)                {}
func (NopSink) OnKline(uint8, uint16, float64, float64, float64, float64, float64, int64, int64) {}
func (NopSink) OnDepth(uint8, uint16, bool, [][2]float64, [][2]float64, int64)       {}
func (NopSink) OnMarkPrice(uint8, uint16, float64, float64, float64, int64)          {}
func (NopSink) OnOrderUpdate(*Order)                                                {}
func (NopSink) OnAccountUpdate(uint8, []byte)                                       {}
func (NopSink) OnAdapterStatus(uint8, AdapterState, string)                         {}
