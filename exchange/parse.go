package exchange

import "strconv"

// ParseFloat tolerantly parses a JSON number-or-string field into a
// float64, defaulting to 0 on any failure. Venue payloads mix both
// representations across fields and even across versions of the same
// field, so every numeric extraction in exchange/binance and exchange/okx
// goes through this instead of a bare strconv call (spec.md §4.C.2:
// "numeric strings are safely parsed with catch-all fallback to a
// default").
func ParseFloat(s string) float64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// ParseLevels converts a venue's [][2]string price/size pairs into
// [][2]float64 without failing on any malformed pair: a price or size that
// does not parse becomes 0 and the pair is kept. An empty side is legal
// (spec.md §4.C.2).
func ParseLevels(raw [][2]string) [][2]float64 {
	out := make([][2]float64, 0, len(raw))
	for _, lvl := range raw {
		out = append(out, [2]float64{ParseFloat(lvl[0]), ParseFloat(lvl[1])})
	}
	return out
}
