package exchange

// Signer is implemented once per venue family (exchange/okx, exchange/
// binance), each in its own file, per spec.md §4.C.2's "violations are
// contained in one file per venue." Sign never returns an error and
// never panics: neither venue's signer checks its secret or its input,
// so an empty secret is used as the HMAC key like any other.
type Signer interface {
	// Sign returns the venue's required signature encoding for canonical,
	// the exact byte string the venue's docs say to HMAC.
	Sign(canonical string) string
}
