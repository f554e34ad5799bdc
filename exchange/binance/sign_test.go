package binance

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestSigner_FixtureVector is spec.md §8's "Sign(secret, canonical)
// matches a known fixture vector" property for the Binance family: sorted
// query string, HMAC-SHA256, hex encoded.
func TestSigner_FixtureVector(t *testing.T) {
	s := signer{secretKey: "NhqPtmdSJYdKjVHjA7PZj4Mge3R5YNiP1e3UZjInClVN65XAbvqqM6A7H5fATj0j"}

	params := map[string]string{
		"symbol":      "LTCBTC",
		"side":        "BUY",
		"type":        "LIMIT",
		"timeInForce": "GTC",
		"quantity":    "1",
		"price":       "0.1",
		"recvWindow":  "5000",
	}
	query := s.canonicalQuery(params, 1499827319559)
	sig := hmacSHA256Hex(s.secretKey, query)

	const wantQuery = "price=0.1&quantity=1&recvWindow=5000&side=BUY&symbol=LTCBTC&timeInForce=GTC&timestamp=1499827319559&type=LIMIT"
	const wantSig = "70fd30433bc3a2e3b5ff17d075e50538dde3734841da6dc28d79113dd37fa9c7"

	assert.Equal(t, wantQuery, query)
	assert.Equal(t, wantSig, sig)
}
