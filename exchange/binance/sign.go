package binance

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// hmacSHA256Hex is the Binance-family signature primitive: HMAC-SHA256,
// hex encoded (spec.md §4.C.2). Each venue package owns its own copy so a
// signing bug in one venue can never leak into another's file.
func hmacSHA256Hex(secret, canonical string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(canonical))
	return hex.EncodeToString(mac.Sum(nil))
}

// signer implements the Binance-family signing rule from spec.md §4.C.2:
// HMAC-SHA256 over the sorted query string (k1=v1&k2=v2...), hex encoded,
// with the timestamp added as a parameter before signing. Kept in its own file per
// spec.md's "violations are contained in one file per venue."
type signer struct {
	secretKey string
}

// canonicalQuery builds the k=v&k=v... string Binance expects: timestamp
// is added to params, then all keys (timestamp included) are sorted for
// determinism, matching the fixture-vector test in sign_test.go.
func (s signer) canonicalQuery(params map[string]string, timestampMs int64) string {
	params["timestamp"] = strconv.FormatInt(timestampMs, 10)

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(params[k]))
	}
	return b.String()
}

// sign returns (query, signature) where query already includes the
// timestamp parameter and signature is the hex HMAC over it.
func (s signer) sign(params map[string]string) (query, signature string) {
	query = s.canonicalQuery(params, time.Now().UnixMilli())
	signature = hmacSHA256Hex(s.secretKey, query)
	return query, signature
}

// Sign satisfies exchange.Signer for callers that already have the
// canonical query string in hand.
func (s signer) Sign(canonical string) string {
	return hmacSHA256Hex(s.secretKey, canonical)
}
