package okx

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"time"
)

// hmacSHA256Base64 is the OKX signature primitive: HMAC-SHA256 over
// timestamp+method+path+body, base64 encoded (spec.md §4.C.2). Kept local
// to this file, mirroring binance/sign.go, so a signing defect in one
// venue can never leak into the other's.
func hmacSHA256Base64(secret, prehash string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(prehash))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// signer implements OKX's request-signing rule: sign(timestamp + method +
// requestPath + body), base64, plus a passphrase carried in its own
// header rather than folded into the signature (unlike Binance, which
// signs the full query string in place).
type signer struct {
	secretKey  string
	passphrase string
}

// timestamp returns an ISO-8601 millisecond timestamp in the exact form
// OKX expects in both the signature prehash and the OK-ACCESS-TIMESTAMP
// header.
func (s signer) timestamp() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
}

// sign returns (timestamp, signature) for a REST request; method is the
// upper-case HTTP verb, path includes the leading "/api/v5/..." and any
// query string, and body is empty for GET/DELETE.
func (s signer) sign(method, path, body string) (ts, signature string) {
	ts = s.timestamp()
	prehash := ts + method + path + body
	return ts, hmacSHA256Base64(s.secretKey, prehash)
}

// Sign satisfies exchange.Signer for the WS login frame, which signs
// timestamp + "GET" + "/users/self/verify" per OKX's WS auth handshake.
func (s signer) Sign(canonical string) string {
	return hmacSHA256Base64(s.secretKey, canonical)
}
