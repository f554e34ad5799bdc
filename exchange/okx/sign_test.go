package okx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestHmacSHA256Base64_FixtureVector is spec.md §8's signing-fixture
// property for the OKX family: HMAC-SHA256 over timestamp+method+path+body,
// base64 encoded.
func TestHmacSHA256Base64_FixtureVector(t *testing.T) {
	secret := "E65791902180E9EB5A97D3B788DC1C2D"
	prehash := "2020-12-08T09:08:57.715Z" + "GET" + "/users/self/verify" + ""

	got := hmacSHA256Base64(secret, prehash)

	const want = "TgcM776Tjxk6ht1Gpfeb1WFQ9R2k5j/OlMa73U42nW8="
	assert.Equal(t, want, got)
}

func TestSigner_Sign(t *testing.T) {
	s := signer{secretKey: "E65791902180E9EB5A97D3B788DC1C2D", passphrase: "test-passphrase"}
	prehash := "2020-12-08T09:08:57.715Z" + "GET" + "/users/self/verify" + ""

	got := s.Sign(prehash)

	const want = "TgcM776Tjxk6ht1Gpfeb1WFQ9R2k5j/OlMa73U42nW8="
	assert.Equal(t, want, got)
}
