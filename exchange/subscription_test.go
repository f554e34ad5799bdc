package exchange

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubscriptionSet_ReplayPreservesOrder(t *testing.T) {
	s := NewSubscriptionSet()
	s.Add("btcusdt@trade", []byte(`{"params":["btcusdt@trade"]}`))
	s.Add("btcusdt@ticker", []byte(`{"params":["btcusdt@ticker"]}`))
	s.Add("ethusdt@trade", []byte(`{"params":["ethusdt@trade"]}`))

	replay := s.Replay()
	wantOrder := []string{`{"params":["btcusdt@trade"]}`, `{"params":["btcusdt@ticker"]}`, `{"params":["ethusdt@trade"]}`}
	for i, want := range wantOrder {
		assert.Equal(t, want, string(replay[i]))
	}
}

func TestSubscriptionSet_RemoveDropsFromReplay(t *testing.T) {
	s := NewSubscriptionSet()
	s.Add("btcusdt@trade", []byte("a"))
	s.Add("btcusdt@ticker", []byte("b"))

	s.Remove("btcusdt@trade")

	replay := s.Replay()
	assert.Len(t, replay, 1)
	assert.Equal(t, "b", string(replay[0]))
}

func TestSubscriptionSet_RemoveUnknownKeyIsNoOp(t *testing.T) {
	s := NewSubscriptionSet()
	s.Add("btcusdt@trade", []byte("a"))
	s.Remove("ethusdt@trade")
	assert.Len(t, s.Replay(), 1)
}

func TestSubscriptionSet_ReAddUpdatesPayloadNotOrder(t *testing.T) {
	s := NewSubscriptionSet()
	s.Add("btcusdt@depth5", []byte("v1"))
	s.Add("btcusdt@trade", []byte("v1"))
	s.Add("btcusdt@depth5", []byte("v2")) // re-subscribe with a different payload

	replay := s.Replay()
	assert.Len(t, replay, 2)
	assert.Equal(t, "v2", string(replay[0]), "payload refreshed but replay position unchanged")
	assert.Equal(t, "v1", string(replay[1]))
}
