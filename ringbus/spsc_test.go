package ringbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByteRing_PushPopOrder(t *testing.T) {
	r := NewByteRing(4)
	for i := 0; i < 4; i++ {
		ok := r.TryPush(MarketEvent{Kind: KindTicker, Price: float64(i)})
		require.True(t, ok)
	}
	assert.False(t, r.TryPush(MarketEvent{}))

	for i := 0; i < 4; i++ {
		ev, ok := r.TryPop()
		require.True(t, ok)
		assert.Equal(t, float64(i), ev.Price)
	}
	_, ok := r.TryPop()
	assert.False(t, ok)
}
