package ringbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarketRing_BadCapacityPanics(t *testing.T) {
	assert.Panics(t, func() { NewMarketRing(3) })
	assert.NotPanics(t, func() { NewMarketRing(8) })
}

// TestMarketRing_Overwrite is spec.md §8 scenario 1: a ring of capacity 8,
// 20 published ticker events priced 100..119, one late-starting consumer.
func TestMarketRing_Overwrite(t *testing.T) {
	ring := NewMarketRing(8)

	for i := 0; i < 20; i++ {
		ring.PublishTicker(1, 0, float64(100+i), 0, 0, 0, int64(i))
	}

	consumer := ring.RegisterConsumer()
	// RegisterConsumer starts at the *current* producer sequence (no
	// history replay), so rewind it to simulate a consumer that was
	// already lagging behind the whole publish burst, the scenario the
	// spec actually wants exercised.
	consumer.state.seq.Store(0)

	var last MarketEvent
	observedCount := 0
	observed, gap := consumer.Poll(func(ev *MarketEvent) {
		last = *ev
		observedCount++
	})

	require.Equal(t, observed, observedCount+0) // all non-NONE here
	assert.Equal(t, float64(119), last.Price)
	assert.LessOrEqual(t, observedCount, 8)
	assert.Greater(t, gap, uint64(0))
}

func TestMarketRing_ConsumerKeepingUpNoGap(t *testing.T) {
	ring := NewMarketRing(8)
	consumer := ring.RegisterConsumer()

	for i := 0; i < 4; i++ {
		ring.PublishTicker(1, 0, float64(i), 0, 0, 0, int64(i))
		_, gap := consumer.Poll(func(*MarketEvent) {})
		assert.Zero(t, gap)
	}
	assert.Zero(t, consumer.Lag())
}

func TestMarketRing_StopSkippedByHandler(t *testing.T) {
	ring := NewMarketRing(4)
	consumer := ring.RegisterConsumer()

	ring.PublishTicker(1, 0, 1, 0, 0, 0, 0)
	ring.Stop()

	var seen []MarketEventKind
	consumer.Poll(func(ev *MarketEvent) {
		seen = append(seen, ev.Kind)
	})
	require.Len(t, seen, 1)
	assert.Equal(t, KindTicker, seen[0])
}

func TestMarketRing_WaitFor(t *testing.T) {
	ring := NewMarketRing(8)
	done := make(chan struct{})
	go func() {
		consumer := ring.RegisterConsumer()
		consumer.WaitFor(3)
		close(done)
	}()

	for i := 0; i < 3; i++ {
		ring.PublishTicker(1, 0, float64(i), 0, 0, 0, 0)
	}
	<-done
}
