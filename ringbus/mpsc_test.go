package ringbus

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderQueue_BadCapacityPanics(t *testing.T) {
	assert.Panics(t, func() { NewOrderQueue(0) })
}

func TestOrderQueue_TryPushFullReturnsErrFull(t *testing.T) {
	q := NewOrderQueue(2)
	require.NoError(t, q.TryPush(OrderCommand{}))
	require.NoError(t, q.TryPush(OrderCommand{}))
	assert.ErrorIs(t, q.TryPush(OrderCommand{}), ErrFull)
}

func TestOrderQueue_PushPopSingleThreaded(t *testing.T) {
	q := NewOrderQueue(4)
	cmd := OrderCommand{Kind: CmdPlace, StrategyID: 7}
	cmd.SetClientOrderID("abc")

	q.Push(cmd)
	got, ok := q.TryPop()
	require.True(t, ok)
	assert.Equal(t, CmdPlace, got.Kind)
	assert.Equal(t, uint32(7), got.StrategyID)
	assert.Equal(t, "abc", got.ClientOrderIDString())

	_, ok = q.TryPop()
	assert.False(t, ok)
}

// TestOrderQueue_MPSCOrdering is spec.md §8 scenario 2: 4 producer
// goroutines each push 10,000 commands carrying their producer id and a
// per-producer monotonic counter; the single consumer must observe all
// 40,000 with each producer's own counters still in order.
func TestOrderQueue_MPSCOrdering(t *testing.T) {
	const producers = 4
	const perProducer = 10_000

	q := NewOrderQueue(1024)

	var wg sync.WaitGroup
	wg.Add(producers)
	for p := 0; p < producers; p++ {
		p := p
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				cmd := OrderCommand{
					Kind:       CmdPlace,
					StrategyID: uint32(p),
					Quantity:   float64(i),
				}
				q.Push(cmd)
			}
		}()
	}

	received := make([][]float64, producers)
	done := make(chan struct{})
	go func() {
		total := 0
		for total < producers*perProducer {
			cmd, ok := q.TryPop()
			if !ok {
				spinWait()
				continue
			}
			received[cmd.StrategyID] = append(received[cmd.StrategyID], cmd.Quantity)
			total++
		}
		close(done)
	}()

	wg.Wait()
	<-done

	total := 0
	for p := 0; p < producers; p++ {
		require.Len(t, received[p], perProducer)
		for i, v := range received[p] {
			assert.Equal(t, float64(i), v, "producer %d out of order at index %d", p, i)
		}
		total += len(received[p])
	}
	assert.Equal(t, producers*perProducer, total)
}
