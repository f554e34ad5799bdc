package fabric

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingListener struct {
	id     uint32
	mu     sync.Mutex
	events []Envelope
	panicOnce bool
}

func (l *recordingListener) ID() uint32 { return l.id }

func (l *recordingListener) OnEvent(e Envelope) {
	if l.panicOnce {
		l.panicOnce = false
		panic("boom")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *recordingListener) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.events)
}

func TestFabric_TypedListenerInvokedOncePerMatch(t *testing.T) {
	f := New()
	l := &recordingListener{id: 1}
	require.NoError(t, RegisterListener[*MarketEvent](f, l, false))

	f.Put(&MarketEvent{Kind: "TICKER", SymbolID: 1}, 99)
	f.Put(&OrderEvent{}, 99) // different concrete type, must not match

	assert.Equal(t, 1, l.count())
}

func TestFabric_GlobalOrder_SeniorThenTypedThenJunior(t *testing.T) {
	f := New()
	var order []string
	var mu sync.Mutex
	record := func(name string) func(Envelope) {
		return func(Envelope) {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
		}
	}

	senior := &funcListener{id: 1, fn: record("senior")}
	typed := &funcListener{id: 2, fn: record("typed")}
	junior := &funcListener{id: 3, fn: record("junior")}

	require.NoError(t, f.RegisterGlobalListener(senior, true))
	require.NoError(t, RegisterListener[*MarketEvent](f, typed, false))
	require.NoError(t, f.RegisterGlobalListener(junior, false))

	f.Put(&MarketEvent{Kind: "TICKER"}, 0)

	assert.Equal(t, []string{"senior", "typed", "junior"}, order)
}

func TestFabric_IgnoreSelfSuppressesOwnProducer(t *testing.T) {
	f := New()
	l := &recordingListener{id: 42}
	require.NoError(t, RegisterListener[*MarketEvent](f, l, true))

	f.Put(&MarketEvent{}, 42) // self-produced, should be skipped
	f.Put(&MarketEvent{}, 7)  // foreign producer, should be delivered

	assert.Equal(t, 1, l.count())
}

func TestFabric_RegisterWhileDispatchingFailsFast(t *testing.T) {
	f := New()
	nested := &recordingListener{id: 2}

	blocking := &funcListener{id: 1, fn: func(Envelope) {
		err := RegisterListener[*MarketEvent](f, nested, false)
		assert.ErrorIs(t, err, ErrFabricBusy)
	}}
	require.NoError(t, f.RegisterGlobalListener(blocking, true))

	f.Put(&MarketEvent{}, 0)
}

func TestFabric_PanicInListenerDoesNotAbortDispatch(t *testing.T) {
	f := New()
	panicky := &recordingListener{id: 1, panicOnce: true}
	survivor := &recordingListener{id: 2}

	require.NoError(t, RegisterListener[*MarketEvent](f, panicky, false))
	require.NoError(t, RegisterListener[*MarketEvent](f, survivor, false))

	assert.NotPanics(t, func() {
		f.Put(&MarketEvent{}, 0)
	})
	assert.Equal(t, 1, survivor.count())
}

func TestFabric_TimestampDiscipline(t *testing.T) {
	f := New()
	l := &recordingListener{id: 1}
	require.NoError(t, RegisterListener[*MarketEvent](f, l, false))

	e1 := &MarketEvent{}
	f.Put(e1, 0)
	assert.Equal(t, int64(0), e1.GenTimeNs)

	e2 := &MarketEvent{Event: Event{GenTimeNs: 100}}
	f.Put(e2, 0)
	assert.Equal(t, int64(100), e2.GenTimeNs)

	e3 := &MarketEvent{}
	f.Put(e3, 0)
	assert.Equal(t, int64(100), e3.GenTimeNs) // clock advanced, stamped on a zero-time event
}

func TestFabric_NestedPutDuringDispatchIsDrained(t *testing.T) {
	f := New()
	var got []string
	var mu sync.Mutex

	inner := &funcListener{id: 2, fn: func(Envelope) {
		mu.Lock()
		got = append(got, "inner")
		mu.Unlock()
	}}
	require.NoError(t, RegisterListener[*OrderEvent](f, inner, false))

	outer := &funcListener{id: 1, fn: func(Envelope) {
		mu.Lock()
		got = append(got, "outer")
		mu.Unlock()
		f.Put(&OrderEvent{}, 1)
	}}
	require.NoError(t, RegisterListener[*MarketEvent](f, outer, false))

	f.Put(&MarketEvent{}, 1)

	assert.Equal(t, []string{"outer", "inner"}, got)
}

// funcListener adapts a plain function to the Listener interface for tests
// that only care about call order, not accumulated state.
type funcListener struct {
	id uint32
	fn func(Envelope)
}

func (l *funcListener) ID() uint32        { return l.id }
func (l *funcListener) OnEvent(e Envelope) { l.fn(e) }
