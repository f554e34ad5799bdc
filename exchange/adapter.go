package exchange

import "sync"

// AdapterState is the top-level per-venue state machine from spec.md
// §4.C.2:
//
//	CREATED → STARTING → CONNECTED ⇄ RECONNECTING
//	                          │
//	                          ▼
//	                       STOPPING → STOPPED
type AdapterState uint8

const (
	StateCreatedAdapter AdapterState = iota
	StateStarting
	StateConnected
	StateReconnecting
	StateStopping
	StateStopped
)

func (s AdapterState) String() string {
	switch s {
	case StateCreatedAdapter:
		return "CREATED"
	case StateStarting:
		return "STARTING"
	case StateConnected:
		return "CONNECTED"
	case StateReconnecting:
		return "RECONNECTING"
	case StateStopping:
		return "STOPPING"
	case StateStopped:
		return "STOPPED"
	default:
		return "UNKNOWN"
	}
}

// StateMachine is the small, mutex-guarded transition guard shared by
// every venue adapter. Venue packages (exchange/binance, exchange/okx)
// embed one instance and call Transition as their WS connections open,
// drop, and recover. They report the CONNECTED, RECONNECTING and STOPPED
// transitions to their EventSink as adapter status (SPEC_FULL.md
// Supplemented Feature 4); STARTING and STOPPING are not reported.
type StateMachine struct {
	mu    sync.Mutex
	state AdapterState
}

// Current returns the current state.
func (m *StateMachine) Current() AdapterState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Transition moves to next unconditionally except that STOPPED is a sink:
// stop() always drives STOPPING regardless of current state (spec.md
// §4.C.2), and once STOPPED nothing moves the machine again.
func (m *StateMachine) Transition(next AdapterState) (ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateStopped {
		return false
	}
	m.state = next
	return true
}
