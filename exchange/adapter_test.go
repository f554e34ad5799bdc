package exchange

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStateMachine_InitialStateIsCreated(t *testing.T) {
	var m StateMachine
	assert.Equal(t, StateCreatedAdapter, m.Current())
}

func TestStateMachine_ConnectReconnectCycle(t *testing.T) {
	var m StateMachine
	assert.True(t, m.Transition(StateStarting))
	assert.True(t, m.Transition(StateConnected))
	assert.True(t, m.Transition(StateReconnecting))
	assert.True(t, m.Transition(StateConnected))
	assert.Equal(t, StateConnected, m.Current())
}

func TestStateMachine_StoppedIsSink(t *testing.T) {
	var m StateMachine
	m.Transition(StateStarting)
	m.Transition(StateConnected)
	m.Transition(StateStopping)
	m.Transition(StateStopped)

	assert.False(t, m.Transition(StateConnected), "nothing moves the machine once STOPPED")
	assert.Equal(t, StateStopped, m.Current())
}

func TestStateMachine_StopAlwaysReachableFromAnyState(t *testing.T) {
	var m StateMachine
	m.Transition(StateReconnecting)
	assert.True(t, m.Transition(StateStopping))
	assert.True(t, m.Transition(StateStopped))
}

func TestAdapterState_StringsCoverAllValues(t *testing.T) {
	cases := map[AdapterState]string{
		StateCreatedAdapter: "CREATED",
		StateStarting:       "STARTING",
		StateConnected:      "CONNECTED",
		StateReconnecting:   "RECONNECTING",
		StateStopping:       "STOPPING",
		StateStopped:        "STOPPED",
	}
	for state, want := range cases {
		assert.Equal(t, want, state.String())
	}
	assert.Equal(t, "UNKNOWN", AdapterState(255).String())
}
