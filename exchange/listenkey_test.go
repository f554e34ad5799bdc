package exchange

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListenKeyManager_StartReturnsObtainedKey(t *testing.T) {
	m := NewListenKeyManager(time.Hour, 3,
		func() (string, error) { return "key-1", nil },
		func(string) error { return nil },
		func() {},
	)
	key, err := m.Start()
	require.NoError(t, err)
	assert.Equal(t, "key-1", key)
	assert.Equal(t, "key-1", m.Key())
	m.Stop()
}

func TestListenKeyManager_StartPropagatesObtainError(t *testing.T) {
	m := NewListenKeyManager(time.Hour, 3,
		func() (string, error) { return "", errors.New("rest: 401") },
		func(string) error { return nil },
		func() {},
	)
	_, err := m.Start()
	assert.Error(t, err)
}

func TestListenKeyManager_RefreshFailuresTriggerExpiry(t *testing.T) {
	var keepAliveCalls int32
	var expired int32

	m := NewListenKeyManager(5*time.Millisecond, 2,
		func() (string, error) { return "key-1", nil },
		func(string) error {
			atomic.AddInt32(&keepAliveCalls, 1)
			return errors.New("keepalive failed")
		},
		func() { atomic.AddInt32(&expired, 1) },
	)

	_, err := m.Start()
	require.NoError(t, err)
	defer m.Stop()

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&expired) >= 1
	}, time.Second, time.Millisecond, "onExpired should fire after maxRetries consecutive keepalive failures")

	assert.GreaterOrEqual(t, atomic.LoadInt32(&keepAliveCalls), int32(2))
}

func TestListenKeyManager_SuccessfulKeepAliveResetsFailureCount(t *testing.T) {
	var calls int32
	var expired int32

	m := NewListenKeyManager(5*time.Millisecond, 2,
		func() (string, error) { return "key-1", nil },
		func(string) error {
			n := atomic.AddInt32(&calls, 1)
			// Fail once, then succeed forever — should never reach maxRetries.
			if n == 1 {
				return errors.New("transient")
			}
			return nil
		},
		func() { atomic.AddInt32(&expired, 1) },
	)

	_, err := m.Start()
	require.NoError(t, err)
	defer m.Stop()

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&expired), "a single transient failure should not trip expiry once keepalive recovers")
}

func TestListenKeyManager_StopIsIdempotent(t *testing.T) {
	m := NewListenKeyManager(time.Hour, 3,
		func() (string, error) { return "key-1", nil },
		func(string) error { return nil },
		func() {},
	)
	_, err := m.Start()
	require.NoError(t, err)
	m.Stop()
	assert.NotPanics(t, func() { m.Stop() })
}
