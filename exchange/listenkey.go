package exchange

import (
	"sync"
	"time"
)

// ListenKeyManager runs the user-stream listen-key lifecycle from spec.md
// §4.C.2: obtain a key via REST, refresh it on a cadence well under the
// venue's expiry, and signal a reconnect after repeated refresh failures.
// It is venue-agnostic; the venue injects its own obtain/keepalive REST
// calls (only the binance adapter uses it; okx authenticates its private
// WS with a login frame instead).
type ListenKeyManager struct {
	refreshInterval time.Duration
	maxRetries      int

	obtain   func() (string, error)
	keepAlive func(key string) error
	onExpired func()

	mu      sync.Mutex
	key     string
	stopCh  chan struct{}
	stopped bool
}

// NewListenKeyManager builds a manager. onExpired is invoked after
// maxRetries consecutive keepalive failures, signaling the caller to
// reconnect the user-stream WS with a freshly obtained key.
func NewListenKeyManager(refreshInterval time.Duration, maxRetries int, obtain func() (string, error), keepAlive func(string) error, onExpired func()) *ListenKeyManager {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &ListenKeyManager{
		refreshInterval: refreshInterval,
		maxRetries:      maxRetries,
		obtain:          obtain,
		keepAlive:       keepAlive,
		onExpired:       onExpired,
	}
}

// Start obtains the initial key and launches the refresh loop in a new
// goroutine. It returns the initial key so the caller can build the
// user-stream WS URL around it.
func (m *ListenKeyManager) Start() (string, error) {
	key, err := m.obtain()
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	m.key = key
	m.stopCh = make(chan struct{})
	m.mu.Unlock()

	go m.loop()
	return key, nil
}

func (m *ListenKeyManager) loop() {
	ticker := time.NewTicker(m.refreshInterval)
	defer ticker.Stop()

	failures := 0
	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.mu.Lock()
			key := m.key
			m.mu.Unlock()

			if err := m.keepAlive(key); err != nil {
				failures++
				if failures >= m.maxRetries {
					failures = 0
					if m.onExpired != nil {
						m.onExpired()
					}
				}
				continue
			}
			failures = 0
		}
	}
}

// Key returns the currently active listen key.
func (m *ListenKeyManager) Key() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.key
}

// Stop halts the refresh loop. Safe to call once; a second call is a no-op.
func (m *ListenKeyManager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return
	}
	m.stopped = true
	close(m.stopCh)
}
