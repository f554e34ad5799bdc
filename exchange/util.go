package exchange

import (
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

func itoa(n int) string { return strconv.Itoa(n) }

// NewClientOrderID mints a client-order-id for callers that don't supply
// their own (e.g. the operator console's interactive `order` command).
// UUIDv4 hyphens are stripped, leaving 32 hex characters: exactly the size
// of the ring's 32-byte inline buffer (ringbus.OrderCommand).
func NewClientOrderID() string {
	id := uuid.New()
	s := id.String()
	out := make([]byte, 0, len(s))
	for _, c := range s {
		if c != '-' {
			out = append(out, byte(c))
		}
	}
	return string(out)
}

// backoff implements a simple doubling backoff capped at 30s, used by the
// perpetual WS client's reconnect loop (spec.md §4.C.1).
type backoff struct {
	cur time.Duration
	max time.Duration
}

func newBackoff() *backoff {
	return &backoff{cur: 250 * time.Millisecond, max: 30 * time.Second}
}

func (b *backoff) next() time.Duration {
	d := b.cur
	b.cur *= 2
	if b.cur > b.max {
		b.cur = b.max
	}
	return d
}

func (b *backoff) reset() {
	b.cur = 250 * time.Millisecond
}

// throttle enforces at most n operations per window, used to keep
// subscription replay and outbound sends under a venue's rate limit
// (spec.md §4.C.1's ≤5 msg/s requirement).
type throttle struct {
	mu       sync.Mutex
	n        int
	window   time.Duration
	sent     []time.Time
}

func newThrottle(n int, window time.Duration) *throttle {
	return &throttle{n: n, window: window}
}

func (t *throttle) wait() {
	for {
		t.mu.Lock()
		now := time.Now()
		cutoff := now.Add(-t.window)
		kept := t.sent[:0]
		for _, ts := range t.sent {
			if ts.After(cutoff) {
				kept = append(kept, ts)
			}
		}
		t.sent = kept

		if len(t.sent) < t.n {
			t.sent = append(t.sent, now)
			t.mu.Unlock()
			return
		}
		wait := t.sent[0].Add(t.window).Sub(now)
		t.mu.Unlock()
		if wait > 0 {
			time.Sleep(wait)
		}
	}
}
