package exchange

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/primevenue/gateway/ringbus"
)

// OrderState is the DAG described in spec.md §3:
// CREATED → SUBMITTED → ACCEPTED → (PARTIALLY_FILLED* → FILLED | CANCELLED
// | REJECTED | FAILED); terminal states are sinks.
type OrderState uint8

const (
	StateCreated OrderState = iota
	StateSubmitted
	StateAccepted
	StatePartiallyFilled
	StateFilled
	StateCancelled
	StateRejected
	StateFailed
)

func (s OrderState) String() string {
	switch s {
	case StateCreated:
		return "CREATED"
	case StateSubmitted:
		return "SUBMITTED"
	case StateAccepted:
		return "ACCEPTED"
	case StatePartiallyFilled:
		return "PARTIALLY_FILLED"
	case StateFilled:
		return "FILLED"
	case StateCancelled:
		return "CANCELLED"
	case StateRejected:
		return "REJECTED"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

func (s OrderState) terminal() bool {
	switch s {
	case StateFilled, StateCancelled, StateRejected, StateFailed:
		return true
	default:
		return false
	}
}

// validTransitions encodes the DAG edges from spec.md §3. A transition not
// listed here is rejected by Order.TransitionTo.
var validTransitions = map[OrderState]map[OrderState]bool{
	StateCreated:         {StateSubmitted: true},
	StateSubmitted:       {StateAccepted: true, StateRejected: true, StateFailed: true},
	StateAccepted:        {StatePartiallyFilled: true, StateFilled: true, StateCancelled: true, StateRejected: true, StateFailed: true},
	StatePartiallyFilled: {StatePartiallyFilled: true, StateFilled: true, StateCancelled: true, StateRejected: true, StateFailed: true},
}

// Order is the rich, EventFabric-resident record from spec.md §3.
type Order struct {
	mu sync.Mutex

	LocalID         uint64
	ClientOrderID   string
	ExchangeOrderID string
	Symbol          string
	VenueID         uint8
	Side            ringbus.OrderSide
	Type            ringbus.OrderType
	Price           decimal.Decimal
	Quantity        decimal.Decimal
	FilledQuantity  decimal.Decimal
	FilledAvgPrice  decimal.Decimal
	Fee             decimal.Decimal
	FeeCurrency     string
	State           OrderState
	ErrorMsg        string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TransitionTo attempts to move the order to next, enforcing the DAG. It
// is safe for concurrent use; callers racing a fill against a cancel will
// see exactly one of them win per spec.md's "terminal states are sinks."
func (o *Order) TransitionTo(next OrderState) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.State.terminal() {
		return ErrInvalidTransition
	}
	if next == o.State {
		// PARTIALLY_FILLED -> PARTIALLY_FILLED (successive partial fills)
		// is allowed and is a self-loop, not a rejected transition.
		if next == StatePartiallyFilled {
			o.UpdatedAt = time.Now()
			return nil
		}
		return ErrInvalidTransition
	}
	if !validTransitions[o.State][next] {
		return ErrInvalidTransition
	}
	o.State = next
	o.UpdatedAt = time.Now()
	return nil
}

// Snapshot returns a copy of the order's fields for safe handoff across
// goroutines (e.g. into a fabric.OrderEvent) without exposing the mutex.
func (o *Order) Snapshot() Order {
	o.mu.Lock()
	defer o.mu.Unlock()
	cp := *o
	cp.mu = sync.Mutex{}
	return cp
}

// OrderStore holds the two mutex-guarded id maps from spec.md §4.C:
// client-order-id → Order (owning) and exchange-order-id → client-order-id
// (lookup). Both are updated together on SUBMITTED ack, matching the
// teacher's orderstore.go id-keyed map discipline.
type OrderStore struct {
	mu          sync.RWMutex
	byClientID  map[string]*Order
	byExchangeID map[string]string // exchange id -> client id
	nextLocalID uint64
}

// NewOrderStore builds an empty store.
func NewOrderStore() *OrderStore {
	return &OrderStore{
		byClientID:   make(map[string]*Order),
		byExchangeID: make(map[string]string),
	}
}

// Create registers a brand-new Order in state CREATED, keyed by its
// client-order-id. It is a programming error to reuse a client-order-id
// still live in the store (spec.md §3 uniqueness invariant).
func (s *OrderStore) Create(o *Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byClientID[o.ClientOrderID]; exists {
		return ErrDuplicateClientOrderID
	}
	s.nextLocalID++
	o.LocalID = s.nextLocalID
	o.State = StateCreated
	o.CreatedAt = time.Now()
	o.UpdatedAt = o.CreatedAt
	s.byClientID[o.ClientOrderID] = o
	return nil
}

// BindExchangeID links an exchange-assigned id to an existing
// client-order-id, making the map bijective post-ack (spec.md §3).
func (s *OrderStore) BindExchangeID(clientID, exchangeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.byClientID[clientID]
	if !ok {
		return ErrUnknownOrder
	}
	o.ExchangeOrderID = exchangeID
	s.byExchangeID[exchangeID] = clientID
	return nil
}

// ByClientID looks up an order by client-order-id.
func (s *OrderStore) ByClientID(clientID string) (*Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.byClientID[clientID]
	return o, ok
}

// ByExchangeID looks up an order by exchange-order-id via the reverse map.
func (s *OrderStore) ByExchangeID(exchangeID string) (*Order, bool) {
	s.mu.RLock()
	clientID, ok := s.byExchangeID[exchangeID]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return s.ByClientID(clientID)
}

// Remove evicts an order from both maps. Neither adapter calls it and no
// grace timer exists: orders in a terminal state stay in the store until a
// caller removes them.
func (s *OrderStore) Remove(clientID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o, ok := s.byClientID[clientID]; ok {
		delete(s.byExchangeID, o.ExchangeOrderID)
		delete(s.byClientID, clientID)
	}
}

// Open returns a snapshot of every order not yet in a terminal state,
// mirroring the teacher's orderstore.go GetOpenOrders.
func (s *OrderStore) Open() []Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Order, 0, len(s.byClientID))
	for _, o := range s.byClientID {
		snap := o.Snapshot()
		if !snap.State.terminal() {
			out = append(out, snap)
		}
	}
	return out
}
