// Package fabric implements the typed, in-process event bus that owns
// the ring, the exchange adapters, and strategy listeners, per spec.md
// §4.D. It is the one component allowed to know about every other
// package: ringbus for the hot-path fan-out, exchange for adapter
// lifecycle and order state, journal for durability.
package fabric

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/primevenue/gateway/internal/telemetry"
)

// ErrFabricBusy is returned by every registration call made while the
// fabric is mid-dispatch. spec.md §4.D: "registration-while-dispatching
// is forbidden and MUST fail fast."
var ErrFabricBusy = errors.New("fabric: cannot register while dispatching")

// Listener receives events from the fabric. ID is compared against an
// event's ProducerID to implement ignore_self suppression — a strategy
// typically registers with the same id it stamps its own outbound
// commands with.
type Listener interface {
	ID() uint32
	OnEvent(e Envelope)
}

type typeRegistration struct {
	listener   Listener
	ignoreSelf bool
}

type globalRegistration struct {
	listener Listener
	senior   bool
}

// Fabric is the EventFabric from spec.md §4.D: register_listener,
// register_global_listener, put, inject/call, all guarded by one mutex
// since the dispatch loop is intentionally single-threaded per spec.md
// §5 ("Order-egress" and "Strategy consumer" run on separate rings, not
// inside the fabric's own dispatch loop).
type Fabric struct {
	mu sync.Mutex

	byType  map[reflect.Type][]typeRegistration
	seniors []globalRegistration
	juniors []globalRegistration

	queue       []Envelope
	dispatching bool

	clock int64

	callables map[string]func(args ...any) (any, error)
}

// New builds an empty, quiescent Fabric.
func New() *Fabric {
	return &Fabric{
		byType:    make(map[reflect.Type][]typeRegistration),
		callables: make(map[string]func(args ...any) (any, error)),
	}
}

// RegisterListener subscribes listener to events whose concrete type
// matches a sample value of T, e.g. RegisterListener[*MarketEvent](f, l,
// true). Fails with ErrFabricBusy if called mid-dispatch.
func RegisterListener[T any](f *Fabric, listener Listener, ignoreSelf bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.dispatching {
		return ErrFabricBusy
	}
	t := reflect.TypeOf((*T)(nil)).Elem()
	f.byType[t] = append(f.byType[t], typeRegistration{listener: listener, ignoreSelf: ignoreSelf})
	return nil
}

// RegisterGlobalListener subscribes listener to every event. Senior
// listeners run before type-specific ones; junior listeners run after.
func (f *Fabric) RegisterGlobalListener(listener Listener, senior bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.dispatching {
		return ErrFabricBusy
	}
	reg := globalRegistration{listener: listener, senior: senior}
	if senior {
		f.seniors = append(f.seniors, reg)
	} else {
		f.juniors = append(f.juniors, reg)
	}
	return nil
}

// Inject registers a name-indexed callable, letting strategies call into
// e.g. the account manager for a snapshot without a compile-time
// dependency (spec.md §4.D).
func (f *Fabric) Inject(name string, fn func(args ...any) (any, error)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.callables[name] = fn
}

// Call invokes a previously injected callable by name.
func (f *Fabric) Call(name string, args ...any) (any, error) {
	f.mu.Lock()
	fn, ok := f.callables[name]
	f.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("fabric: no callable registered for %q", name)
	}
	return fn(args...)
}

// Put enqueues e, stamped with producerID, and drains the queue if no
// dispatch is already in progress on another goroutine — a nested Put
// from inside a listener enqueues and returns immediately, letting the
// outer drain loop pick it up (spec.md §4.D: "put(event) — enqueue; if
// not already dispatching, drain").
func (f *Fabric) Put(e Envelope, producerID uint32) {
	f.mu.Lock()
	hdr := e.Header()
	hdr.ProducerID = producerID
	if hdr.GenTimeNs == 0 {
		hdr.GenTimeNs = f.clock
	} else if hdr.GenTimeNs > f.clock {
		f.clock = hdr.GenTimeNs
	}

	f.queue = append(f.queue, e)
	if f.dispatching {
		f.mu.Unlock()
		return
	}
	f.dispatching = true
	f.mu.Unlock()

	f.drain()
}

func (f *Fabric) drain() {
	for {
		f.mu.Lock()
		if len(f.queue) == 0 {
			f.dispatching = false
			f.mu.Unlock()
			return
		}
		e := f.queue[0]
		f.queue = f.queue[1:]
		f.mu.Unlock()

		f.dispatchOne(e)
	}
}

func (f *Fabric) dispatchOne(e Envelope) {
	f.mu.Lock()
	seniors := append([]globalRegistration(nil), f.seniors...)
	typed := append([]typeRegistration(nil), f.byType[reflect.TypeOf(e)]...)
	juniors := append([]globalRegistration(nil), f.juniors...)
	f.mu.Unlock()

	producerID := e.Header().ProducerID

	for _, reg := range seniors {
		invoke(reg.listener, e)
	}
	for _, reg := range typed {
		if reg.ignoreSelf && reg.listener.ID() == producerID {
			continue
		}
		invoke(reg.listener, e)
	}
	for _, reg := range juniors {
		invoke(reg.listener, e)
	}
}

// invoke calls a listener with panic isolation: an exception inside one
// listener must not abort dispatch to the rest (spec.md §4.D).
func invoke(l Listener, e Envelope) {
	defer func() {
		if r := recover(); r != nil {
			telemetry.L().Errorw("fabric: listener panic", "listener_id", l.ID(), "recovered", r)
		}
	}()
	l.OnEvent(e)
}
