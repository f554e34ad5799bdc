package exchange

import "errors"

var (
	// ErrNotConnected is returned by operations that require a live WS or
	// REST session before the adapter has reached CONNECTED.
	ErrNotConnected = errors.New("exchange: adapter not connected")

	// ErrUnknownOrder is returned when an id lookup misses both maps.
	ErrUnknownOrder = errors.New("exchange: unknown order")

	// ErrDuplicateClientOrderID is a programming error: client-order-id
	// must be unique within a venue for the adapter's lifetime (spec.md
	// §3 invariant).
	ErrDuplicateClientOrderID = errors.New("exchange: duplicate client order id")

	// ErrInvalidTransition signals an attempted Order state transition
	// outside the DAG in spec.md §3.
	ErrInvalidTransition = errors.New("exchange: invalid order state transition")

	// ErrAmendRace is returned by the two-phase amend path (SPEC_FULL.md
	// §D decision 1) when the original order filled (fully or partially)
	// before the cancel could be confirmed, or when no cancel confirmation
	// arrived in time — the replacement is never sent in either case.
	ErrAmendRace = errors.New("exchange: order filled before amend could be applied")
)
