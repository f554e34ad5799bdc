package ringbus

import "runtime"

// spinWait yields the processor briefly. Go has no portable CPU PAUSE
// intrinsic exposed to user code; runtime.Gosched is the idiomatic
// stand-in used throughout the pack's lock-free code for a busy-wait that
// still lets the scheduler make progress on GOMAXPROCS=1 or oversubscribed
// hosts.
func spinWait() {
	runtime.Gosched()
}
