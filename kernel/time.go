// Package kernel implements the discrete-event simulation core: a virtual
// clock, a priority queue of pending events, and the run-loop that drains it.
//
// Everything else in this module (network, tcp, dctcp, collective, workload)
// is a consumer of the Kernel: it schedules closures to run at a future
// virtual time and never touches wall-clock time.
package kernel

import "fmt"

// VirtualTime is a non-negative monotonic instant, in nanoseconds, since the
// start of a simulation run.
type VirtualTime int64

// Microseconds converts a duration given in microseconds to a VirtualTime
// delta in nanoseconds.
func Microseconds(n int64) VirtualTime { return VirtualTime(n * 1000) }

// Milliseconds converts a duration given in milliseconds to a VirtualTime
// delta in nanoseconds.
func Milliseconds(n int64) VirtualTime { return VirtualTime(n * 1000 * 1000) }

// Seconds converts a duration given in seconds to a VirtualTime delta in
// nanoseconds.
func Seconds(n int64) VirtualTime { return VirtualTime(n * 1000 * 1000 * 1000) }

func (t VirtualTime) String() string {
	return fmt.Sprintf("%dns", int64(t))
}
