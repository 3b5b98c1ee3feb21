package kernel

import "errors"

// Errors surfaced by the kernel itself. Per the propagation policy, an
// InvariantViolation is fatal: RunUntil and RunUntilIdle recover it and
// return it as an error rather than letting it crash the process, but the
// caller is expected to abort the run.
var (
	// ErrScheduledInPast means Schedule was called with at_time < now. This
	// is always a programming error in a caller, never a normal runtime
	// condition, so it is reported as an InvariantViolation rather than
	// silently reordered.
	ErrScheduledInPast = errors.New("kernel: event scheduled in the past")
)

// InvariantViolation wraps a fatal bug detected while executing an event
// (scheduling in the past, a duplicate packet id, a negative queue count,
// and so on). Any component that detects one should call Panic, not return
// an ordinary error; the kernel recovers it at the RunUntil/RunUntilIdle
// boundary and hands it back to the caller.
type InvariantViolation struct {
	Err error
}

func (v *InvariantViolation) Error() string { return v.Err.Error() }

func (v *InvariantViolation) Unwrap() error { return v.Err }

// Panic raises err as an InvariantViolation. Use this from event actions
// instead of log.Fatal or a bare panic, so the kernel can recover it and
// return a normal error to RunUntil's caller.
func Panic(err error) {
	panic(&InvariantViolation{Err: err})
}

// CollectiveError reports a fatal misuse of the collective scheduler: a
// comm_id referenced by a wait that was never started, or mismatched
// participant sets across ranks. Also recovered and returned by RunUntil.
type CollectiveError struct {
	Err error
}

func (v *CollectiveError) Error() string { return v.Err.Error() }

func (v *CollectiveError) Unwrap() error { return v.Err }

// PanicCollective raises err as a CollectiveError.
func PanicCollective(err error) {
	panic(&CollectiveError{Err: err})
}
