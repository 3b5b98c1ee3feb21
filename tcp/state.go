// Package tcp implements the Reno-style TCP state machine of spec §4.4: a
// per-connection congestion window, slow start / congestion avoidance /
// fast retransmit, and an RTO timer. The congestion-control decision
// (window growth and reduction rule) is pluggable via CongestionControl so
// that package dctcp can reuse everything else unchanged (spec §4.5, §9
// "polymorphism over transports").
package tcp

import "fmt"

// State is the connection's position in the lifecycle described in spec
// §4.4: Closed -> SynSent -> Established -> FinWait -> Closed. Named and
// stringified the way the teacher's tcp.State enumerates Linux TCP states,
// but trimmed to the four the simulator actually models.
type State int32

const (
	Closed State = iota
	SynSent
	Established
	FinWait
)

var stateName = map[State]string{
	Closed:      "CLOSED",
	SynSent:     "SYN_SENT",
	Established: "ESTABLISHED",
	FinWait:     "FIN_WAIT",
}

func (s State) String() string {
	if name, ok := stateName[s]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN_STATE_%d", s)
}
