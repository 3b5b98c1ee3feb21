package tcp

import (
	"github.com/asu-gkg/htsim-go/kernel"
	"github.com/asu-gkg/htsim-go/network"
)

// ConnID is a dense, manager-assigned connection identifier, used as the
// viz.Event ConnID field.
type ConnID uint64

// Segment is one outstanding (unacknowledged) byte range in a connection's
// retransmit queue.
type Segment struct {
	Seq           uint64
	Len           int
	SentAt        kernel.VirtualTime
	Retransmitted bool
}

// Stats accumulates the per-connection counters referenced by spec §8's
// flow-completion-time and retransmit reporting.
type Stats struct {
	BytesSent       int
	BytesAcked      int
	Retransmits     int
	RTOs            int
	DupAcks         int
	FastRetransmits int
}

// Connection is one TCP (or DCTCP, via package dctcp) flow's complete state,
// per spec §3/§4.4: sequence space, congestion window, RTT estimator,
// retransmit queue, and lifecycle state.
type Connection struct {
	ID   ConnID
	Src  network.NodeID
	Dst  network.NodeID
	Flow network.FlowID
	MSS  int

	Cwnd     int // bytes
	Ssthresh int // bytes

	SendNext     uint64 // next byte offset the sender will transmit
	HighestAcked uint64 // highest cumulative ack received
	HighestSent  uint64 // highest byte offset ever transmitted

	ReceiveNext uint64 // receiver side: next in-order byte offset expected
	DupAckCount int

	State State

	SRTT    kernel.VirtualTime
	RTTVar  kernel.VirtualTime
	RTO     kernel.VirtualTime
	haveRTT bool

	RetransmitQueue []Segment

	PendingAppBytes int // bytes not yet handed to the network
	TotalBytes      int // total bytes the application asked to send

	StartedAt kernel.VirtualTime // time Open was called, for per-flow FCT

	InRecovery bool
	RecoverSeq uint64

	rtoGeneration uint64 // invalidates stale RTO timers after new data acked

	// ECNAlpha and the window accounting below are only meaningful for
	// connections run under dctcp.CongestionControl; Reno ignores them.
	// Exported so package dctcp, which supplies the CongestionControl but
	// not a connection type of its own, can maintain them.
	ECNAlpha       float64
	ECNWindowEnd   uint64 // HighestSent snapshot marking the current window's end
	ECNMarkedBytes int    // bytes acked this window that were CE-marked
	ECNTotalBytes  int    // bytes acked this window

	Stats Stats

	onComplete func(k *kernel.Kernel)
	cc         CongestionControl
}

// InFlight returns the number of bytes sent but not yet acknowledged.
func (c *Connection) InFlight() int {
	return int(c.HighestSent - c.HighestAcked)
}

// Done reports whether every byte the application asked to send has been
// acknowledged.
func (c *Connection) Done() bool {
	return c.TotalBytes > 0 && int(c.HighestAcked) >= c.TotalBytes
}
