package tcp

// CongestionControl decides how a Connection's cwnd/ssthresh evolve. It is
// the seam spec §9 calls "polymorphism over transports": package dctcp
// supplies an alternative implementation and reuses everything else in this
// package (Connection, Manager, retransmit queue, RTO timers) unchanged.
//
// Every method returns the reason tag to record on the resulting cwnd
// event (spec §6, fixed reason set), or "" if the call produced no
// observable state change (the Manager then emits nothing).
type CongestionControl interface {
	// Init sets the connection's initial cwnd/ssthresh to the given byte
	// values when it is opened (spec §4.4's open(..., initial_cwnd_pkts,
	// initial_ssthresh_pkts, ...) parameters, already resolved to bytes by
	// the Manager).
	Init(c *Connection, initCwndBytes, initSsthreshBytes int) string
	// Defaults reports the variant's own initial cwnd/ssthresh, in
	// MSS-sized packets, used whenever a Config or Open call leaves them
	// unset (0).
	Defaults() (cwndPkts, ssthreshPkts int)
	// OnNewAck is called for every ACK that advances HighestAcked while not
	// in fast recovery. ackedBytes is how many new bytes were acknowledged;
	// ecnEcho reports whether the ACK carried an ECN echo.
	OnNewAck(c *Connection, ackedBytes int, ecnEcho bool) string
	// OnDupAck3 is called when the duplicate-ack counter reaches exactly 3,
	// entering fast recovery.
	OnDupAck3(c *Connection) string
	// OnDupAckMore is called for every duplicate ack after the third, while
	// already in fast recovery.
	OnDupAckMore(c *Connection) string
	// OnPartialAck is called when a new ACK arrives during fast recovery
	// but does not reach RecoverSeq.
	OnPartialAck(c *Connection, ackedBytes int) string
	// OnExitRecovery is called when an ACK reaches or passes RecoverSeq,
	// ending fast recovery.
	OnExitRecovery(c *Connection) string
	// OnRTOTimeout is called when the retransmit timer fires.
	OnRTOTimeout(c *Connection) string
}

// Reno is the classic TCP Reno congestion control of spec §4.4: additive
// increase in congestion avoidance, one segment per ACK in slow start,
// multiplicative decrease on fast retransmit, and a full reset to one
// segment on RTO.
type Reno struct{}

func (Reno) Init(c *Connection, initCwndBytes, initSsthreshBytes int) string {
	c.Cwnd = initCwndBytes
	c.Ssthresh = initSsthreshBytes
	return "init"
}

// Defaults returns Reno's classic single-segment initial window and a
// generous initial ssthresh (spec §4.4 names no default; this is the
// conventional pre-RFC-6928 starting point, overridable via Config or Open).
func (Reno) Defaults() (cwndPkts, ssthreshPkts int) { return 1, 64 }

func (Reno) OnNewAck(c *Connection, ackedBytes int, _ bool) string {
	if c.Cwnd < c.Ssthresh {
		c.Cwnd += ackedBytes // slow start: one MSS growth per acked segment
		return "ack_slow_start"
	}
	// Congestion avoidance: roughly one MSS of growth per RTT worth of ACKs.
	c.Cwnd += c.MSS * ackedBytes / c.Cwnd
	return "ack_congestion_avoidance"
}

func (Reno) OnDupAck3(c *Connection) string {
	c.Ssthresh = c.Cwnd / 2
	if c.Ssthresh < 2*c.MSS {
		c.Ssthresh = 2 * c.MSS
	}
	c.Cwnd = c.Ssthresh + 3*c.MSS
	return "fast_recovery_enter"
}

func (Reno) OnDupAckMore(c *Connection) string {
	c.Cwnd += c.MSS
	return "fast_recovery_dup_ack"
}

func (Reno) OnPartialAck(c *Connection, ackedBytes int) string {
	c.Cwnd -= ackedBytes
	if c.Cwnd < c.MSS {
		c.Cwnd = c.MSS
	}
	return "fast_recovery_partial_ack"
}

func (Reno) OnExitRecovery(c *Connection) string {
	c.Cwnd = c.Ssthresh
	return "fast_recovery_exit"
}

func (Reno) OnRTOTimeout(c *Connection) string {
	c.Ssthresh = c.Cwnd / 2
	if c.Ssthresh < 2*c.MSS {
		c.Ssthresh = 2 * c.MSS
	}
	c.Cwnd = c.MSS
	return "rto_timeout"
}
