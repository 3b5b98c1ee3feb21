// Package dctcp implements the DCTCP congestion control variant of spec
// §4.5: an ECN-marking-fraction filter (alpha) and a window-based,
// proportional cwnd reduction, instead of Reno's loss-based halving.
//
// It does not define its own Connection or Manager: per spec §9's
// "polymorphism over transports" note, NewManager builds a tcp.Manager
// configured with this package's CongestionControl, so every piece of
// sequencing, retransmission, and RTT-estimation machinery in package tcp
// is reused verbatim.
package dctcp

import (
	"github.com/asu-gkg/htsim-go/kernel"
	"github.com/asu-gkg/htsim-go/network"
	"github.com/asu-gkg/htsim-go/tcp"
	"github.com/asu-gkg/htsim-go/viz"
)

// Gain is the EWMA weight applied to each window's marked-fraction sample
// when updating alpha (g in the DCTCP paper; RFC 8257 suggests 1/16).
const Gain = 1.0 / 16.0

// CongestionControl implements tcp.CongestionControl with DCTCP's
// ECN-responsive window reduction. Loss detected via triple-duplicate-ack
// still triggers a fast retransmit of the missing segment (reusing package
// tcp's retransmit-queue machinery) but never halves cwnd/ssthresh itself:
// window-level pressure is relieved only by the alpha-based reduction below
// or, for genuine loss, by the RTO path it shares with Reno.
type CongestionControl struct {
	// Reduce, when set (the zero value is fine), overrides the halving cwnd
	// = cwnd*(1-alpha/2) applied at a window boundary. Exposed for tests.
	Reduce func(cwnd int, alpha float64) int
}

func (cc CongestionControl) Init(c *tcp.Connection, initCwndBytes, initSsthreshBytes int) string {
	c.Cwnd = initCwndBytes
	c.Ssthresh = initSsthreshBytes
	c.ECNAlpha = 0
	c.ECNWindowEnd = 0
	return "init"
}

// Defaults returns DCTCP's recommended larger initial window (10 MSS,
// RFC 8257) and the same generous initial ssthresh as Reno, overridable via
// Config or Open.
func (cc CongestionControl) Defaults() (cwndPkts, ssthreshPkts int) { return 10, 64 }

func (cc CongestionControl) OnNewAck(c *tcp.Connection, ackedBytes int, ecnEcho bool) string {
	if uint64(c.HighestAcked) < c.ECNWindowEnd {
		// Mid-window: grow like Reno while the window accumulates its
		// marked-fraction sample (already updated by the Manager).
		if c.Cwnd < c.Ssthresh {
			c.Cwnd += ackedBytes
			return "ack_slow_start"
		}
		c.Cwnd += c.MSS * ackedBytes / c.Cwnd
		return "sample"
	}

	// Window boundary: fold this window's marked fraction into alpha, then
	// apply the proportional reduction and start a new window.
	fraction := 0.0
	if c.ECNTotalBytes > 0 {
		fraction = float64(c.ECNMarkedBytes) / float64(c.ECNTotalBytes)
	}
	c.ECNAlpha = (1-Gain)*c.ECNAlpha + Gain*fraction
	c.ECNWindowEnd = c.HighestSent
	c.ECNMarkedBytes = 0
	c.ECNTotalBytes = 0

	if fraction > 0 {
		reduce := cc.Reduce
		if reduce == nil {
			reduce = defaultReduce
		}
		c.Cwnd = reduce(c.Cwnd, c.ECNAlpha)
		if c.Cwnd < c.MSS {
			c.Cwnd = c.MSS
		}
	}
	return "dctcp_ecn_window"
}

func defaultReduce(cwnd int, alpha float64) int {
	return cwnd - int(float64(cwnd)*alpha/2)
}

// OnDupAck3 enters fast recovery state (so the Manager still fast-retransmits
// the presumed-lost segment) but performs no cwnd/ssthresh change: DCTCP
// relies on the ECN window reduction above, or the RTO path, not loss-based
// halving.
func (cc CongestionControl) OnDupAck3(c *tcp.Connection) string { return "" }

// OnDupAckMore performs no additional window inflation, for the same reason.
func (cc CongestionControl) OnDupAckMore(c *tcp.Connection) string { return "" }

// OnPartialAck performs no cwnd change; the missing segment is still
// retransmitted by the Manager.
func (cc CongestionControl) OnPartialAck(c *tcp.Connection, ackedBytes int) string { return "" }

// OnExitRecovery restores cwnd to whatever the ECN-window logic had last
// set it to (recorded in Ssthresh is not used by DCTCP as a recovery
// target the way Reno uses it).
func (cc CongestionControl) OnExitRecovery(c *tcp.Connection) string { return "" }

// OnRTOTimeout is the one loss-based reduction DCTCP keeps, per spec §4.5
// ("no loss-based halving (reuses RTO path)"): identical to Reno's.
func (cc CongestionControl) OnRTOTimeout(c *tcp.Connection) string {
	c.Ssthresh = c.Cwnd / 2
	if c.Ssthresh < 2*c.MSS {
		c.Ssthresh = 2 * c.MSS
	}
	c.Cwnd = c.MSS
	return "rto_timeout"
}

// NewManager builds a tcp.Manager configured with DCTCP's CongestionControl
// and the DCTCP transport tag, so arriving segments are routed back to
// network.Dispatcher.DeliverDCTCP instead of DeliverTCP.
func NewManager(k *kernel.Kernel, net *network.Network, obs viz.Observer, cfg tcp.Config) *tcp.Manager {
	cfg.Transport = network.TransportDCTCP
	return tcp.NewManager(k, net, obs, CongestionControl{}, cfg)
}
