package tcp

import (
	"github.com/asu-gkg/htsim-go/kernel"
	"github.com/asu-gkg/htsim-go/network"
	"github.com/asu-gkg/htsim-go/viz"
)

// Manager owns every open Connection and implements the sender/receiver
// halves of the Reno state machine (spec §4.4). dctcp.NewManager builds one
// of these with a different CongestionControl instead of defining its own
// connection/manager types (spec §9 "polymorphism over transports").
type Manager struct {
	k   *kernel.Kernel
	net *network.Network
	obs viz.Observer
	cc  CongestionControl

	defaultMSS int
	minRTO     kernel.VirtualTime
	maxRTO     kernel.VirtualTime
	initialRTO kernel.VirtualTime
	transport  network.Transport

	// defaultInitCwndPkts/defaultInitSsthreshPkts are the fallback values
	// (spec §4.4's open(..., initial_cwnd_pkts, initial_ssthresh_pkts,
	// ...) parameters) applied to any Open call that passes 0, resolved at
	// construction time from Config or, if Config left them unset, from
	// the CongestionControl variant's own Defaults().
	defaultInitCwndPkts     int
	defaultInitSsthreshPkts int

	conns      map[ConnID]*Connection
	byFlow     map[network.FlowID]ConnID
	nextConnID uint64
}

// Config bundles Manager construction parameters. Transport defaults to
// TransportTCP; package dctcp's NewManager sets it to TransportDCTCP so the
// Network dispatches arriving segments to DeliverDCTCP instead.
//
// InitCwndPkts and InitSsthreshPkts are spec §4.4's open(...) parameters,
// applied to every connection this Manager opens; 0 defers to the
// CongestionControl variant's own Defaults().
type Config struct {
	MSS              int
	MinRTO           kernel.VirtualTime
	MaxRTO           kernel.VirtualTime
	InitialRTO       kernel.VirtualTime
	Transport        network.Transport
	InitCwndPkts     int
	InitSsthreshPkts int
}

// NewManager creates a Manager bound to a Network (for transmitting
// segments/acks) and a CongestionControl (Reno by default; dctcp supplies
// its own).
func NewManager(k *kernel.Kernel, net *network.Network, obs viz.Observer, cc CongestionControl, cfg Config) *Manager {
	if cfg.MSS <= 0 {
		cfg.MSS = 1460
	}
	if cfg.MinRTO <= 0 {
		cfg.MinRTO = kernel.VirtualTime(200 * 1000) // 200us floor
	}
	if cfg.MaxRTO <= 0 {
		cfg.MaxRTO = kernel.VirtualTime(2 * 1000 * 1000 * 1000) // 2s ceiling
	}
	if cfg.InitialRTO <= 0 {
		cfg.InitialRTO = kernel.VirtualTime(1000 * 1000 * 1000) // 1s, per RFC 6298
	}
	if cc == nil {
		cc = Reno{}
	}
	if cfg.Transport == network.TransportBulk {
		cfg.Transport = network.TransportTCP // Manager only ever speaks TCP or DCTCP
	}
	defCwndPkts, defSsthreshPkts := cc.Defaults()
	initCwndPkts := cfg.InitCwndPkts
	if initCwndPkts <= 0 {
		initCwndPkts = defCwndPkts
	}
	initSsthreshPkts := cfg.InitSsthreshPkts
	if initSsthreshPkts <= 0 {
		initSsthreshPkts = defSsthreshPkts
	}
	return &Manager{
		k: k, net: net, obs: obs, cc: cc,
		defaultMSS: cfg.MSS, minRTO: cfg.MinRTO, maxRTO: cfg.MaxRTO, initialRTO: cfg.InitialRTO,
		transport:               cfg.Transport,
		defaultInitCwndPkts:     initCwndPkts,
		defaultInitSsthreshPkts: initSsthreshPkts,
		conns:                   make(map[ConnID]*Connection),
		byFlow:                  make(map[network.FlowID]ConnID),
	}
}

// Open creates a new connection from src to dst and begins sending
// totalBytes of application data immediately (no handshake: the simulator
// models bulk/transport-level transfers, not connection setup latency).
// initCwndPkts and initSsthreshPkts are spec §4.4's open(...) parameters for
// this connection; pass 0 for either to use the Manager's configured
// default (Config.InitCwndPkts/InitSsthreshPkts, or the CongestionControl
// variant's own Defaults() if Config left those at 0 too). onComplete, if
// non-nil, is invoked once every byte is acknowledged.
func (m *Manager) Open(src, dst network.NodeID, flow network.FlowID, totalBytes, initCwndPkts, initSsthreshPkts int, onComplete func(k *kernel.Kernel)) ConnID {
	id := ConnID(m.nextConnID)
	m.nextConnID++
	c := &Connection{
		ID: id, Src: src, Dst: dst, Flow: flow, MSS: m.defaultMSS,
		State: Established, RTO: m.initialRTO, TotalBytes: totalBytes,
		PendingAppBytes: totalBytes,
		StartedAt:       m.k.Now(),
		onComplete:      onComplete,
		cc:              m.cc,
	}
	if initCwndPkts <= 0 {
		initCwndPkts = m.defaultInitCwndPkts
	}
	if initSsthreshPkts <= 0 {
		initSsthreshPkts = m.defaultInitSsthreshPkts
	}
	reason := m.cc.Init(c, initCwndPkts*c.MSS, initSsthreshPkts*c.MSS)
	m.emitCwnd(c, reason)
	m.conns[id] = c
	m.byFlow[flow] = id
	m.pump(c)
	return id
}

func (m *Manager) transportTag() network.Transport { return m.transport }

// Send adapts Open to the collective package's FlowTransport interface, so
// a *Manager (plain Reno, or DCTCP via dctcp.NewManager) can be handed
// directly to the collective scheduler without an adapter type. Collective
// flows always use the Manager's configured initial cwnd/ssthresh.
func (m *Manager) Send(k *kernel.Kernel, src, dst network.NodeID, flow network.FlowID, bytes int, onDone func(k *kernel.Kernel)) {
	m.Open(src, dst, flow, bytes, 0, 0, onDone)
}

// pump sends as many new segments as the congestion window allows.
func (m *Manager) pump(c *Connection) {
	for c.PendingAppBytes > 0 && c.InFlight()+c.MSS <= c.Cwnd {
		length := c.MSS
		if length > c.PendingAppBytes {
			length = c.PendingAppBytes
		}
		seg := Segment{Seq: c.SendNext, Len: length, SentAt: m.k.Now()}
		c.RetransmitQueue = append(c.RetransmitQueue, seg)
		c.SendNext += uint64(length)
		if c.SendNext > c.HighestSent {
			c.HighestSent = c.SendNext
		}
		c.PendingAppBytes -= length
		c.Stats.BytesSent += length
		m.transmitSegment(c, seg, false)
	}
	m.armRTO(c)
}

func (m *Manager) transmitSegment(c *Connection, seg Segment, retransmit bool) {
	pkt := &network.Packet{
		ID: m.net.NextPacketID(), Flow: c.Flow, Src: c.Src, Dst: c.Dst,
		Bytes: seg.Len, Kind: network.KindData, Transport: m.transportTag(),
		ECT: true,
		TCP: &network.TCPSegment{Seq: seg.Seq, Len: seg.Len, Retransmit: retransmit},
	}
	m.obs.Emit(viz.Event{
		TNs: int64(m.k.Now()), Kind: viz.KindTCPSendData,
		ConnID: uint64(c.ID), Seq: seg.Seq, Len: seg.Len, Retrans: retransmit,
	})
	m.net.Forward(pkt, c.Src)
}

func (m *Manager) sendAck(c *Connection, ecnEcho bool) {
	pkt := &network.Packet{
		ID: m.net.NextPacketID(), Flow: c.Flow, Src: c.Dst, Dst: c.Src,
		Bytes: 40, Kind: network.KindAck, Transport: m.transportTag(),
		ECT: true,
		TCP: &network.TCPSegment{IsAck: true, AckNum: c.ReceiveNext, ECNEcho: ecnEcho},
	}
	m.obs.Emit(viz.Event{
		TNs: int64(m.k.Now()), Kind: viz.KindTCPSendAck,
		ConnID: uint64(c.ID), Ack: c.ReceiveNext, ECNEcho: ecnEcho,
	})
	m.net.Forward(pkt, c.Dst)
}

// DeliverTCP is the network.Dispatcher entry point: a packet tagged
// TransportTCP has fully arrived at `at`. Data segments arrive at the
// receiver (c.Dst); acks arrive at the sender (c.Src).
func (m *Manager) DeliverTCP(k *kernel.Kernel, at network.NodeID, pkt *network.Packet) {
	c, ok := m.connFor(pkt.Flow)
	if !ok {
		return // already closed/unknown; drop silently, like a stray segment
	}
	if pkt.TCP.IsAck {
		m.onAck(c, pkt)
		return
	}
	m.onData(c, pkt)
}

func (m *Manager) connFor(flow network.FlowID) (*Connection, bool) {
	id, ok := m.byFlow[flow]
	if !ok {
		return nil, false
	}
	c, ok := m.conns[id]
	return c, ok
}

// onData is the receiver side: an in-order segment advances ReceiveNext and
// is acked; anything else re-acks the current ReceiveNext (duplicate ack).
func (m *Manager) onData(c *Connection, pkt *network.Packet) {
	seg := pkt.TCP
	if seg.Seq == c.ReceiveNext {
		c.ReceiveNext += uint64(seg.Len)
	}
	m.sendAck(c, pkt.CE)
}

// onAck is the sender side: spec §4.4's ack-processing algorithm.
func (m *Manager) onAck(c *Connection, pkt *network.Packet) {
	ack := pkt.TCP.AckNum
	m.obs.Emit(viz.Event{TNs: int64(m.k.Now()), Kind: viz.KindTCPRecvAck, ConnID: uint64(c.ID), Ack: ack, ECNEcho: pkt.TCP.ECNEcho})

	switch {
	case ack > c.HighestAcked:
		m.onNewAck(c, ack, pkt.TCP.ECNEcho)
	case ack == c.HighestAcked && c.HighestAcked < c.HighestSent:
		m.onDuplicateAck(c)
	default:
		// stale or redundant ack; nothing to do.
	}

	if c.Done() {
		m.obs.Emit(viz.Event{
			TNs: int64(m.k.Now()), Kind: viz.KindFlowDone,
			ConnID: uint64(c.ID), FCTNs: int64(m.k.Now() - c.StartedAt),
		})
		if c.onComplete != nil {
			c.onComplete(m.k)
		}
		delete(m.conns, c.ID)
		delete(m.byFlow, c.Flow)
		return
	}
	m.pump(c)
}

func (m *Manager) onNewAck(c *Connection, ack uint64, ecnEcho bool) {
	ackedBytes := int(ack - c.HighestAcked)
	c.HighestAcked = ack
	c.Stats.BytesAcked += ackedBytes
	c.DupAckCount = 0
	c.ECNTotalBytes += ackedBytes
	if ecnEcho {
		c.ECNMarkedBytes += ackedBytes
	}
	if sample, ok := dropAcked(c, ack); ok {
		m.updateRTT(c, m.k.Now()-sample)
	}
	m.armRTO(c)

	if c.InRecovery {
		if ack >= c.RecoverSeq {
			c.InRecovery = false
			m.emitCwnd(c, m.cc.OnExitRecovery(c))
		} else {
			m.emitCwnd(c, m.cc.OnPartialAck(c, ackedBytes))
		}
		return
	}
	m.emitCwnd(c, m.cc.OnNewAck(c, ackedBytes, ecnEcho))
}

func (m *Manager) onDuplicateAck(c *Connection) {
	c.DupAckCount++
	c.Stats.DupAcks++
	switch {
	case c.DupAckCount == 3 && !c.InRecovery:
		c.InRecovery = true
		c.RecoverSeq = c.HighestSent
		c.Stats.FastRetransmits++
		m.emitCwnd(c, "dup_ack_3")
		m.emitCwnd(c, m.cc.OnDupAck3(c))
		m.retransmitFrom(c, c.HighestAcked)
	case c.DupAckCount > 3 && c.InRecovery:
		m.emitCwnd(c, "dup_ack_more")
		if reason := m.cc.OnDupAckMore(c); reason != "" {
			m.emitCwnd(c, reason)
		}
	}
}

// dropAcked removes fully-acknowledged segments from the retransmit queue.
// It returns the send time of the first non-retransmitted segment acked
// (Karn's algorithm: retransmitted segments never produce an RTT sample,
// since an ack can't be attributed to the original or the retransmission).
func dropAcked(c *Connection, ack uint64) (kernel.VirtualTime, bool) {
	var sample kernel.VirtualTime
	haveSample := false
	i := 0
	for i < len(c.RetransmitQueue) && c.RetransmitQueue[i].Seq+uint64(c.RetransmitQueue[i].Len) <= ack {
		seg := c.RetransmitQueue[i]
		if !seg.Retransmitted && !haveSample {
			sample = seg.SentAt
			haveSample = true
		}
		i++
	}
	c.RetransmitQueue = c.RetransmitQueue[i:]
	return sample, haveSample
}

func (m *Manager) retransmitFrom(c *Connection, seq uint64) {
	for i := range c.RetransmitQueue {
		if c.RetransmitQueue[i].Seq == seq {
			c.RetransmitQueue[i].Retransmitted = true
			c.RetransmitQueue[i].SentAt = m.k.Now()
			c.Stats.Retransmits++
			m.transmitSegment(c, c.RetransmitQueue[i], true)
			return
		}
	}
}

func (m *Manager) emitCwnd(c *Connection, reason string) {
	if reason == "" {
		return
	}
	m.obs.Emit(viz.Event{
		TNs: int64(m.k.Now()), Kind: viz.KindDCTCPCwnd,
		ConnID: uint64(c.ID), CwndBytes: c.Cwnd, SsthreshBytes: c.Ssthresh,
		InflightBytes: c.InFlight(), Alpha: c.ECNAlpha, Reason: reason,
	})
}
