package network

// Kind classifies a packet's payload for tracing and statistics purposes,
// independent of which transport produced it.
type Kind uint8

const (
	KindData Kind = iota
	KindAck
	KindOther
)

func (k Kind) String() string {
	switch k {
	case KindData:
		return "data"
	case KindAck:
		return "ack"
	default:
		return "other"
	}
}

// Transport tags which stack owns a packet's payload, for dispatch at the
// delivery boundary (spec §4.2, §9 "polymorphism over transports").
type Transport uint8

const (
	TransportBulk Transport = iota
	TransportTCP
	TransportDCTCP
)

// TCPSegment is the transport payload carried by a TCP or DCTCP packet. The
// DCTCP variant described in spec §3 is the same struct with ECNEcho set;
// Reno connections never set it.
type TCPSegment struct {
	Seq        uint64
	Len        int
	IsAck      bool
	AckNum     uint64
	IsSyn      bool
	IsFin      bool
	Retransmit bool
	ECNEcho    bool
}

// Packet is the unit the forwarding engine moves hop by hop. Route, when
// non-nil, is a preset path that forwarding consumes verbatim instead of
// consulting the routing table; RouteIdx tracks how much of it has been
// consumed.
type Packet struct {
	ID        PacketID
	Flow      FlowID
	Src, Dst  NodeID
	Bytes     int
	Kind      Kind
	Transport Transport

	Route    []NodeID
	RouteIdx int

	HopsTaken int

	ECT bool
	CE  bool

	TCP *TCPSegment // set when Transport is TransportTCP or TransportDCTCP
}

// NextPresetHop returns the next hop after current on a preset route and
// reports whether one was available. Route is written the way spec §3's
// examples state it, listing the source node itself as Route[0] (e.g.
// [h0,s0,s1,h1] for a packet originating at h0), so this skips past any
// leading entries still equal to current before returning the first hop
// actually ahead of it, and consumes every element it skips or returns.
func (p *Packet) NextPresetHop(current NodeID) (NodeID, bool) {
	if p.Route == nil {
		return 0, false
	}
	for p.RouteIdx < len(p.Route) && p.Route[p.RouteIdx] == current {
		p.RouteIdx++
	}
	if p.RouteIdx >= len(p.Route) {
		return 0, false
	}
	hop := p.Route[p.RouteIdx]
	p.RouteIdx++
	return hop, true
}
