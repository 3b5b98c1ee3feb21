// Package viz defines the packet-level trace format consumed by the
// browser-based replay UI (out of scope here; we only specify the stream it
// consumes) and the per-flow/per-collective statistics it feeds.
//
// A trace is a JSON array whose first element is a Meta record and whose
// remaining elements are Events, one per kind in spec §6.
package viz

// Kind discriminates the Event variants in the wire format. Field sets per
// kind follow spec §6.
type Kind string

const (
	KindTxStart      Kind = "tx_start"
	KindEnqueue      Kind = "enqueue"
	KindDrop         Kind = "drop"
	KindNodeRx       Kind = "node_rx"
	KindNodeForward  Kind = "node_forward"
	KindDelivered    Kind = "delivered"
	KindTCPSendData  Kind = "tcp_send_data"
	KindTCPSendAck   Kind = "tcp_send_ack"
	KindTCPRecvAck   Kind = "tcp_recv_ack"
	KindTCPRTO       Kind = "tcp_rto"
	KindDCTCPCwnd    Kind = "dctcp_cwnd"
	KindCollectiveDone Kind = "collective_done"
	KindFlowDone     Kind = "flow_done"
)

// Event is a single record in the trace. Not every field is meaningful for
// every Kind; see spec §6's field-set-per-kind table. encoding/json's
// omitempty keeps each serialized record limited to its relevant fields.
type Event struct {
	TNs  int64 `json:"t_ns"`
	Kind Kind  `json:"kind"`

	// Link events: tx_start, enqueue, drop.
	LinkFrom uint32 `json:"link_from,omitempty"`
	LinkTo   uint32 `json:"link_to,omitempty"`
	PktID    uint64 `json:"pkt_id,omitempty"`
	PktBytes int    `json:"pkt_bytes,omitempty"`
	FlowID   uint64 `json:"flow_id,omitempty"`
	PktKind  string `json:"pkt_kind,omitempty"`
	QBytes    int `json:"q_bytes,omitempty"`
	QCapBytes int `json:"q_cap_bytes,omitempty"`
	DropReason string `json:"drop_reason,omitempty"`

	// Node events: node_rx, node_forward, delivered.
	Node     uint32 `json:"node,omitempty"`
	NodeKind string `json:"node_kind,omitempty"`
	NodeName string `json:"node_name,omitempty"`

	// TCP events: tcp_send_data, tcp_send_ack, tcp_recv_ack, tcp_rto,
	// flow_done (which also uses FCTNs below).
	ConnID  uint64 `json:"conn_id,omitempty"`
	Seq     uint64 `json:"seq,omitempty"`
	Len     int    `json:"len,omitempty"`
	Ack     uint64 `json:"ack,omitempty"`
	ECNEcho bool   `json:"ecn_echo,omitempty"`
	Retrans bool   `json:"retrans,omitempty"`

	// dctcp_cwnd (also used for plain-Reno cwnd changes; Alpha is omitted
	// for Reno connections, which have none).
	CwndBytes     int     `json:"cwnd_bytes,omitempty"`
	SsthreshBytes int     `json:"ssthresh_bytes,omitempty"`
	InflightBytes int     `json:"inflight_bytes,omitempty"`
	Alpha         float64 `json:"alpha,omitempty"`
	Reason        string  `json:"reason,omitempty"`

	// collective_done, flow_done.
	CollectiveID string `json:"collective_id,omitempty"`
	Rank         int    `json:"rank,omitempty"`
	FCTNs        int64  `json:"fct_ns,omitempty"`
}

// MetaLink describes one link's static parameters for the Meta record.
type MetaLink struct {
	From         uint32 `json:"from"`
	To           uint32 `json:"to"`
	BandwidthBps uint64 `json:"bandwidth_bps"`
	LatencyNs    int64  `json:"latency_ns"`
	QueueCapPkts int    `json:"queue_cap_pkts,omitempty"`
	QueueCapBytes int   `json:"queue_cap_bytes,omitempty"`
}

// MetaNode describes one node for the Meta record.
type MetaNode struct {
	ID   uint32 `json:"id"`
	Kind string `json:"kind"`
	Name string `json:"name"`
}

// Meta is always the first record of a trace.
type Meta struct {
	Kind  Kind       `json:"kind"`
	Nodes []MetaNode `json:"nodes"`
	Links []MetaLink `json:"links"`
}

const KindMeta Kind = "meta"
