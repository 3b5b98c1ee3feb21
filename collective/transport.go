package collective

import (
	"github.com/asu-gkg/htsim-go/kernel"
	"github.com/asu-gkg/htsim-go/network"
)

// FlowTransport sends bytes between two nodes and calls onDone once they
// have been fully delivered and (for TCP/DCTCP transports) acknowledged.
// *tcp.Manager satisfies this directly (see tcp.Manager.Send); BulkTransport
// below is the no-congestion-control default for collectives that don't
// need a transport state machine at all.
type FlowTransport interface {
	Send(k *kernel.Kernel, src, dst network.NodeID, flow network.FlowID, bytes int, onDone func(k *kernel.Kernel))
}

// BulkTransport sends one untracked, unsegmented Packet per transfer and
// considers it complete when it arrives, with no retransmission or
// congestion control at all (spec §4.2 TransportBulk: "no transport state
// machine"). It also implements network.Dispatcher (DeliverBulk completes
// transfers; TCP/DCTCP-tagged packets are ignored), so the same value can be
// wired into both roles.
type BulkTransport struct {
	net     *network.Network
	pending map[network.FlowID]func(k *kernel.Kernel)
}

// NewBulkTransport creates a BulkTransport bound to net.
func NewBulkTransport(net *network.Network) *BulkTransport {
	return &BulkTransport{net: net, pending: make(map[network.FlowID]func(k *kernel.Kernel))}
}

// Send implements FlowTransport.
func (b *BulkTransport) Send(k *kernel.Kernel, src, dst network.NodeID, flow network.FlowID, bytes int, onDone func(k *kernel.Kernel)) {
	b.pending[flow] = onDone
	pkt := &network.Packet{
		ID: b.net.NextPacketID(), Flow: flow, Src: src, Dst: dst,
		Bytes: bytes, Kind: network.KindData, Transport: network.TransportBulk,
	}
	b.net.Forward(pkt, src)
}

// DeliverBulk implements the DeliverBulk method of network.Dispatcher.
func (b *BulkTransport) DeliverBulk(k *kernel.Kernel, at network.NodeID, pkt *network.Packet) {
	if cb, ok := b.pending[pkt.Flow]; ok {
		delete(b.pending, pkt.Flow)
		cb(k)
	}
}

// DeliverTCP implements network.Dispatcher; BulkTransport ignores TCP packets.
func (b *BulkTransport) DeliverTCP(k *kernel.Kernel, at network.NodeID, pkt *network.Packet) {}

// DeliverDCTCP implements network.Dispatcher; BulkTransport ignores DCTCP packets.
func (b *BulkTransport) DeliverDCTCP(k *kernel.Kernel, at network.NodeID, pkt *network.Packet) {}
