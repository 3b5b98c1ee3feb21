package network

import "github.com/asu-gkg/htsim-go/kernel"

// Dispatcher is implemented by whatever owns the transport stacks (tcp and
// dctcp managers). The Network calls it at the final-hop delivery boundary
// instead of importing the transport packages directly, so there is no
// import cycle: network defines the interface, the tcp/dctcp managers
// supply a DeliverTCP method, and the wiring code (the workload driver's
// compositeDispatcher) implements Dispatcher by delegating to them.
type Dispatcher interface {
	// DeliverTCP hands a fully-arrived TCP-tagged packet to the TCP stack.
	DeliverTCP(k *kernel.Kernel, at NodeID, pkt *Packet)
	// DeliverDCTCP hands a fully-arrived DCTCP-tagged packet to the DCTCP
	// stack.
	DeliverDCTCP(k *kernel.Kernel, at NodeID, pkt *Packet)
	// DeliverBulk handles a plain bulk-transfer packet (no transport
	// state machine at all) on arrival.
	DeliverBulk(k *kernel.Kernel, at NodeID, pkt *Packet)
}
