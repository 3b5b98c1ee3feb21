package network

import (
	"hash/fnv"

	"github.com/asu-gkg/htsim-go/kernel"
	"github.com/asu-gkg/htsim-go/viz"
)

// Stats accumulates the run-wide forwarding counters referenced by spec §7
// and §8 (accumulated RoutingError count, drop accounting, delivered
// count).
type Stats struct {
	Delivered   uint64
	Drops       map[DropReason]uint64
	RoutingErrs uint64
}

func newStats() *Stats {
	return &Stats{Drops: make(map[DropReason]uint64)}
}

// Network owns the node and link tables, the routing table, and the
// forwarding protocol (spec §4.2). It is constructed once per scenario and
// then driven entirely by kernel Actions.
type Network struct {
	k          *kernel.Kernel
	obs        viz.Observer
	nodes      map[NodeID]*Node
	links      map[[2]NodeID]*Link
	routing    *RoutingTable
	dispatcher Dispatcher
	routeMode  RouteMode
	maxHops    int
	nextPktID  uint64
	seenPktIDs map[PacketID]struct{}
	stats      *Stats
}

// Config bundles the construction-time parameters of a Network.
type Config struct {
	RouteMode RouteMode
	MaxHops   int // loop guard; 0 defaults to 64
}

// New creates an empty Network. Call AddNode/AddLink to populate it, then
// SetRoutingTable (or BuildRoutingTable) and SetDispatcher before running
// any simulation.
func New(k *kernel.Kernel, obs viz.Observer, cfg Config) *Network {
	maxHops := cfg.MaxHops
	if maxHops <= 0 {
		maxHops = 64
	}
	return &Network{
		k:          k,
		obs:        obs,
		nodes:      make(map[NodeID]*Node),
		links:      make(map[[2]NodeID]*Link),
		routeMode:  cfg.RouteMode,
		maxHops:    maxHops,
		seenPktIDs: make(map[PacketID]struct{}),
		stats:      newStats(),
	}
}

// AddNode registers a node.
func (n *Network) AddNode(node *Node) { n.nodes[node.ID] = node }

// AddLink registers a directional link, indexed by (from, to).
func (n *Network) AddLink(l *Link) { n.links[[2]NodeID{l.From, l.To}] = l }

// Link looks up the link from "from" to "to", if any.
func (n *Network) Link(from, to NodeID) (*Link, bool) {
	l, ok := n.links[[2]NodeID{from, to}]
	return l, ok
}

// Node looks up a node by id.
func (n *Network) Node(id NodeID) (*Node, bool) {
	node, ok := n.nodes[id]
	return node, ok
}

// Nodes returns every registered node, for building a trace's Meta record.
func (n *Network) Nodes() []*Node {
	nodes := make([]*Node, 0, len(n.nodes))
	for _, node := range n.nodes {
		nodes = append(nodes, node)
	}
	return nodes
}

// Links returns every registered directional link, for building a trace's
// Meta record.
func (n *Network) Links() []*Link {
	links := make([]*Link, 0, len(n.links))
	for _, l := range n.links {
		links = append(links, l)
	}
	return links
}

// SetRoutingTable installs a precomputed routing table.
func (n *Network) SetRoutingTable(rt *RoutingTable) { n.routing = rt }

// SetDispatcher wires the transport-delivery callback.
func (n *Network) SetDispatcher(d Dispatcher) { n.dispatcher = d }

// Stats returns the live stats object (read-only use expected by callers).
func (n *Network) Stats() *Stats { return n.stats }

// NextPacketID assigns the next dense, globally-unique packet id.
func (n *Network) NextPacketID() PacketID {
	id := PacketID(n.nextPktID)
	n.nextPktID++
	return id
}

// nextHop implements spec §4.2 step 1-2: consult the preset route first,
// otherwise the routing table with ECMP hashing.
func (n *Network) nextHop(pkt *Packet, current NodeID) (NodeID, error) {
	if hop, ok := pkt.NextPresetHop(current); ok {
		return hop, nil
	}
	candidates, ok := n.routing.NextHops(current, pkt.Dst)
	if !ok || len(candidates) == 0 {
		return 0, ErrNoRoute
	}
	var key uint64
	if n.routeMode == PerPacket {
		key = hashTwo(uint64(pkt.Flow), uint64(pkt.ID))
	} else {
		key = hashOne(uint64(pkt.Flow))
	}
	idx := int(key % uint64(len(candidates)))
	return candidates[idx], nil
}

func hashOne(a uint64) uint64 {
	h := fnv.New64a()
	var buf [8]byte
	putUint64(buf[:], a)
	h.Write(buf[:])
	return h.Sum64()
}

func hashTwo(a, b uint64) uint64 {
	h := fnv.New64a()
	var buf [16]byte
	putUint64(buf[:8], a)
	putUint64(buf[8:], b)
	h.Write(buf[:])
	return h.Sum64()
}

func putUint64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
}

// Forward implements the forwarding protocol of spec §4.2: pick a next
// hop, find the link, enqueue on it (dropping on overflow), compute
// transmit/arrival times, and schedule delivery at the next hop.
func (n *Network) Forward(pkt *Packet, current NodeID) {
	if pkt.HopsTaken > n.maxHops {
		n.drop(pkt, current, DropTTL)
		return
	}

	hop, err := n.nextHop(pkt, current)
	if err != nil {
		n.drop(pkt, current, DropNoRoute)
		return
	}

	link, ok := n.Link(current, hop)
	if !ok {
		n.drop(pkt, current, DropNoLink)
		return
	}

	result := link.Queue.Enqueue(pkt.Bytes)
	if !result.Accepted {
		n.drop(pkt, current, DropQueueFull)
		return
	}
	if result.ECNMarked {
		pkt.CE = true
	}

	now := n.k.Now()
	n.emit(viz.Event{
		TNs: int64(now), Kind: viz.KindEnqueue,
		LinkFrom: uint32(link.From), LinkTo: uint32(link.To),
		PktID: uint64(pkt.ID), PktBytes: pkt.Bytes, FlowID: uint64(pkt.Flow),
		PktKind: pkt.Kind.String(),
		QBytes: link.Queue.CurrentBytes(), QCapBytes: capOrZero(link.Queue.ByteCapacity),
	})

	start := now
	if link.BusyUntil > start {
		start = link.BusyUntil
	}
	txTime := link.transmitTime(pkt.Bytes)
	depart := start + txTime
	arrive := depart + link.LatencyNS
	link.BusyUntil = depart

	n.emit(viz.Event{
		TNs: int64(now), Kind: viz.KindTxStart,
		LinkFrom: uint32(link.From), LinkTo: uint32(link.To),
		PktID: uint64(pkt.ID), PktBytes: pkt.Bytes, FlowID: uint64(pkt.Flow),
		PktKind: pkt.Kind.String(),
	})

	hop2 := hop
	n.k.Schedule(depart, func(k *kernel.Kernel) {
		link.Queue.Dequeue(pkt.Bytes)
	})
	n.k.Schedule(arrive, func(k *kernel.Kernel) {
		n.onPacketArrival(hop2, pkt)
	})
}

func capOrZero(c *int) int {
	if c == nil {
		return 0
	}
	return *c
}

// onPacketArrival is the DeliverPacket event body: either final delivery,
// or one more forward step.
func (n *Network) onPacketArrival(node NodeID, pkt *Packet) {
	pkt.HopsTaken++
	nodeRec, _ := n.Node(node)

	if node == pkt.Dst {
		n.deliver(node, pkt)
		return
	}

	n.emit(viz.Event{
		TNs: int64(n.k.Now()), Kind: viz.KindNodeRx,
		Node: uint32(node), NodeKind: roleOf(nodeRec), NodeName: nameOf(nodeRec),
		PktID: uint64(pkt.ID),
	})
	n.emit(viz.Event{
		TNs: int64(n.k.Now()), Kind: viz.KindNodeForward,
		Node: uint32(node), NodeKind: roleOf(nodeRec), NodeName: nameOf(nodeRec),
		PktID: uint64(pkt.ID),
	})

	n.Forward(pkt, node)
}

func (n *Network) deliver(node NodeID, pkt *Packet) {
	if _, seen := n.seenPktIDs[pkt.ID]; seen {
		kernel.Panic(ErrDuplicatePacketID)
	}
	n.seenPktIDs[pkt.ID] = struct{}{}
	n.stats.Delivered++

	nodeRec, _ := n.Node(node)
	n.emit(viz.Event{
		TNs: int64(n.k.Now()), Kind: viz.KindDelivered,
		Node: uint32(node), NodeKind: roleOf(nodeRec), NodeName: nameOf(nodeRec),
		PktID: uint64(pkt.ID),
	})

	switch pkt.Transport {
	case TransportTCP:
		n.dispatcher.DeliverTCP(n.k, node, pkt)
	case TransportDCTCP:
		n.dispatcher.DeliverDCTCP(n.k, node, pkt)
	default:
		n.dispatcher.DeliverBulk(n.k, node, pkt)
	}
}

func (n *Network) drop(pkt *Packet, at NodeID, reason DropReason) {
	n.stats.Drops[reason]++
	if reason == DropNoRoute || reason == DropNoLink {
		n.stats.RoutingErrs++
	}
	n.emit(viz.Event{
		TNs: int64(n.k.Now()), Kind: viz.KindDrop,
		LinkFrom: uint32(at), PktID: uint64(pkt.ID), PktBytes: pkt.Bytes,
		FlowID: uint64(pkt.Flow), PktKind: pkt.Kind.String(),
		DropReason: reason.String(),
	})
}

func (n *Network) emit(e viz.Event) {
	if n.obs != nil {
		n.obs.Emit(e)
	}
}

func roleOf(n *Node) string {
	if n == nil {
		return ""
	}
	return n.Role.String()
}

func nameOf(n *Node) string {
	if n == nil {
		return ""
	}
	return n.Name
}
