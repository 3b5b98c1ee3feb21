// Package topology builds a network.Network (nodes, links, routing table)
// from the small set of parametric shapes spec §5 names: a dumbbell
// (two groups of hosts either side of a bottleneck link) and a fat tree
// (host - ToR - spine, two-tier leaf-spine). Both are thin builders: they
// only wire up the graph, using whatever link/queue parameters the
// workload's topology config supplies.
package topology

import (
	"fmt"

	"github.com/asu-gkg/htsim-go/kernel"
	"github.com/asu-gkg/htsim-go/network"
	"github.com/asu-gkg/htsim-go/queue"
	"github.com/asu-gkg/htsim-go/viz"
)

// LinkSpec describes one link's parameters, shared by both directions of
// every edge a builder creates.
type LinkSpec struct {
	LatencyNS      kernel.VirtualTime
	BandwidthBps   uint64
	QueueBytesCap  *int
	QueuePktsCap   *int
	ECNThreshold   int
	ECNEnabled     bool
}

func (ls LinkSpec) newQueue() *queue.Queue {
	return queue.New(ls.QueueBytesCap, ls.QueuePktsCap, ls.ECNThreshold, ls.ECNEnabled)
}

// Result is what a builder hands back: the populated Network plus the host
// NodeIDs in the order the config listed them, for the workload driver to
// map ranks onto.
type Result struct {
	Net   *network.Network
	Hosts []network.NodeID
}

// addBidirectional creates and registers both directions of one edge,
// appending the two Link records (a->b, b->a) to *all.
func addBidirectional(net *network.Network, all *[]*network.Link, a, b network.NodeID, spec LinkSpec) {
	fwd := network.NewLink(a, b, spec.LatencyNS, spec.BandwidthBps, spec.newQueue())
	rev := network.NewLink(b, a, spec.LatencyNS, spec.BandwidthBps, spec.newQueue())
	net.AddLink(fwd)
	net.AddLink(rev)
	*all = append(*all, fwd, rev)
}

// BuildDumbbell creates leftHosts + rightHosts hosts split across a single
// bottleneck switch-to-switch link: host -- edgeSwitch -- (bottleneck) --
// edgeSwitch -- host. edgeSpec is used for every host-to-switch link,
// bottleneckSpec for the one link between the two switches.
func BuildDumbbell(k *kernel.Kernel, obs viz.Observer, routeMode network.RouteMode, leftHosts, rightHosts int, edgeSpec, bottleneckSpec LinkSpec) Result {
	net := network.New(k, obs, network.Config{RouteMode: routeMode})
	var links []*network.Link

	var nextID network.NodeID
	newNode := func(role network.Role, name string) network.NodeID {
		id := nextID
		nextID++
		net.AddNode(&network.Node{ID: id, Role: role, Name: name})
		return id
	}

	leftSwitch := newNode(network.Switch, "sw-left")
	rightSwitch := newNode(network.Switch, "sw-right")
	addBidirectional(net, &links, leftSwitch, rightSwitch, bottleneckSpec)

	var hosts []network.NodeID
	for i := 0; i < leftHosts; i++ {
		h := newNode(network.Host, fmt.Sprintf("h-left-%d", i))
		addBidirectional(net, &links, h, leftSwitch, edgeSpec)
		hosts = append(hosts, h)
	}
	for i := 0; i < rightHosts; i++ {
		h := newNode(network.Host, fmt.Sprintf("h-right-%d", i))
		addBidirectional(net, &links, h, rightSwitch, edgeSpec)
		hosts = append(hosts, h)
	}

	net.SetRoutingTable(network.BuildRoutingTable(hosts, links))
	return Result{Net: net, Hosts: hosts}
}

// BuildFatTree creates the two-tier "leaf-spine" variant of a fat tree:
// numSpines spine switches, numTors ToR switches each connected directly to
// every spine, and hostsPerTor hosts under each ToR. There is no separate
// aggregation tier and no pod structure. edgeSpec covers host-ToR links,
// aggSpec covers ToR-spine links.
func BuildFatTree(k *kernel.Kernel, obs viz.Observer, routeMode network.RouteMode, numTors, hostsPerTor, numSpines int, edgeSpec, aggSpec LinkSpec) Result {
	net := network.New(k, obs, network.Config{RouteMode: routeMode})
	var links []*network.Link

	var nextID network.NodeID
	newNode := func(role network.Role, name string) network.NodeID {
		id := nextID
		nextID++
		net.AddNode(&network.Node{ID: id, Role: role, Name: name})
		return id
	}

	spines := make([]network.NodeID, numSpines)
	for s := 0; s < numSpines; s++ {
		spines[s] = newNode(network.Switch, fmt.Sprintf("spine-%d", s))
	}

	var hosts []network.NodeID
	for t := 0; t < numTors; t++ {
		tor := newNode(network.Switch, fmt.Sprintf("tor-%d", t))
		for _, sp := range spines {
			addBidirectional(net, &links, tor, sp, aggSpec)
		}
		for h := 0; h < hostsPerTor; h++ {
			host := newNode(network.Host, fmt.Sprintf("h-%d-%d", t, h))
			addBidirectional(net, &links, host, tor, edgeSpec)
			hosts = append(hosts, host)
		}
	}

	net.SetRoutingTable(network.BuildRoutingTable(hosts, links))
	return Result{Net: net, Hosts: hosts}
}
