package workload

import (
	"fmt"

	"github.com/asu-gkg/htsim-go/collective"
	"github.com/asu-gkg/htsim-go/dctcp"
	"github.com/asu-gkg/htsim-go/kernel"
	"github.com/asu-gkg/htsim-go/network"
	"github.com/asu-gkg/htsim-go/tcp"
	"github.com/asu-gkg/htsim-go/topology"
	"github.com/asu-gkg/htsim-go/viz"
)

// compositeDispatcher is the wiring network.Dispatcher promises in its own
// doc comment: it owns one transport per Transport tag and routes arrived
// packets to whichever manager issued the connection.
type compositeDispatcher struct {
	tcpMgr   *tcp.Manager
	dctcpMgr *tcp.Manager // built by dctcp.NewManager; same concrete type
	bulk     *collective.BulkTransport
}

func (d *compositeDispatcher) DeliverTCP(k *kernel.Kernel, at network.NodeID, pkt *network.Packet) {
	d.tcpMgr.DeliverTCP(k, at, pkt)
}
func (d *compositeDispatcher) DeliverDCTCP(k *kernel.Kernel, at network.NodeID, pkt *network.Packet) {
	d.dctcpMgr.DeliverTCP(k, at, pkt)
}
func (d *compositeDispatcher) DeliverBulk(k *kernel.Kernel, at network.NodeID, pkt *network.Packet) {
	d.bulk.DeliverBulk(k, at, pkt)
}

// Driver runs a Config's rank programs to completion against one
// simulated topology.
type Driver struct {
	k     *kernel.Kernel
	obs   viz.Observer
	net   *network.Network
	hosts []network.NodeID

	tcpMgr   *tcp.Manager
	dctcpMgr *tcp.Manager
	bulk     *collective.BulkTransport
	sched    *collective.Scheduler

	defaultTransport string

	pending    map[string]*pendingJoin
	totalRanks int
	ranksDone  int
	onAllDone  func(k *kernel.Kernel)

	// asyncPending and drainWaiters implement spec §4.6's ordering
	// constraint: while a rank has an async collective in flight, further
	// communication steps on that rank (collective, sendrecv, and a
	// wait-all collective_wait) are queued until every in-flight async
	// collective on that rank completes. Compute steps are never queued.
	// A rank only ever has one step awaiting the drain at a time (it
	// proceeds sequentially), so one queued continuation per rank suffices.
	asyncPending map[int]int
	drainWaiters map[int]func(k *kernel.Kernel)
}

// pendingJoin accumulates the ranks that have reached a given collective or
// sendrecv step id, per spec §4.7's implicit barrier: the transfer set
// isn't issued until every participant has arrived at that step in its own
// program.
type pendingJoin struct {
	op           collective.Op
	participants []int
	bytes, root  int
	arrived      map[int]bool
	continuations []func(k *kernel.Kernel)
}

// NewDriver builds the topology described by cfg.Topology and wires every
// transport and the collective scheduler on top of it.
func NewDriver(k *kernel.Kernel, obs viz.Observer, cfg *Config) (*Driver, error) {
	net, hosts, err := buildTopology(k, obs, cfg.Topology)
	if err != nil {
		return nil, err
	}

	mss := cfg.Defaults.MSS
	tcpCfg := tcp.Config{
		MSS: mss,
		InitCwndPkts:     cfg.Defaults.InitCwndPkts,
		InitSsthreshPkts: cfg.Defaults.InitSsthreshPkts,
	}
	tcpMgr := tcp.NewManager(k, net, obs, tcp.Reno{}, tcpCfg)
	dctcpMgr := dctcp.NewManager(k, net, obs, tcpCfg)
	bulk := collective.NewBulkTransport(net)

	net.SetDispatcher(&compositeDispatcher{tcpMgr: tcpMgr, dctcpMgr: dctcpMgr, bulk: bulk})

	transport := cfg.Defaults.Transport
	if transport == "" {
		transport = "bulk"
	}

	d := &Driver{
		k: k, obs: obs, net: net, hosts: hosts,
		tcpMgr: tcpMgr, dctcpMgr: dctcpMgr, bulk: bulk,
		defaultTransport: transport,
		pending:          make(map[string]*pendingJoin),
		totalRanks:       len(cfg.Ranks),
		asyncPending:     make(map[int]int),
		drainWaiters:     make(map[int]func(k *kernel.Kernel)),
	}
	d.sched = collective.NewScheduler(k, obs, d.collectiveTransport(cfg.Defaults.Transport))
	return d, nil
}

func buildTopology(k *kernel.Kernel, obs viz.Observer, tc TopologyConfig) (*network.Network, []network.NodeID, error) {
	routeMode := network.PerFlow
	if tc.RouteMode == "per_packet" {
		routeMode = network.PerPacket
	}
	edge := topology.LinkSpec{
		LatencyNS: kernel.VirtualTime(tc.EdgeLatencyNs), BandwidthBps: tc.EdgeBandwidthBps,
		QueueBytesCap: tc.QueueByteCap, QueuePktsCap: tc.QueuePacketCap,
		ECNThreshold: tc.ECNThresholdPackets, ECNEnabled: tc.ECNEnabled,
	}
	core := topology.LinkSpec{
		LatencyNS: kernel.VirtualTime(tc.CoreLatencyNs), BandwidthBps: tc.CoreBandwidthBps,
		QueueBytesCap: tc.QueueByteCap, QueuePktsCap: tc.QueuePacketCap,
		ECNThreshold: tc.ECNThresholdPackets, ECNEnabled: tc.ECNEnabled,
	}

	switch tc.Type {
	case "dumbbell":
		res := topology.BuildDumbbell(k, obs, routeMode, tc.LeftHosts, tc.RightHosts, edge, core)
		return res.Net, res.Hosts, nil
	case "fat_tree":
		res := topology.BuildFatTree(k, obs, routeMode, tc.NumTors, tc.HostsPerTor, tc.NumSpines, edge, core)
		return res.Net, res.Hosts, nil
	default:
		return nil, nil, &ConfigError{fmt.Sprintf("unknown topology type %q", tc.Type)}
	}
}

// collectiveTransport resolves the FlowTransport the scheduler sends
// collective traffic over: bulk unless the workload explicitly asks for a
// congestion-controlled transport.
func (d *Driver) collectiveTransport(name string) collective.FlowTransport {
	switch name {
	case "tcp":
		return d.tcpMgr
	case "dctcp":
		return d.dctcpMgr
	default:
		return d.bulk
	}
}

func (d *Driver) nodeOf(rank int) network.NodeID { return d.hosts[rank] }

// Network exposes the built topology, for tooling that needs to describe it
// (e.g. a trace Meta record).
func (d *Driver) Network() *network.Network { return d.net }

// Run starts every rank's program at t=0 and returns; advancing time is the
// caller's job (kernel.RunUntilIdle or RunUntil).
func (d *Driver) Run(cfg *Config, onAllDone func(k *kernel.Kernel)) {
	d.onAllDone = onAllDone
	for _, rp := range cfg.Ranks {
		rp := rp
		d.k.Schedule(d.k.Now(), func(k *kernel.Kernel) { d.runStep(rp, 0) })
	}
}

func (d *Driver) runStep(rp RankProgram, idx int) {
	if idx >= len(rp.Steps) {
		d.ranksDone++
		if d.ranksDone == d.totalRanks && d.onAllDone != nil {
			d.onAllDone(d.k)
		}
		return
	}
	st := rp.Steps[idx]
	next := func(k *kernel.Kernel) { d.runStep(rp, idx+1) }

	rank := rp.Rank
	switch st.Kind {
	case "compute":
		d.k.Schedule(d.k.Now()+kernel.VirtualTime(st.DurationNs), next)
	case "collective":
		d.whenAsyncDrained(rank, func(k *kernel.Kernel) { d.join(st, rank, next) })
	case "collective_async":
		d.asyncPending[rank]++
		d.join(st, rank, func(k *kernel.Kernel) {
			d.asyncPending[rank]--
			d.flushDrain(rank)
		})
		// Compute-comm overlap (spec §4.6): the issuing rank's program
		// counter advances immediately; only a later communication step
		// queues behind the in-flight async collective.
		d.runStep(rp, idx+1)
	case "collective_wait":
		if st.ID == "" {
			// Wait-all: block until every async collective this rank has
			// outstanding has completed.
			d.whenAsyncDrained(rank, next)
		} else {
			d.sched.Wait(st.ID, next)
		}
	case "sendrecv":
		d.whenAsyncDrained(rank, func(k *kernel.Kernel) { d.joinSendRecv(st, rank, next) })
	}
}

// whenAsyncDrained runs fn now if rank has no async collective in flight, or
// defers it until the last one completes (spec §4.6's serialized-per-rank
// comm-vs-comm overlap policy).
func (d *Driver) whenAsyncDrained(rank int, fn func(k *kernel.Kernel)) {
	if d.asyncPending[rank] <= 0 {
		fn(d.k)
		return
	}
	d.drainWaiters[rank] = fn
}

// flushDrain runs and clears a rank's queued continuation once its
// in-flight async collective count has returned to zero.
func (d *Driver) flushDrain(rank int) {
	if d.asyncPending[rank] > 0 {
		return
	}
	fn := d.drainWaiters[rank]
	if fn == nil {
		return
	}
	delete(d.drainWaiters, rank)
	fn(d.k)
}

// join implements the barrier: every participant of st.ID must call join
// before the Scheduler actually starts moving data.
func (d *Driver) join(st Step, rank int, continuation func(k *kernel.Kernel)) {
	pj, ok := d.pending[st.ID]
	if !ok {
		op, _ := opFromString(st.Op) // already validated at Load time
		participants := st.Participants
		if len(participants) == 0 {
			participants = allRanks(d.totalRanks)
		}
		pj = &pendingJoin{op: op, participants: participants, bytes: st.Bytes, root: st.Root, arrived: make(map[int]bool)}
		d.pending[st.ID] = pj
	}
	pj.arrived[rank] = true
	if continuation != nil {
		pj.continuations = append(pj.continuations, continuation)
	}
	if len(pj.arrived) == len(pj.participants) {
		conts := pj.continuations
		d.sched.Start(st.ID, pj.op, pj.participants, d.nodeOf, pj.bytes, pj.root, func(k *kernel.Kernel) {
			for _, c := range conts {
				c(k)
			}
		})
		delete(d.pending, st.ID)
	}
}

func (d *Driver) joinSendRecv(st Step, rank int, continuation func(k *kernel.Kernel)) {
	participants := []int{rank, st.Peer}
	pj, ok := d.pending[st.ID]
	if !ok {
		pj = &pendingJoin{participants: participants, bytes: st.Bytes, arrived: make(map[int]bool)}
		d.pending[st.ID] = pj
	}
	pj.arrived[rank] = true
	pj.continuations = append(pj.continuations, continuation)
	if len(pj.arrived) == 2 {
		conts := pj.continuations
		from, to := pj.participants[0], pj.participants[1]
		d.sched.StartSendRecv(st.ID, pj.participants, d.nodeOf, from, to, pj.bytes, func(k *kernel.Kernel) {
			for _, c := range conts {
				c(k)
			}
		})
		delete(d.pending, st.ID)
	}
}

func allRanks(n int) []int {
	ranks := make([]int, n)
	for i := range ranks {
		ranks[i] = i
	}
	return ranks
}
