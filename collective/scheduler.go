package collective

import (
	"github.com/asu-gkg/htsim-go/kernel"
	"github.com/asu-gkg/htsim-go/network"
	"github.com/asu-gkg/htsim-go/viz"
)

// Scheduler runs collective operations over a FlowTransport, one step at a
// time, respecting the barrier between steps described in spec §4.6.
// Whether two collectives' communication overlaps on the same rank is the
// workload driver's call (spec §4.7 "per-rank serialized comm, compute may
// overlap"): the Scheduler itself places no restriction on how many handles
// run concurrently, since within one rank's program that is enforced by
// when the driver chooses to issue the next collective/collective_async
// step.
type Scheduler struct {
	k         *kernel.Kernel
	obs       viz.Observer
	transport FlowTransport

	active     map[string]*Handle
	nextFlowID uint64
}

// NewScheduler creates a Scheduler that sends every transfer through
// transport.
func NewScheduler(k *kernel.Kernel, obs viz.Observer, transport FlowTransport) *Scheduler {
	return &Scheduler{k: k, obs: obs, transport: transport, active: make(map[string]*Handle)}
}

// Start begins a collective among ranks (mapped to NodeIDs by nodeOf),
// exchanging bytes total (per-op semantics: allreduce/reduce-scatter/
// allgather treat it as the whole reduced buffer; alltoall and broadcast as
// the per-operation payload). root only matters for Broadcast. onDone, if
// non-nil, is called once every rank's participation has completed; pass
// nil for a collective_async step and register completion later via Wait.
// op must not be SendRecv; use StartSendRecv for that, since a point-to-point
// transfer has no ring structure to derive from ranks alone.
func (s *Scheduler) Start(id string, op Op, ranks []int, nodeOf func(rank int) network.NodeID, bytes, root int, onDone func(k *kernel.Kernel)) *Handle {
	return s.start(id, op, ranks, nodeOf, bytes, root, nil, onDone)
}

// StartSendRecv begins an explicit point-to-point transfer (or a batch of
// them) named by rank-index pairs, bypassing ring decomposition.
func (s *Scheduler) StartSendRecv(id string, ranks []int, nodeOf func(rank int) network.NodeID, from, to, bytes int, onDone func(k *kernel.Kernel)) *Handle {
	pair := transfer{from: indexOf(ranks, from), to: indexOf(ranks, to), bytes: bytes}
	return s.start(id, SendRecv, ranks, nodeOf, bytes, 0, []transfer{pair}, onDone)
}

func indexOf(ranks []int, rank int) int {
	for i, r := range ranks {
		if r == rank {
			return i
		}
	}
	return -1
}

func (s *Scheduler) start(id string, op Op, ranks []int, nodeOf func(rank int) network.NodeID, bytes, root int, pairs []transfer, onDone func(k *kernel.Kernel)) *Handle {
	h := &Handle{
		ID: id, Op: op, Ranks: ranks, StartedAt: s.k.Now(),
		nodeOf: nodeOf, steps: decompose(op, len(ranks), bytes, root, pairs),
		onDone: onDone,
	}
	s.active[id] = h
	if len(h.steps) == 0 {
		s.finish(h)
		return h
	}
	s.runStep(h)
	return h
}

// Wait registers continuation to run once the named collective completes.
// If it has already completed, continuation is called immediately and
// synchronously, before Wait returns. The same happens for an id that was
// never started: Wait cannot tell it from a completed one and does not
// raise kernel.CollectiveError.
func (s *Scheduler) Wait(id string, continuation func(k *kernel.Kernel)) {
	if h, ok := s.active[id]; ok && !h.done {
		prev := h.onDone
		h.onDone = func(k *kernel.Kernel) {
			if prev != nil {
				prev(k)
			}
			continuation(k)
		}
		return
	}
	continuation(s.k)
}

func (s *Scheduler) runStep(h *Handle) {
	st := h.steps[h.stepIx]
	h.pending = len(st)
	for _, tr := range st {
		flow := network.FlowID(s.nextFlowID)
		s.nextFlowID++
		src := h.nodeOf(h.Ranks[tr.from])
		dst := h.nodeOf(h.Ranks[tr.to])
		s.transport.Send(s.k, src, dst, flow, tr.bytes, func(k *kernel.Kernel) {
			s.onTransferDone(h)
		})
	}
}

func (s *Scheduler) onTransferDone(h *Handle) {
	h.pending--
	if h.pending > 0 {
		return
	}
	h.stepIx++
	if h.stepIx >= len(h.steps) {
		s.finish(h)
		return
	}
	s.runStep(h)
}

func (s *Scheduler) finish(h *Handle) {
	h.done = true
	h.doneAt = s.k.Now()
	delete(s.active, h.ID)

	fct := int64(h.doneAt - h.StartedAt)
	for _, rank := range h.Ranks {
		s.obs.Emit(viz.Event{
			TNs: int64(h.doneAt), Kind: viz.KindCollectiveDone,
			CollectiveID: h.ID, Rank: rank, FCTNs: fct,
		})
	}
	if h.onDone != nil {
		h.onDone(s.k)
	}
}
