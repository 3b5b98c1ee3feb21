package kernel

// Action is a one-shot unit of deferred work. It receives the Kernel so it
// can schedule further events (timers, follow-on deliveries); any other
// state it needs (network, transport managers, ...) is captured in the
// closure when the Action is created.
type Action func(k *Kernel)

// event is one entry in the priority queue: a target time, a sequence
// number used to break ties in insertion order, and the action to run.
type event struct {
	time   VirtualTime
	seq    uint64
	action Action
}

// eventHeap implements container/heap.Interface, ordered by (time, seq) so
// that among events scheduled for the same virtual time, the one inserted
// earlier always runs first (FIFO at a given instant). This is the same
// shape as the (time, seqID) tiebreak used by inference-sim's
// ClusterEventQueue and go-eventloop's timer heap.
type eventHeap []*event

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	if h[i].time != h[j].time {
		return h[i].time < h[j].time
	}
	return h[i].seq < h[j].seq
}

func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x any) {
	*h = append(*h, x.(*event))
}

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}
