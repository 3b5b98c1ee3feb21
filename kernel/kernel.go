package kernel

import "container/heap"

// Kernel owns the virtual clock and the pending-event priority queue. All
// mutable simulation state lives outside the Kernel (network, transports,
// collectives); every Action receives the Kernel only, and closes over
// whatever else it needs. There is no preemption and no parallelism: an
// Action always runs to completion before the next one starts.
type Kernel struct {
	now   VirtualTime
	seq   uint64
	heap  eventHeap
	ended bool
}

// New creates a Kernel with an empty event queue at time zero.
func New() *Kernel {
	k := &Kernel{}
	heap.Init(&k.heap)
	return k
}

// Now returns the current virtual time.
func (k *Kernel) Now() VirtualTime { return k.now }

// Pending reports how many events are currently queued.
func (k *Kernel) Pending() int { return k.heap.Len() }

// Schedule inserts action to run at atTime. atTime must be >= Now(); calling
// Schedule with a time in the past is a programming error and is reported
// as an InvariantViolation (panic, recovered at the RunUntil/RunUntilIdle
// boundary) rather than silently reordered.
//
// Events sharing the same atTime run in the order they were scheduled
// (insertion/sequence order), which is the only ordering guarantee the
// kernel makes beyond strict time order.
func (k *Kernel) Schedule(atTime VirtualTime, action Action) {
	if atTime < k.now {
		Panic(ErrScheduledInPast)
	}
	heap.Push(&k.heap, &event{time: atTime, seq: k.nextSeq(), action: action})
}

func (k *Kernel) nextSeq() uint64 {
	s := k.seq
	k.seq++
	return s
}

// RunUntil repeatedly pops the earliest event and executes it, so long as
// its target time does not exceed limit. When the next pending event (if
// any) is later than limit, now is advanced to limit and RunUntil returns.
// If an InvariantViolation or CollectiveError is raised by an Action, it is
// recovered here and returned as err; the run should be considered aborted.
func (k *Kernel) RunUntil(limit VirtualTime) (err error) {
	defer func() { err = recoverFatal(recover()) }()
	for k.heap.Len() > 0 {
		next := k.heap[0]
		if next.time > limit {
			k.now = limit
			return nil
		}
		k.popAndRun()
	}
	k.now = limit
	return nil
}

// RunUntilIdle drains the event queue entirely, advancing now to the time of
// each event as it runs, and returns once no events remain.
func (k *Kernel) RunUntilIdle() (err error) {
	defer func() { err = recoverFatal(recover()) }()
	for k.heap.Len() > 0 {
		k.popAndRun()
	}
	return nil
}

func (k *Kernel) popAndRun() {
	e := heap.Pop(&k.heap).(*event)
	k.now = e.time
	e.action(k)
}

func recoverFatal(r any) error {
	if r == nil {
		return nil
	}
	switch v := r.(type) {
	case *InvariantViolation:
		return v
	case *CollectiveError:
		return v
	default:
		panic(r)
	}
}
