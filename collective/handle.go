package collective

import (
	"github.com/asu-gkg/htsim-go/kernel"
	"github.com/asu-gkg/htsim-go/network"
)

// Handle is one in-flight (or completed) collective instance.
type Handle struct {
	ID        string
	Op        Op
	Ranks     []int
	StartedAt kernel.VirtualTime

	nodeOf func(rank int) network.NodeID
	steps  []step
	stepIx int
	pending int

	onDone func(k *kernel.Kernel) // registered via collective_async/Start or Wait
	done   bool
	doneAt kernel.VirtualTime
}

// Done reports whether every step of the collective has completed.
func (h *Handle) Done() bool { return h.done }
