package tcp

import (
	"testing"

	"github.com/asu-gkg/htsim-go/kernel"
	"github.com/asu-gkg/htsim-go/network"
	"github.com/asu-gkg/htsim-go/queue"
	"github.com/asu-gkg/htsim-go/viz"
)

// harness wires a Manager to a Network that also dispatches back into it,
// so segments and their acks actually traverse the simulated topology.
type harness struct {
	net *network.Network
	mgr *Manager
}

func (h *harness) DeliverTCP(k *kernel.Kernel, at network.NodeID, pkt *network.Packet) {
	h.mgr.DeliverTCP(k, at, pkt)
}
func (h *harness) DeliverDCTCP(k *kernel.Kernel, at network.NodeID, pkt *network.Packet) {}
func (h *harness) DeliverBulk(k *kernel.Kernel, at network.NodeID, pkt *network.Packet)  {}

func newHarness(k *kernel.Kernel, obs viz.Observer) *harness {
	const h0, h1 network.NodeID = 0, 1
	n := network.New(k, obs, network.Config{RouteMode: network.PerFlow})
	n.AddNode(&network.Node{ID: h0, Role: network.Host, Name: "h0"})
	n.AddNode(&network.Node{ID: h1, Role: network.Host, Name: "h1"})
	fwd := network.NewLink(h0, h1, 1000, 1_000_000_000, queue.New(nil, nil, 0, false))
	rev := network.NewLink(h1, h0, 1000, 1_000_000_000, queue.New(nil, nil, 0, false))
	n.AddLink(fwd)
	n.AddLink(rev)
	n.SetRoutingTable(network.BuildRoutingTable([]network.NodeID{h0, h1}, []*network.Link{fwd, rev}))

	h := &harness{net: n}
	h.mgr = NewManager(k, n, obs, Reno{}, Config{MSS: 1000})
	n.SetDispatcher(h)
	return h
}

func TestConnectionCompletesSmallTransfer(t *testing.T) {
	k := kernel.New()
	rec := viz.NewRecorder()
	h := newHarness(k, rec)

	done := false
	h.mgr.Open(0, 1, 1, 3000, 0, 0, func(k *kernel.Kernel) { done = true })

	if err := k.RunUntilIdle(); err != nil {
		t.Fatalf("RunUntilIdle: %v", err)
	}
	if !done {
		t.Fatalf("connection did not complete")
	}
	if h.net.Stats().Delivered == 0 {
		t.Fatalf("expected delivered packets, got 0")
	}
}

func TestCwndEventsEmittedInOrder(t *testing.T) {
	k := kernel.New()
	rec := viz.NewRecorder()
	h := newHarness(k, rec)

	h.mgr.Open(0, 1, 1, 5000, 0, 0, nil)
	if err := k.RunUntilIdle(); err != nil {
		t.Fatalf("RunUntilIdle: %v", err)
	}

	var reasons []string
	for _, e := range rec.Events() {
		if e.Kind == viz.KindDCTCPCwnd {
			reasons = append(reasons, e.Reason)
		}
	}
	if len(reasons) == 0 {
		t.Fatalf("expected at least one cwnd event")
	}
	if reasons[0] != "init" {
		t.Fatalf("first cwnd event reason = %q, want %q", reasons[0], "init")
	}
}

func TestRenoSlowStartGrowsCwndOnAck(t *testing.T) {
	c := &Connection{MSS: 1000}
	r := Reno{}
	r.Init(c, 1000, 64000)
	if c.Cwnd != 1000 {
		t.Fatalf("initial cwnd = %d, want 1000", c.Cwnd)
	}
	reason := r.OnNewAck(c, 1000, false)
	if reason != "ack_slow_start" {
		t.Fatalf("reason = %q, want ack_slow_start", reason)
	}
	if c.Cwnd != 2000 {
		t.Fatalf("cwnd after first ack = %d, want 2000", c.Cwnd)
	}
}

func TestRenoFastRecoveryOnTripleDupAck(t *testing.T) {
	c := &Connection{MSS: 1000, Cwnd: 10000, Ssthresh: 64000}
	r := Reno{}
	reason := r.OnDupAck3(c)
	if reason != "fast_recovery_enter" {
		t.Fatalf("reason = %q, want fast_recovery_enter", reason)
	}
	if c.Ssthresh != 5000 {
		t.Fatalf("ssthresh after dup_ack_3 = %d, want 5000", c.Ssthresh)
	}
	if c.Cwnd != 8000 {
		t.Fatalf("cwnd after dup_ack_3 = %d, want 8000", c.Cwnd)
	}
}
