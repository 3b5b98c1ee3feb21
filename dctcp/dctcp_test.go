package dctcp

import (
	"testing"

	"github.com/asu-gkg/htsim-go/kernel"
	"github.com/asu-gkg/htsim-go/network"
	"github.com/asu-gkg/htsim-go/queue"
	"github.com/asu-gkg/htsim-go/tcp"
	"github.com/asu-gkg/htsim-go/viz"
)

func TestInitSetsLargerInitialWindow(t *testing.T) {
	c := &tcp.Connection{MSS: 1000}
	cc := CongestionControl{}
	cc.Init(c, 10000, 64000)
	if c.Cwnd != 10000 {
		t.Fatalf("cwnd = %d, want 10000", c.Cwnd)
	}
}

func TestWindowReductionScalesWithAlpha(t *testing.T) {
	c := &tcp.Connection{MSS: 1000, Cwnd: 10000, HighestSent: 20000, HighestAcked: 20000}
	cc := CongestionControl{}
	c.ECNWindowEnd = 10000 // boundary already passed
	c.ECNMarkedBytes = 5000
	c.ECNTotalBytes = 10000 // fraction = 0.5

	reason := cc.OnNewAck(c, 0, false)
	if reason != "dctcp_ecn_window" {
		t.Fatalf("reason = %q, want dctcp_ecn_window", reason)
	}
	wantAlpha := Gain * 0.5
	if diff := c.ECNAlpha - wantAlpha; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("alpha = %v, want %v", c.ECNAlpha, wantAlpha)
	}
	wantCwnd := 10000 - int(10000*wantAlpha/2)
	if c.Cwnd != wantCwnd {
		t.Fatalf("cwnd = %d, want %d", c.Cwnd, wantCwnd)
	}
}

func TestDupAckDoesNotHalveWindow(t *testing.T) {
	c := &tcp.Connection{MSS: 1000, Cwnd: 20000, Ssthresh: 64000}
	cc := CongestionControl{}
	if reason := cc.OnDupAck3(c); reason != "" {
		t.Fatalf("OnDupAck3 reason = %q, want empty", reason)
	}
	if c.Cwnd != 20000 {
		t.Fatalf("cwnd changed on dup ack: %d", c.Cwnd)
	}
}

func TestDCTCPTransferOverDumbbell(t *testing.T) {
	const h0, h1 network.NodeID = 0, 1
	k := kernel.New()
	rec := viz.NewRecorder()
	n := network.New(k, rec, network.Config{RouteMode: network.PerFlow})
	n.AddNode(&network.Node{ID: h0, Role: network.Host, Name: "h0"})
	n.AddNode(&network.Node{ID: h1, Role: network.Host, Name: "h1"})
	capPkts := 50
	fwd := network.NewLink(h0, h1, 1000, 1_000_000_000, queue.New(nil, &capPkts, 20, true))
	rev := network.NewLink(h1, h0, 1000, 1_000_000_000, queue.New(nil, nil, 0, false))
	n.AddLink(fwd)
	n.AddLink(rev)
	n.SetRoutingTable(network.BuildRoutingTable([]network.NodeID{h0, h1}, []*network.Link{fwd, rev}))

	mgr := NewManager(k, n, rec, tcp.Config{MSS: 1000})
	disp := &dctcpDispatcher{mgr: mgr}
	n.SetDispatcher(disp)

	done := false
	mgr.Open(h0, h1, 1, 8000, 0, 0, func(k *kernel.Kernel) { done = true })
	if err := k.RunUntilIdle(); err != nil {
		t.Fatalf("RunUntilIdle: %v", err)
	}
	if !done {
		t.Fatalf("transfer did not complete")
	}
}

type dctcpDispatcher struct{ mgr *tcp.Manager }

func (d *dctcpDispatcher) DeliverTCP(k *kernel.Kernel, at network.NodeID, pkt *network.Packet) {}
func (d *dctcpDispatcher) DeliverDCTCP(k *kernel.Kernel, at network.NodeID, pkt *network.Packet) {
	d.mgr.DeliverTCP(k, at, pkt)
}
func (d *dctcpDispatcher) DeliverBulk(k *kernel.Kernel, at network.NodeID, pkt *network.Packet) {}
