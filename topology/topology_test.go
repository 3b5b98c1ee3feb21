package topology

import (
	"testing"

	"github.com/asu-gkg/htsim-go/kernel"
	"github.com/asu-gkg/htsim-go/network"
	"github.com/asu-gkg/htsim-go/viz"
)

func TestBuildDumbbellHostCountAndNodes(t *testing.T) {
	k := kernel.New()
	edge := LinkSpec{LatencyNS: 1000, BandwidthBps: 1_000_000_000}
	bottleneck := LinkSpec{LatencyNS: 2000, BandwidthBps: 10_000_000_000}
	res := BuildDumbbell(k, viz.NopObserver{}, network.PerFlow, 2, 3, edge, bottleneck)

	if len(res.Hosts) != 5 {
		t.Fatalf("hosts = %d, want 5", len(res.Hosts))
	}
	for _, dst := range res.Hosts {
		for _, src := range res.Hosts {
			if src == dst {
				continue
			}
			if _, ok := res.Net.Node(src); !ok {
				t.Fatalf("node %d missing", src)
			}
		}
	}
}

func TestBuildFatTreeHostCount(t *testing.T) {
	k := kernel.New()
	edge := LinkSpec{LatencyNS: 500, BandwidthBps: 10_000_000_000}
	agg := LinkSpec{LatencyNS: 500, BandwidthBps: 40_000_000_000}
	res := BuildFatTree(k, viz.NopObserver{}, network.PerFlow, 4, 4, 2, edge, agg)

	if len(res.Hosts) != 16 {
		t.Fatalf("hosts = %d, want 16", len(res.Hosts))
	}
	for _, h := range res.Hosts {
		if _, ok := res.Net.Node(h); !ok {
			t.Fatalf("host node %d missing from network", h)
		}
	}
}
