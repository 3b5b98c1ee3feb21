package workload

import (
	"testing"

	"github.com/asu-gkg/htsim-go/kernel"
	"github.com/asu-gkg/htsim-go/viz"
)

func smallDumbbellConfig() *Config {
	return &Config{
		SchemaVersion: SupportedSchemaVersion,
		Topology: TopologyConfig{
			Type: "dumbbell", LeftHosts: 2, RightHosts: 2,
			EdgeLatencyNs: 1000, EdgeBandwidthBps: 1_000_000_000,
			CoreLatencyNs: 2000, CoreBandwidthBps: 10_000_000_000,
		},
		Defaults: Defaults{MSS: 1000, Transport: "bulk"},
		Ranks: []RankProgram{
			{Rank: 0, Steps: []Step{
				{Kind: "compute", DurationNs: 500},
				{Kind: "collective", ID: "ar0", Op: "allreduce", Bytes: 4000, Participants: []int{0, 1, 2, 3}},
			}},
			{Rank: 1, Steps: []Step{
				{Kind: "collective", ID: "ar0", Op: "allreduce", Bytes: 4000, Participants: []int{0, 1, 2, 3}},
			}},
			{Rank: 2, Steps: []Step{
				{Kind: "collective", ID: "ar0", Op: "allreduce", Bytes: 4000, Participants: []int{0, 1, 2, 3}},
			}},
			{Rank: 3, Steps: []Step{
				{Kind: "collective", ID: "ar0", Op: "allreduce", Bytes: 4000, Participants: []int{0, 1, 2, 3}},
			}},
		},
	}
}

func TestValidateRejectsBadSchemaVersion(t *testing.T) {
	cfg := smallDumbbellConfig()
	cfg.SchemaVersion = 1
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected validation error for wrong schema version")
	}
}

func TestValidateRejectsUnknownOp(t *testing.T) {
	cfg := smallDumbbellConfig()
	cfg.Ranks[0].Steps[1].Op = "bogus"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected validation error for unknown op")
	}
}

func TestDriverRunsAllReduceAcrossFourRanks(t *testing.T) {
	cfg := smallDumbbellConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	k := kernel.New()
	rec := viz.NewRecorder()
	d, err := NewDriver(k, rec, cfg)
	if err != nil {
		t.Fatalf("NewDriver: %v", err)
	}

	finished := false
	d.Run(cfg, func(k *kernel.Kernel) { finished = true })

	if err := k.RunUntilIdle(); err != nil {
		t.Fatalf("RunUntilIdle: %v", err)
	}
	if !finished {
		t.Fatalf("driver never reported all ranks done")
	}

	var collectiveDones int
	for _, e := range rec.Events() {
		if e.Kind == viz.KindCollectiveDone {
			collectiveDones++
		}
	}
	if collectiveDones != 4 {
		t.Fatalf("collective_done events = %d, want 4", collectiveDones)
	}
}

func TestDriverAsyncCollectiveDefersFollowingSendRecv(t *testing.T) {
	// Rank 0 starts an async allreduce with rank 1, then immediately issues
	// a sendrecv with rank 2. Spec §4.6: the sendrecv must not start until
	// the async allreduce has drained, so its packet must not be enqueued
	// before the allreduce's collective_done event.
	cfg := &Config{
		SchemaVersion: SupportedSchemaVersion,
		Topology: TopologyConfig{
			Type: "dumbbell", LeftHosts: 2, RightHosts: 1,
			EdgeLatencyNs: 1000, EdgeBandwidthBps: 1_000_000_000,
			CoreLatencyNs: 2000, CoreBandwidthBps: 10_000_000_000,
		},
		Defaults: Defaults{MSS: 1000, Transport: "bulk"},
		Ranks: []RankProgram{
			{Rank: 0, Steps: []Step{
				{Kind: "collective_async", ID: "ar0", Op: "allreduce", Bytes: 200000, Participants: []int{0, 1}},
				{Kind: "sendrecv", ID: "sr0", Peer: 2, Bytes: 1000},
				{Kind: "collective_wait"},
			}},
			{Rank: 1, Steps: []Step{
				{Kind: "collective", ID: "ar0", Op: "allreduce", Bytes: 200000, Participants: []int{0, 1}},
			}},
			{Rank: 2, Steps: []Step{
				{Kind: "sendrecv", ID: "sr0", Peer: 0, Bytes: 1000},
			}},
		},
	}
	k := kernel.New()
	rec := viz.NewRecorder()
	d, err := NewDriver(k, rec, cfg)
	if err != nil {
		t.Fatalf("NewDriver: %v", err)
	}
	finished := false
	d.Run(cfg, func(k *kernel.Kernel) { finished = true })
	if err := k.RunUntilIdle(); err != nil {
		t.Fatalf("RunUntilIdle: %v", err)
	}
	if !finished {
		t.Fatalf("driver never reported all ranks done")
	}

	var allreduceDoneAt int64 = -1
	var sendrecvEnqueuedAt int64 = -1
	for _, e := range rec.Events() {
		if e.Kind == viz.KindCollectiveDone && e.CollectiveID == "ar0" {
			allreduceDoneAt = e.TNs
		}
		// The sendrecv transfer is the only 1000-byte bulk packet on the
		// wire; the allreduce moves much larger chunks.
		if e.Kind == viz.KindEnqueue && e.PktBytes == 1000 {
			sendrecvEnqueuedAt = e.TNs
		}
	}
	if allreduceDoneAt < 0 {
		t.Fatalf("allreduce never completed")
	}
	if sendrecvEnqueuedAt < 0 {
		t.Fatalf("sendrecv packet was never enqueued")
	}
	if sendrecvEnqueuedAt < allreduceDoneAt {
		t.Fatalf("sendrecv enqueued at %d before async allreduce completed at %d", sendrecvEnqueuedAt, allreduceDoneAt)
	}
}

func TestDriverSendRecvBetweenTwoRanks(t *testing.T) {
	cfg := &Config{
		SchemaVersion: SupportedSchemaVersion,
		Topology: TopologyConfig{
			Type: "dumbbell", LeftHosts: 1, RightHosts: 1,
			EdgeLatencyNs: 1000, EdgeBandwidthBps: 1_000_000_000,
			CoreLatencyNs: 2000, CoreBandwidthBps: 10_000_000_000,
		},
		Defaults: Defaults{MSS: 1000, Transport: "bulk"},
		Ranks: []RankProgram{
			{Rank: 0, Steps: []Step{{Kind: "sendrecv", ID: "sr0", Peer: 1, Bytes: 2000}}},
			{Rank: 1, Steps: []Step{{Kind: "sendrecv", ID: "sr0", Peer: 0, Bytes: 2000}}},
		},
	}
	k := kernel.New()
	rec := viz.NewRecorder()
	d, err := NewDriver(k, rec, cfg)
	if err != nil {
		t.Fatalf("NewDriver: %v", err)
	}
	finished := false
	d.Run(cfg, func(k *kernel.Kernel) { finished = true })
	if err := k.RunUntilIdle(); err != nil {
		t.Fatalf("RunUntilIdle: %v", err)
	}
	if !finished {
		t.Fatalf("driver never reported all ranks done")
	}
}
