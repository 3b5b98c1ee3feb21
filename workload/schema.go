// Package workload parses the JSON schema v2 workload description of spec
// §5 (topology + per-rank programs) and drives the simulation by
// interpreting each rank's step list against the kernel, network,
// transports, and collective scheduler.
package workload

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/asu-gkg/htsim-go/collective"
)

const SupportedSchemaVersion = 2

// Config is the root of a workload JSON document.
type Config struct {
	SchemaVersion int            `json:"schema_version"`
	Topology      TopologyConfig `json:"topology"`
	Defaults      Defaults       `json:"defaults"`
	Ranks         []RankProgram  `json:"ranks"`
}

// TopologyConfig selects and parametrizes one of topology's builders.
type TopologyConfig struct {
	Type string `json:"type"` // "dumbbell" | "fat_tree"

	// dumbbell
	LeftHosts  int `json:"left_hosts,omitempty"`
	RightHosts int `json:"right_hosts,omitempty"`

	// fat_tree
	NumTors     int `json:"num_tors,omitempty"`
	HostsPerTor int `json:"hosts_per_tor,omitempty"`
	NumSpines   int `json:"num_spines,omitempty"`

	EdgeLatencyNs    int64  `json:"edge_latency_ns"`
	EdgeBandwidthBps uint64 `json:"edge_bandwidth_bps"`
	CoreLatencyNs    int64  `json:"core_latency_ns"`
	CoreBandwidthBps uint64 `json:"core_bandwidth_bps"`

	QueuePacketCap      *int `json:"queue_packet_cap,omitempty"`
	QueueByteCap        *int `json:"queue_byte_cap,omitempty"`
	ECNThresholdPackets int  `json:"ecn_threshold_packets,omitempty"`
	ECNEnabled          bool `json:"ecn_enabled,omitempty"`

	RouteMode string `json:"route_mode,omitempty"` // "per_flow" | "per_packet"
}

// Defaults are applied to any step/flow that doesn't override them.
type Defaults struct {
	MSS       int    `json:"mss,omitempty"`
	Transport string `json:"transport,omitempty"` // "tcp" | "dctcp" | "bulk"

	// InitCwndPkts and InitSsthreshPkts are spec §4.4's open(...)
	// initial_cwnd_pkts/initial_ssthresh_pkts parameters, applied to every
	// TCP/DCTCP connection this workload opens; 0 defers to the
	// congestion-control variant's own default (tcp.Reno / dctcp's).
	InitCwndPkts     int `json:"init_cwnd_pkts,omitempty"`
	InitSsthreshPkts int `json:"init_ssthresh_pkts,omitempty"`
}

// RankProgram is one rank's ordered list of steps. Rank indexes directly
// into the topology's host list.
type RankProgram struct {
	Rank  int    `json:"rank"`
	Steps []Step `json:"steps"`
}

// Step is a tagged union over the five step kinds of spec §4.7; Kind
// selects which of the other fields apply.
type Step struct {
	Kind string `json:"kind"` // compute | collective | collective_async | collective_wait | sendrecv

	// compute
	DurationNs int64 `json:"duration_ns,omitempty"`

	// collective / collective_async
	ID           string `json:"id,omitempty"`
	Op           string `json:"op,omitempty"`
	Bytes        int    `json:"bytes,omitempty"`
	Root         int    `json:"root,omitempty"`
	Participants []int  `json:"participants,omitempty"`
	Transport string `json:"transport,omitempty"`

	// collective_wait reuses ID above: it names the collective_async step
	// to block on.

	// sendrecv
	Peer int `json:"peer,omitempty"`
}

// Load reads and validates a workload document from path.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("workload: read %s: %w", path, err)
	}
	var cfg Config
	if err := json.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("workload: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes cfg back out as JSON, for the round-trip tooling spec §6
// mentions alongside the trace format.
func Save(path string, cfg *Config) error {
	b, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

// Validate checks the document against spec §7's ConfigError class: schema
// version, topology shape, and every collective op name.
func (c *Config) Validate() error {
	if c.SchemaVersion != SupportedSchemaVersion {
		return &ConfigError{fmt.Sprintf("unsupported schema_version %d (want %d)", c.SchemaVersion, SupportedSchemaVersion)}
	}
	switch c.Topology.Type {
	case "dumbbell", "fat_tree":
	default:
		return &ConfigError{fmt.Sprintf("unknown topology type %q", c.Topology.Type)}
	}
	for _, rp := range c.Ranks {
		for _, st := range rp.Steps {
			switch st.Kind {
			case "compute", "collective_wait", "sendrecv":
			case "collective", "collective_async":
				if _, err := opFromString(st.Op); err != nil {
					return err
				}
			default:
				return &ConfigError{fmt.Sprintf("rank %d: unknown step kind %q", rp.Rank, st.Kind)}
			}
		}
	}
	return nil
}

// ConfigError reports a malformed workload document (spec §7: fatal at
// load time, before any simulation time has elapsed).
type ConfigError struct{ Msg string }

func (e *ConfigError) Error() string { return "workload config error: " + e.Msg }

func opFromString(s string) (collective.Op, error) {
	switch s {
	case "allreduce":
		return collective.AllReduce, nil
	case "reduce_scatter":
		return collective.ReduceScatter, nil
	case "allgather":
		return collective.AllGather, nil
	case "alltoall":
		return collective.AllToAll, nil
	case "broadcast":
		return collective.Broadcast, nil
	default:
		return 0, &ConfigError{fmt.Sprintf("unknown collective op %q", s)}
	}
}
