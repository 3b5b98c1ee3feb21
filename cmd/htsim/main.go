// htsim runs one workload document to completion against a simulated
// topology, emitting a viz-JSON trace and per-collective FCT statistics.
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/m-lab/go/flagx"
	"github.com/m-lab/go/prometheusx"
	"github.com/m-lab/go/rtx"

	"github.com/asu-gkg/htsim-go/kernel"
	"github.com/asu-gkg/htsim-go/stats"
	"github.com/asu-gkg/htsim-go/trace"
	"github.com/asu-gkg/htsim-go/viz"
	"github.com/asu-gkg/htsim-go/workload"
)

func init() {
	// Always prepend the filename and line number.
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}

var (
	workloadPath  = flag.String("workload", "", "Path to the workload JSON document to run")
	untilMs       = flag.Int64("until-ms", 0, "Stop the simulation at this virtual time in milliseconds, 0 means run until idle")
	vizJSONPath   = flag.String("viz-json", "", "Path to write the viz event trace (.json or .json.zst); empty disables it")
	vizSocket     = flag.String("viz-socket", "", "Unix domain socket path to stream viz events live; empty disables it")
	fctStatsPath  = flag.String("fct-stats-csv", "", "Path to write per-collective FCT statistics as CSV; empty disables it")
	flowStatsPath = flag.String("flow-stats-csv", "", "Path to write per-flow FCT statistics as CSV; empty disables it")
	promPort      = flag.String("prom", ":9090", "Prometheus metrics export address and port")

	ctx, cancel = context.WithCancel(context.Background())
)

func main() {
	flag.Parse()
	rtx.Must(flagx.ArgsFromEnv(flag.CommandLine), "Could not get args from environment variables")
	defer cancel()

	if *workloadPath == "" {
		panic("-workload path is required")
	}

	promSrv := prometheusx.MustStartPrometheus(*promPort)
	defer promSrv.Shutdown(ctx)

	cfg, err := workload.Load(*workloadPath)
	rtx.Must(err, "Could not load workload %q", *workloadPath)

	rec := viz.NewRecorder()
	var sock *viz.Socket
	if *vizSocket != "" {
		sock = viz.NewSocket(*vizSocket)
		rtx.Must(sock.Listen(), "Could not listen on %q", *vizSocket)
		rec.Attach(sock)
		go func() {
			rtx.Must(sock.Serve(ctx), "viz socket serving failed")
		}()
	}

	collector := stats.NewCollector(rec)

	k := kernel.New()
	driver, err := workload.NewDriver(k, collector, cfg)
	rtx.Must(err, "Could not build driver for %q", *workloadPath)

	finished := false
	driver.Run(cfg, func(k *kernel.Kernel) { finished = true })

	if *untilMs > 0 {
		err = k.RunUntil(kernel.Milliseconds(*untilMs))
	} else {
		err = k.RunUntilIdle()
	}
	rtx.Must(err, "Simulation failed")
	if !finished {
		log.Println("htsim: stopped before every rank's program completed")
	}
	stats.SimulatedSecondsTotal.Add(float64(k.Now()) / 1e9)

	if *vizJSONPath != "" {
		meta := buildMeta(driver)
		rtx.Must(trace.WriteEvents(*vizJSONPath, meta, rec.Events()), "Could not write viz trace to %q", *vizJSONPath)
	}

	if *fctStatsPath != "" {
		rtx.Must(stats.WriteCollectiveCSV(*fctStatsPath, collector.Records()), "Could not write FCT stats to %q", *fctStatsPath)
	}
	if *flowStatsPath != "" {
		rtx.Must(stats.WriteFlowCSV(*flowStatsPath, collector.FlowRecords()), "Could not write flow stats to %q", *flowStatsPath)
	}

	os.Exit(0)
}

func buildMeta(d *workload.Driver) viz.Meta {
	net := d.Network()
	meta := viz.Meta{Kind: viz.KindMeta}
	for _, n := range net.Nodes() {
		meta.Nodes = append(meta.Nodes, viz.MetaNode{ID: uint32(n.ID), Kind: n.Role.String(), Name: n.Name})
	}
	for _, l := range net.Links() {
		meta.Links = append(meta.Links, viz.MetaLink{
			From: uint32(l.From), To: uint32(l.To),
			BandwidthBps: l.BandwidthBps, LatencyNs: int64(l.LatencyNS),
			QueueCapPkts:  capIntOrZero(l.Queue.PacketCapacity),
			QueueCapBytes: capIntOrZero(l.Queue.ByteCapacity),
		})
	}
	return meta
}

func capIntOrZero(c *int) int {
	if c == nil {
		return 0
	}
	return *c
}
