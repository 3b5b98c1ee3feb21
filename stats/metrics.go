// Package stats defines the simulator's Prometheus metrics (exported while
// a run is in progress, in the teacher's promauto style) and the
// flow/collective-completion-time aggregation that feeds the CSV export in
// cmd/fctcsv, grounded on the teacher's metrics.go and cmd/csvtool.
package stats

import (
	"math"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PacketsDelivered counts every packet that reached its destination.
	PacketsDelivered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "htsim_packets_delivered_total",
		Help: "Total packets delivered to their destination host.",
	})

	// PacketsDropped counts drops, labeled by reason (no_route, no_link,
	// ttl, queue_full).
	PacketsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "htsim_packets_dropped_total",
		Help: "Total packets dropped, by reason.",
	}, []string{"reason"})

	// QueueOccupancyHistogram tracks queue depth samples taken at enqueue
	// time, in bytes.
	QueueOccupancyHistogram = promauto.NewHistogram(prometheus.HistogramOpts{
		Name: "htsim_queue_occupancy_bytes",
		Help: "Queue occupancy in bytes observed at enqueue time.",
		Buckets: []float64{
			1 << 10, 1 << 12, 1 << 14, 1 << 16, 1 << 18, 1 << 20, 1 << 22, 1 << 24,
			math.Inf(+1),
		},
	})

	// RTOCount counts RTO firings, by transport.
	RTOCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "htsim_tcp_rto_total",
		Help: "Total retransmit-timeout firings, by transport.",
	}, []string{"transport"})

	// FastRetransmitCount counts triple-duplicate-ack fast retransmits.
	FastRetransmitCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "htsim_tcp_fast_retransmit_total",
		Help: "Total fast retransmits, by transport.",
	}, []string{"transport"})

	// FlowCompletionHistogram tracks completed-flow FCT, in seconds.
	FlowCompletionHistogram = promauto.NewHistogram(prometheus.HistogramOpts{
		Name: "htsim_flow_completion_seconds",
		Help: "Flow completion time distribution, in seconds.",
		Buckets: []float64{
			0.00001, 0.0001, 0.001, 0.01, 0.1, 1, 10, 100,
		},
	})

	// CollectiveCompletionHistogram tracks completed-collective FCT, in
	// seconds. Collector sets its "op" label to the collective's id, not to
	// its operation kind.
	CollectiveCompletionHistogram = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "htsim_collective_completion_seconds",
		Help: "Collective completion time distribution, in seconds, by collective id.",
		Buckets: []float64{
			0.00001, 0.0001, 0.001, 0.01, 0.1, 1, 10, 100,
		},
	}, []string{"op"})

	// SimulatedSecondsTotal tracks how far virtual time has advanced across
	// the process lifetime (useful alongside wall-clock run duration to
	// judge simulator throughput).
	SimulatedSecondsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "htsim_simulated_seconds_total",
		Help: "Total virtual simulation time advanced, in seconds.",
	})
)
