package stats

import (
	"github.com/asu-gkg/htsim-go/viz"
)

// Collector wraps another viz.Observer, forwarding every event unchanged
// while also updating the package's Prometheus metrics and accumulating
// collective-completion records for CSV export (cmd/fctcsv).
type Collector struct {
	inner       viz.Observer
	records     []CollectiveRecord
	flowRecords []FlowRecord
}

// CollectiveRecord is one row of the FCT CSV export: one rank's completion
// of one collective instance.
type CollectiveRecord struct {
	CollectiveID string `csv:"collective_id"`
	Rank         int    `csv:"rank"`
	FCTNs        int64  `csv:"fct_ns"`
}

// FlowRecord is one row of the per-flow FCT CSV export: one TCP/DCTCP
// connection's completion.
type FlowRecord struct {
	ConnID uint64 `csv:"conn_id"`
	FCTNs  int64  `csv:"fct_ns"`
}

// NewCollector wraps inner (pass nil to only collect, emitting nothing
// further downstream).
func NewCollector(inner viz.Observer) *Collector {
	return &Collector{inner: inner}
}

// Emit implements viz.Observer.
func (c *Collector) Emit(e viz.Event) {
	switch e.Kind {
	case viz.KindDrop:
		PacketsDropped.WithLabelValues(e.DropReason).Inc()
	case viz.KindDelivered:
		PacketsDelivered.Inc()
	case viz.KindEnqueue:
		QueueOccupancyHistogram.Observe(float64(e.QBytes))
	case viz.KindTCPRTO:
		RTOCount.WithLabelValues("tcp").Inc()
	case viz.KindCollectiveDone:
		CollectiveCompletionHistogram.WithLabelValues(e.CollectiveID).Observe(float64(e.FCTNs) / 1e9)
		c.records = append(c.records, CollectiveRecord{CollectiveID: e.CollectiveID, Rank: e.Rank, FCTNs: e.FCTNs})
	case viz.KindFlowDone:
		FlowCompletionHistogram.Observe(float64(e.FCTNs) / 1e9)
		c.flowRecords = append(c.flowRecords, FlowRecord{ConnID: e.ConnID, FCTNs: e.FCTNs})
	}
	if e.Reason == "dup_ack_3" {
		FastRetransmitCount.WithLabelValues("tcp").Inc()
	}

	if c.inner != nil {
		c.inner.Emit(e)
	}
}

// Records returns every collective-completion record observed so far.
func (c *Collector) Records() []CollectiveRecord { return c.records }

// FlowRecords returns every flow-completion record observed so far.
func (c *Collector) FlowRecords() []FlowRecord { return c.flowRecords }
