package network

import (
	"github.com/asu-gkg/htsim-go/kernel"
	"github.com/asu-gkg/htsim-go/queue"
)

// Link is a one-way edge from From to To. A bidirectional edge in a
// topology builder is always two Link records. BusyUntil marks the virtual
// time at which the link becomes free to start transmitting the next
// packet; it only ever moves forward.
type Link struct {
	From, To      NodeID
	LatencyNS     kernel.VirtualTime
	BandwidthBps  uint64
	Queue         *queue.Queue
	BusyUntil     kernel.VirtualTime
}

// NewLink creates a Link with the given propagation latency, bandwidth, and
// queue discipline. BusyUntil starts at zero.
func NewLink(from, to NodeID, latency kernel.VirtualTime, bandwidthBps uint64, q *queue.Queue) *Link {
	return &Link{From: from, To: to, LatencyNS: latency, BandwidthBps: bandwidthBps, Queue: q}
}

// transmitTime returns ceil(8*bytes/bandwidth) in nanoseconds, per spec §4.2
// step 5.
func (l *Link) transmitTime(bytes int) kernel.VirtualTime {
	bits := uint64(bytes) * 8
	ns := (bits*1_000_000_000 + l.BandwidthBps - 1) / l.BandwidthBps
	return kernel.VirtualTime(ns)
}
