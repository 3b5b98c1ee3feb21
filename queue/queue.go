// Package queue implements the drop-tail FIFO queue discipline used by every
// link: two optional capacities (bytes and packets), plus an ECN marking
// threshold. See spec §4.3.
package queue

// Queue is a drop-tail FIFO with byte and/or packet capacity accounting and
// an optional ECN marking threshold. A nil capacity pointer means that
// dimension is unlimited.
type Queue struct {
	ByteCapacity   *int // optional
	PacketCapacity *int // optional
	ECNThreshold   int  // packets; only consulted when ECNEnabled
	ECNEnabled     bool

	curBytes   int
	curPackets int
	peakBytes  int
	peakPackets int
}

// New creates a Queue with the given optional capacities. Pass nil for an
// unlimited dimension.
func New(byteCapacity, packetCapacity *int, ecnThreshold int, ecnEnabled bool) *Queue {
	return &Queue{
		ByteCapacity:   byteCapacity,
		PacketCapacity: packetCapacity,
		ECNThreshold:   ecnThreshold,
		ECNEnabled:     ecnEnabled,
	}
}

// Result is the outcome of an Enqueue call.
type Result struct {
	Accepted  bool
	ECNMarked bool
}

// Enqueue attempts to add one packet of the given byte size. If doing so
// would push either capacity above its limit, the packet is dropped and
// Result.Accepted is false. Otherwise it is accepted, and marked CE
// (Result.ECNMarked) if, after insertion, the packet count is at or above
// ECNThreshold and ECN is enabled.
func (q *Queue) Enqueue(bytes int) Result {
	if q.PacketCapacity != nil && q.curPackets+1 > *q.PacketCapacity {
		return Result{Accepted: false}
	}
	if q.ByteCapacity != nil && q.curBytes+bytes > *q.ByteCapacity {
		return Result{Accepted: false}
	}
	q.curBytes += bytes
	q.curPackets++
	if q.curBytes > q.peakBytes {
		q.peakBytes = q.curBytes
	}
	if q.curPackets > q.peakPackets {
		q.peakPackets = q.curPackets
	}
	marked := q.ECNEnabled && q.curPackets >= q.ECNThreshold
	return Result{Accepted: true, ECNMarked: marked}
}

// Dequeue removes one packet of the given byte size from the head of the
// queue, decrementing both counters. Peak trackers are never decremented:
// they are monotonically non-decreasing for statistics.
func (q *Queue) Dequeue(bytes int) {
	q.curBytes -= bytes
	q.curPackets--
	if q.curBytes < 0 {
		q.curBytes = 0
	}
	if q.curPackets < 0 {
		q.curPackets = 0
	}
}

// CurrentBytes returns the number of bytes currently queued.
func (q *Queue) CurrentBytes() int { return q.curBytes }

// CurrentPackets returns the number of packets currently queued.
func (q *Queue) CurrentPackets() int { return q.curPackets }

// PeakBytes returns the high-water mark of CurrentBytes observed so far.
func (q *Queue) PeakBytes() int { return q.peakBytes }

// PeakPackets returns the high-water mark of CurrentPackets observed so far.
func (q *Queue) PeakPackets() int { return q.peakPackets }
