package queue

import "testing"

func TestPlainDropTail(t *testing.T) {
	cap := 4
	q := New(nil, &cap, cap, false) // K == capacity: plain drop-tail, no ECN
	for i := 0; i < 4; i++ {
		r := q.Enqueue(1500)
		if !r.Accepted || r.ECNMarked {
			t.Fatalf("packet %d: got %+v, want accepted, unmarked", i, r)
		}
	}
	r := q.Enqueue(1500)
	if r.Accepted {
		t.Fatalf("5th packet should be dropped at capacity 4")
	}
}

func TestECNMarkingAtThreshold(t *testing.T) {
	byteCap := 1 << 20
	pktCap := 100
	q := New(&byteCap, &pktCap, 4, true)
	for i := 0; i < 3; i++ {
		r := q.Enqueue(1000)
		if r.ECNMarked {
			t.Fatalf("packet %d marked before reaching K=4", i)
		}
	}
	r := q.Enqueue(1000) // 4th packet: curPackets becomes 4 == K
	if !r.Accepted || !r.ECNMarked {
		t.Fatalf("4th packet: got %+v, want accepted and ECN marked", r)
	}
}

func TestDequeueDecrementsCounts(t *testing.T) {
	pktCap := 10
	q := New(nil, &pktCap, 10, false)
	q.Enqueue(1500)
	q.Enqueue(1500)
	if q.CurrentPackets() != 2 || q.CurrentBytes() != 3000 {
		t.Fatalf("after 2 enqueues: packets=%d bytes=%d", q.CurrentPackets(), q.CurrentBytes())
	}
	q.Dequeue(1500)
	if q.CurrentPackets() != 1 || q.CurrentBytes() != 1500 {
		t.Fatalf("after dequeue: packets=%d bytes=%d", q.CurrentPackets(), q.CurrentBytes())
	}
	if q.PeakPackets() != 2 || q.PeakBytes() != 3000 {
		t.Fatalf("peaks should not decrease: peakPackets=%d peakBytes=%d", q.PeakPackets(), q.PeakBytes())
	}
}

func TestByteCapacityDrop(t *testing.T) {
	byteCap := 2000
	q := New(&byteCap, nil, 0, false)
	r1 := q.Enqueue(1500)
	if !r1.Accepted {
		t.Fatalf("first 1500B packet should fit in a 2000B queue")
	}
	r2 := q.Enqueue(1500)
	if r2.Accepted {
		t.Fatalf("second 1500B packet should overflow a 2000B byte capacity")
	}
}
