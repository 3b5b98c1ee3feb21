package kernel

import "testing"

func TestScheduleFIFOAtSameTime(t *testing.T) {
	k := New()
	var order []int
	for i := 0; i < 5; i++ {
		i := i
		k.Schedule(100, func(k *Kernel) { order = append(order, i) })
	}
	if err := k.RunUntilIdle(); err != nil {
		t.Fatalf("RunUntilIdle: %v", err)
	}
	for i, v := range order {
		if v != i {
			t.Fatalf("order = %v, want ties to run in insertion order", order)
		}
	}
}

func TestRunUntilStopsAtLimit(t *testing.T) {
	k := New()
	ran := false
	k.Schedule(500, func(k *Kernel) { ran = true })
	if err := k.RunUntil(100); err != nil {
		t.Fatalf("RunUntil: %v", err)
	}
	if ran {
		t.Fatalf("event at t=500 should not have run by limit 100")
	}
	if k.Now() != 100 {
		t.Fatalf("Now() = %v, want 100", k.Now())
	}
	if err := k.RunUntil(500); err != nil {
		t.Fatalf("RunUntil: %v", err)
	}
	if !ran {
		t.Fatalf("event at t=500 should have run by limit 500")
	}
}

func TestStrictTimeOrder(t *testing.T) {
	k := New()
	var order []VirtualTime
	k.Schedule(300, func(k *Kernel) { order = append(order, k.Now()) })
	k.Schedule(100, func(k *Kernel) { order = append(order, k.Now()) })
	k.Schedule(200, func(k *Kernel) { order = append(order, k.Now()) })
	if err := k.RunUntilIdle(); err != nil {
		t.Fatalf("RunUntilIdle: %v", err)
	}
	want := []VirtualTime{100, 200, 300}
	for i, v := range want {
		if order[i] != v {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestEventSchedulingFurtherEventsAtNow(t *testing.T) {
	k := New()
	var order []string
	k.Schedule(0, func(k *Kernel) {
		order = append(order, "a")
		k.Schedule(k.Now(), func(k *Kernel) { order = append(order, "a-child") })
	})
	k.Schedule(0, func(k *Kernel) { order = append(order, "b") })
	if err := k.RunUntilIdle(); err != nil {
		t.Fatalf("RunUntilIdle: %v", err)
	}
	want := []string{"a", "b", "a-child"}
	for i, v := range want {
		if order[i] != v {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestScheduleInPastIsInvariantViolation(t *testing.T) {
	k := New()
	k.Schedule(100, func(k *Kernel) {
		k.Schedule(k.Now()-1, func(k *Kernel) {})
	})
	err := k.RunUntilIdle()
	if err == nil {
		t.Fatalf("expected InvariantViolation error")
	}
	var iv *InvariantViolation
	if !asInvariantViolation(err, &iv) {
		t.Fatalf("err = %v (%T), want *InvariantViolation", err, err)
	}
}

func asInvariantViolation(err error, out **InvariantViolation) bool {
	v, ok := err.(*InvariantViolation)
	if ok {
		*out = v
	}
	return ok
}
