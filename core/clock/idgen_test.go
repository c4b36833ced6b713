package clock

import "testing"

func TestTaskIDCounter_PerTypeMonotonic(t *testing.T) {
	c := NewTaskIDCounter()
	if got := c.Next("Delivery"); got != "Delivery0" {
		t.Fatalf("got %s", got)
	}
	if got := c.Next("Delivery"); got != "Delivery1" {
		t.Fatalf("got %s", got)
	}
	if got := c.Next("Loop"); got != "Loop0" {
		t.Fatalf("expected independent counter per type, got %s", got)
	}
	if got := c.Next("Delivery"); got != "Delivery2" {
		t.Fatalf("got %s", got)
	}
}

func TestFakeClockAdvance(t *testing.T) {
	base := RealClock{}.Now()
	fc := NewFakeClock(base)
	if fc.Now() != base {
		t.Fatalf("expected base time")
	}
	next := fc.Advance(5)
	if next != fc.Now() {
		t.Fatalf("advance should update Now()")
	}
}
