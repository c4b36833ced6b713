package negotiator

import (
	"testing"
	"time"

	"github.com/kilianp07/fleetctl/core/clock"
)

type recordingNegotiator struct{ calls int }

func (r *recordingNegotiator) Respond(ScheduleView, Responder) { r.calls++ }

type fakeResponder struct{}

func (fakeResponder) Accept()              {}
func (fakeResponder) Reject(reason string) {}

func TestRegistry_ForwardsWhileAlive(t *testing.T) {
	c := clock.NewFakeClock(time.Unix(0, 0))
	reg := NewRegistry(c)
	neg := &recordingNegotiator{}
	alive := true
	l := reg.Register("p1", neg, func() bool { return alive })

	l.Respond(ScheduleView{ParticipantID: "p1"}, fakeResponder{})
	if neg.calls != 1 {
		t.Fatalf("expected 1 call, got %d", neg.calls)
	}

	alive = false
	l.Respond(ScheduleView{ParticipantID: "p1"}, fakeResponder{})
	if neg.calls != 1 {
		t.Fatalf("expected forfeit after context dropped, got %d calls", neg.calls)
	}
}

func TestLiaison_InterruptRateLimited(t *testing.T) {
	c := clock.NewFakeClock(time.Unix(0, 0))
	reg := NewRegistry(c)
	l := reg.Register("p1", &recordingNegotiator{}, func() bool { return true })

	fired := 0
	fn := func() { fired++ }

	l.Interrupt(fn)
	l.Interrupt(fn)
	if fired != 1 {
		t.Fatalf("expected second interrupt within window to be suppressed, got %d", fired)
	}

	c.Advance(11 * time.Second)
	l.Interrupt(fn)
	if fired != 2 {
		t.Fatalf("expected interrupt after window to fire, got %d", fired)
	}
}

func TestRegistry_UnregisterRemovesLiaison(t *testing.T) {
	c := clock.NewFakeClock(time.Unix(0, 0))
	reg := NewRegistry(c)
	reg.Register("p1", &recordingNegotiator{}, func() bool { return true })
	reg.Unregister("p1")
	if _, ok := reg.Liaison("p1"); ok {
		t.Fatalf("expected liaison to be removed")
	}
}
