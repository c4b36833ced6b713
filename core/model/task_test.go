package model

import "testing"

func TestTaskState_CanTransition(t *testing.T) {
	cases := []struct {
		from, to TaskState
		want     bool
	}{
		{TaskPending, TaskQueued, true},
		{TaskPending, TaskCanceled, true},
		{TaskPending, TaskFailed, true},
		{TaskPending, TaskActive, false},
		{TaskQueued, TaskActive, true},
		{TaskQueued, TaskCanceled, true},
		{TaskActive, TaskCompleted, true},
		{TaskActive, TaskCanceled, false},
		{TaskCompleted, TaskActive, false},
	}
	for _, c := range cases {
		if got := c.from.CanTransition(c.to); got != c.want {
			t.Errorf("%s -> %s: got %v want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestTaskState_Terminal(t *testing.T) {
	for _, s := range []TaskState{TaskCompleted, TaskFailed, TaskCanceled} {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range []TaskState{TaskPending, TaskQueued, TaskActive} {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestTaskStatus_Transition(t *testing.T) {
	st := TaskStatus{State: TaskPending, TaskProfile: TaskProfile{TaskID: "Delivery0"}}
	if err := st.Transition(TaskQueued); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.State != TaskQueued {
		t.Fatalf("expected Queued, got %s", st.State)
	}
	if err := st.Transition(TaskCompleted); err == nil {
		t.Fatalf("expected error transitioning Queued -> Completed")
	}
}

func TestPriorityFromValue(t *testing.T) {
	if PriorityFromValue(1) != PriorityHigh {
		t.Fatalf("expected high")
	}
	if PriorityFromValue(0) != PriorityLow {
		t.Fatalf("expected low for zero")
	}
	if PriorityFromValue(-1) != PriorityLow {
		t.Fatalf("expected low for negative")
	}
}

func TestParseTaskType(t *testing.T) {
	tt, ok := ParseTaskType("Delivery")
	if !ok || tt != TaskDelivery {
		t.Fatalf("expected TaskDelivery, got %v ok=%v", tt, ok)
	}
	if _, ok := ParseTaskType("Bogus"); ok {
		t.Fatalf("expected unknown type to fail")
	}
}

func TestAssignments_Find(t *testing.T) {
	as := Assignments{
		{{Request: &Request{TaskID: "Delivery0"}}},
		{{Request: &Request{TaskID: "Loop1"}}, {Request: &Request{TaskID: "Clean2"}}},
	}
	ri, bi, ok := as.Find("Clean2")
	if !ok || ri != 1 || bi != 1 {
		t.Fatalf("expected (1,1), got (%d,%d,%v)", ri, bi, ok)
	}
	if _, _, ok := as.Find("missing"); ok {
		t.Fatalf("expected not found")
	}
}
