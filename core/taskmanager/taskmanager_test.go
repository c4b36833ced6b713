package taskmanager

import (
	"testing"
	"time"

	"github.com/kilianp07/fleetctl/core/model"
	"github.com/kilianp07/fleetctl/core/planner"
	"github.com/kilianp07/fleetctl/core/robot"
	"github.com/kilianp07/fleetctl/core/taskplanner"
)

func newManager() *Manager {
	pl := planner.NewStaticGraph(map[string]model.Waypoint{"A": {}, "B": {}})
	tp := taskplanner.NewGreedyTaskPlanner()
	ctx := robot.New("R1", "A", "participant-1", "charger1", pl, tp)
	return New(ctx)
}

func block(ids ...string) model.AssignmentBlock {
	now := time.Now()
	b := make(model.AssignmentBlock, 0, len(ids))
	for _, id := range ids {
		b = append(b, model.Assignment{
			Request:        &model.Request{TaskID: id},
			DeploymentTime: now,
			ExpectedFinishState: model.ExpectedFinishState{
				FinishTime: now.Add(time.Minute),
				BatterySoC: 0.9,
				Location:   "B",
			},
		})
	}
	return b
}

func TestManager_EmptyQueueReflectsContextState(t *testing.T) {
	m := newManager()
	s := m.ExpectedFinishState()
	if s.Location != "A" || s.BatterySoC != 1.0 {
		t.Fatalf("expected context state, got %+v", s)
	}
}

func TestManager_SetQueueThenExpectedFinishState(t *testing.T) {
	m := newManager()
	m.SetQueue(block("Delivery0", "Loop1"), map[string]model.TaskProfile{})

	s := m.ExpectedFinishState()
	if s.Location != "B" || s.BatterySoC != 0.9 {
		t.Fatalf("expected last assignment's finish state, got %+v", s)
	}
	reqs := m.Requests()
	if len(reqs) != 2 || reqs[0].TaskID != "Delivery0" || reqs[1].TaskID != "Loop1" {
		t.Fatalf("unexpected pending requests: %+v", reqs)
	}
}

func TestManager_MarkExecutedExcludesFromRequests(t *testing.T) {
	m := newManager()
	m.SetQueue(block("Delivery0", "Loop1"), map[string]model.TaskProfile{})
	m.MarkExecuted("Delivery0")

	reqs := m.Requests()
	if len(reqs) != 1 || reqs[0].TaskID != "Loop1" {
		t.Fatalf("expected only Loop1 pending, got %+v", reqs)
	}
	if !m.ExecutedTasks()["Delivery0"] {
		t.Fatalf("expected Delivery0 marked executed")
	}
}

func TestManager_SetQueuePrunesStaleExecutedIDs(t *testing.T) {
	m := newManager()
	m.SetQueue(block("Delivery0"), map[string]model.TaskProfile{})
	m.MarkExecuted("Delivery0")
	m.SetQueue(block("Loop1"), map[string]model.TaskProfile{})

	if m.ExecutedTasks()["Delivery0"] {
		t.Fatalf("expected Delivery0 pruned after reinstall without it")
	}
}
