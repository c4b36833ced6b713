package taskplanner

import (
	"errors"
	"testing"
	"time"

	"github.com/kilianp07/fleetctl/core/model"
)

func deliveryReq(id string, priority model.Priority) *model.Request {
	return &model.Request{
		TaskID:   id,
		Type:     model.TaskDelivery,
		Priority: priority,
		Delivery: &model.ResolvedDelivery{
			PickupWaypoint:  "P",
			DropoffWaypoint: "D",
		},
	}
}

func TestGreedyTaskPlanner_AssignsEachRequestOnce(t *testing.T) {
	g := NewGreedyTaskPlanner()
	if !g.SetParams(Params{BatterySystem: "generic", MotionSink: "generic"}) {
		t.Fatalf("expected valid params to be accepted")
	}

	states := []RobotState{
		{RobotIndex: 0, Name: "r0", Location: "A", BatterySoC: 1.0},
		{RobotIndex: 1, Name: "r1", Location: "B", BatterySoC: 1.0},
	}
	pending := []*model.Request{deliveryReq("Delivery0", model.PriorityLow)}

	now := time.Now()
	assignments, err := g.Plan(now, states, pending)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(assignments) != 2 {
		t.Fatalf("expected one block per robot, got %d", len(assignments))
	}
	total := 0
	for _, block := range assignments {
		total += len(block)
	}
	if total != 1 {
		t.Fatalf("expected exactly one assignment, got %d", total)
	}
}

func TestGreedyTaskPlanner_LowBatteryInfeasible(t *testing.T) {
	g := NewGreedyTaskPlanner()
	g.SetParams(Params{
		BatterySystem:          "generic",
		MotionSink:             "generic",
		RechargeThreshold:      0.3,
		AccountForBatteryDrain: true,
	})

	states := []RobotState{{RobotIndex: 0, Name: "r0", Location: "A", BatterySoC: 0.1}}
	pending := []*model.Request{deliveryReq("Delivery0", model.PriorityLow)}

	_, err := g.Plan(time.Now(), states, pending)
	var perr *model.PlannerError
	if !errors.As(err, &perr) {
		t.Fatalf("expected a *model.PlannerError, got %v", err)
	}
	if perr.Kind != model.PlannerLowBattery {
		t.Fatalf("expected PlannerLowBattery, got %v", perr.Kind)
	}
}

func TestGreedyTaskPlanner_NoRobots(t *testing.T) {
	g := NewGreedyTaskPlanner()
	_, err := g.Plan(time.Now(), nil, []*model.Request{deliveryReq("Delivery0", model.PriorityLow)})
	if err == nil {
		t.Fatalf("expected an error with no robots")
	}
}

