package taskplanner

import (
	"errors"
	"testing"
	"time"

	"github.com/kilianp07/fleetctl/core/model"
)

func TestLPTaskPlanner_AssignsEveryPendingRequest(t *testing.T) {
	p := NewLPTaskPlanner()
	if !p.SetParams(Params{BatterySystem: "generic", MotionSink: "generic"}) {
		t.Fatalf("expected valid params to be accepted")
	}

	states := []RobotState{
		{RobotIndex: 0, Name: "r0", Location: "A", BatterySoC: 1.0},
		{RobotIndex: 1, Name: "r1", Location: "A", BatterySoC: 1.0},
	}
	pending := []*model.Request{
		deliveryReq("Delivery0", model.PriorityLow),
		deliveryReq("Delivery1", model.PriorityLow),
	}

	assignments, err := p.Plan(time.Now(), states, pending)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	total := 0
	for _, block := range assignments {
		total += len(block)
	}
	if total != len(pending) {
		t.Fatalf("expected %d assignments, got %d", len(pending), total)
	}
}

func TestLPTaskPlanner_FallsBackWhenAllInfeasible(t *testing.T) {
	p := NewLPTaskPlanner()
	p.SetParams(Params{
		BatterySystem:          "generic",
		MotionSink:             "generic",
		RechargeThreshold:      0.9,
		AccountForBatteryDrain: true,
	})

	states := []RobotState{{RobotIndex: 0, Name: "r0", Location: "A", BatterySoC: 0.1}}
	pending := []*model.Request{deliveryReq("Delivery0", model.PriorityLow)}

	_, err := p.Plan(time.Now(), states, pending)
	var perr *model.PlannerError
	if !errors.As(err, &perr) {
		t.Fatalf("expected a *model.PlannerError, got %v", err)
	}
}

func TestLPTaskPlanner_FallsBackOnSolverError(t *testing.T) {
	orig := lpSolve
	defer func() { lpSolve = orig }()
	lpSolve = func(costs [][]float64, capacities []float64) ([]float64, error) {
		return nil, errors.New("infeasible")
	}

	p := NewLPTaskPlanner()
	p.SetParams(Params{BatterySystem: "generic", MotionSink: "generic"})

	states := []RobotState{{RobotIndex: 0, Name: "r0", Location: "A", BatterySoC: 1.0}}
	pending := []*model.Request{deliveryReq("Delivery0", model.PriorityLow)}

	assignments, err := p.Plan(time.Now(), states, pending)
	if err != nil {
		t.Fatalf("unexpected error, fallback should have handled it: %v", err)
	}
	if len(assignments[0]) != 1 {
		t.Fatalf("expected fallback to assign the pending request")
	}
}

func TestLPTaskPlanner_SetParamsRejectsInvalid(t *testing.T) {
	p := NewLPTaskPlanner()
	if p.SetParams(Params{RechargeThreshold: 2}) {
		t.Fatalf("expected invalid params to be rejected")
	}
}

func TestLPTaskPlanner_NoPendingReturnsEmptyBlocks(t *testing.T) {
	p := NewLPTaskPlanner()
	p.SetParams(Params{BatterySystem: "generic", MotionSink: "generic"})
	states := []RobotState{{RobotIndex: 0, Name: "r0"}}
	assignments, err := p.Plan(time.Now(), states, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(assignments) != 1 || len(assignments[0]) != 0 {
		t.Fatalf("expected one empty block, got %v", assignments)
	}
}
