// Package taskplanner implements the TaskPlanner capability (§1, §4.5): an
// opaque combinatorial assigner producing per-robot ordered assignments with
// cost, subject to battery, navigation-graph, and time constraints. Battery
// energy modeling itself is out of scope and is represented here only by the
// simple SoC-drain accounting the params configure (§6 per-fleet task
// planner params) — the real motion/ambient/tool sinks are external
// collaborators this package only names.
package taskplanner

import (
	"time"

	"github.com/kilianp07/fleetctl/core/model"
)

// RobotState is a robot's current expected-finish state as reported by its
// TaskManager, used as the starting point for a (re-)plan.
type RobotState struct {
	RobotIndex int
	Name       string
	Location   string
	BatterySoC float64
}

// TaskPlanner is the combinatorial assignment capability consumed by
// FleetUpdateHandle.allocate_tasks (§4.5).
type TaskPlanner interface {
	// Plan computes a full re-assignment of pending requests across the
	// given robot states. It may insert automatic self-generated requests
	// (e.g. ChargeBattery) per §4.5. Returns a *model.PlannerError on
	// failure.
	Plan(now time.Time, states []RobotState, pending []*model.Request) (model.Assignments, error)

	// ComputeCost returns the total cost of an already-computed Assignments.
	ComputeCost(assignments model.Assignments) float64

	// SetParams applies per-fleet task-planner configuration. It returns
	// false if any requirement is missing or out of range (§6).
	SetParams(params Params) bool
}

// Params mirrors the per-fleet task-planner configuration named in §6.
type Params struct {
	BatterySystem          string         `json:"battery_system"`
	MotionSink             string         `json:"motion_sink"`
	AmbientSink            string         `json:"ambient_sink"`
	ToolSink               string         `json:"tool_sink"`
	RechargeThreshold      float64        `json:"recharge_threshold"` // in [0,1]
	RechargeSoC            float64        `json:"recharge_soc"`       // in [0,1]
	AccountForBatteryDrain bool           `json:"account_for_battery_drain"`
	FinishingRequest       *model.Request `json:"-"`
}

// Validate checks both recharge fields independently against [0,1].
func (p Params) Validate() bool {
	if p.BatterySystem == "" || p.MotionSink == "" {
		return false
	}
	if p.RechargeThreshold < 0 || p.RechargeThreshold > 1 {
		return false
	}
	if p.RechargeSoC < 0 || p.RechargeSoC > 1 {
		return false
	}
	return true
}
