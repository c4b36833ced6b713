package fleet

import (
	"github.com/kilianp07/fleetctl/core/model"
	"github.com/kilianp07/fleetctl/core/taskplanner"
)

// Config describes one fleet's static wiring: its navigation graph, its
// charger candidates, and its task-planner parameters (§6).
type Config struct {
	Name              string                  `json:"name"`
	Waypoints         map[string]model.Waypoint `json:"waypoints"`
	ChargerCandidates []string                `json:"charger_candidates"`
	TaskPlannerKind   string                  `json:"task_planner_kind"` // "lp" or "greedy"
	TaskPlanner       taskplanner.Params      `json:"task_planner"`
	RobotStarts       []string                `json:"robot_starts"` // initial robots, one per start waypoint
}
