package taskplanner

import (
	"time"

	"github.com/kilianp07/fleetctl/core/model"
)

// GreedyTaskPlanner assigns each pending request to whichever robot can
// currently serve it most cheaply, in request order, mirroring the teacher's
// SmartDispatcher weighted-greedy scorer used when the LP has no solution.
type GreedyTaskPlanner struct {
	params Params
}

// NewGreedyTaskPlanner returns a planner that never fails the LP solve
// because it never attempts one.
func NewGreedyTaskPlanner() *GreedyTaskPlanner {
	return &GreedyTaskPlanner{}
}

func (g *GreedyTaskPlanner) SetParams(params Params) bool {
	if !params.Validate() {
		return false
	}
	g.params = params
	return true
}

func (g *GreedyTaskPlanner) Plan(now time.Time, states []RobotState, pending []*model.Request) (model.Assignments, error) {
	if len(states) == 0 {
		return nil, &model.PlannerError{Kind: model.PlannerOther, Err: model.ErrNoRobots}
	}

	cursor := make([]time.Time, len(states))
	soc := make([]float64, len(states))
	loc := make([]string, len(states))
	load := make([]int, len(states))
	for i, s := range states {
		cursor[i] = now
		soc[i] = s.BatterySoC
		loc[i] = s.Location
	}

	out := make(model.Assignments, len(states))
	for _, req := range pending {
		best := -1
		bestScore := 0.0
		for i := range states {
			if g.params.AccountForBatteryDrain && soc[i]-requestDrain(req) < g.params.RechargeThreshold {
				continue
			}
			score := assignmentCost(RobotState{BatterySoC: soc[i]}, req) + float64(load[i])*0.01
			if best == -1 || score < bestScore {
				best, bestScore = i, score
			}
		}
		if best == -1 {
			return nil, &model.PlannerError{Kind: model.PlannerLowBattery, Err: model.ErrNoRobots}
		}

		dur := requestDuration(req)
		finish := cursor[best].Add(dur)
		soc[best] -= requestDrain(req)
		if soc[best] < 0 {
			soc[best] = 0
		}
		if dest := requestDestination(req); dest != "" {
			loc[best] = dest
		}
		out[best] = append(out[best], model.Assignment{
			Request:        req,
			DeploymentTime: cursor[best],
			ExpectedFinishState: model.ExpectedFinishState{
				FinishTime: finish,
				BatterySoC: soc[best],
				Location:   loc[best],
			},
		})
		cursor[best] = finish
		load[best]++
	}
	return out, nil
}

func (g *GreedyTaskPlanner) ComputeCost(assignments model.Assignments) float64 {
	var total float64
	for _, block := range assignments {
		for i, a := range block {
			if a.Request == nil {
				continue
			}
			prevSoC := 1.0
			if i > 0 {
				prevSoC = block[i-1].ExpectedFinishState.BatterySoC
			}
			total += assignmentCost(RobotState{BatterySoC: prevSoC}, a.Request)
		}
	}
	return total
}
