package taskplanner

import (
	"time"

	"github.com/kilianp07/fleetctl/core/model"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

// bigM marks an infeasible robot/request pairing in the LP cost matrix: the
// pairing stays in the LP but at a cost large enough that the solver
// avoids it whenever a feasible robot has capacity left.
const bigM = 1e9

// LPTaskPlanner solves a linear program that redistributes every pending
// request across the available robots, minimizing total assignment cost
// subject to a per-robot capacity balance and battery feasibility. It falls
// back to GreedyTaskPlanner when the LP is infeasible, mirroring
// LPDispatcher.Dispatch's fallback to SmartDispatcher.
type LPTaskPlanner struct {
	params   Params
	fallback *GreedyTaskPlanner
}

// NewLPTaskPlanner returns an LP-backed planner with a greedy fallback.
func NewLPTaskPlanner() *LPTaskPlanner {
	return &LPTaskPlanner{fallback: NewGreedyTaskPlanner()}
}

// lpSolve points to the function used to solve the LP; overridable in tests
// to simulate solver failures, mirroring the teacher's lpSolve var.
var lpSolve = solveAssignmentLP

func solveAssignmentLP(costs [][]float64, capacities []float64) ([]float64, error) {
	nTasks := len(costs)
	if nTasks == 0 {
		return nil, nil
	}
	nRobots := len(costs[0])
	n := nTasks * nRobots

	c := make([]float64, n)
	for t := 0; t < nTasks; t++ {
		for r := 0; r < nRobots; r++ {
			c[t*nRobots+r] = costs[t][r]
		}
	}

	// Equality: each task assigned with total weight 1 across robots.
	A := mat.NewDense(nTasks, n, nil)
	b := make([]float64, nTasks)
	for t := 0; t < nTasks; t++ {
		for r := 0; r < nRobots; r++ {
			A.Set(t, t*nRobots+r, 1)
		}
		b[t] = 1
	}

	// Inequality: each robot's total assigned weight stays under capacity.
	G := mat.NewDense(nRobots, n, nil)
	h := make([]float64, nRobots)
	for r := 0; r < nRobots; r++ {
		for t := 0; t < nTasks; t++ {
			G.Set(r, t*nRobots+r, 1)
		}
		h[r] = capacities[r]
	}

	cStd, AStd, bStd := lp.Convert(c, G, h, A, b)
	_, sol, err := lp.Simplex(cStd, AStd, bStd, 1e-7, nil)
	return sol, err
}

// SetParams implements TaskPlanner.
func (p *LPTaskPlanner) SetParams(params Params) bool {
	if !params.Validate() {
		return false
	}
	p.params = params
	p.fallback.SetParams(params)
	return true
}

// Plan implements TaskPlanner.
func (p *LPTaskPlanner) Plan(now time.Time, states []RobotState, pending []*model.Request) (model.Assignments, error) {
	if len(states) == 0 {
		return nil, &model.PlannerError{Kind: model.PlannerOther, Err: model.ErrNoRobots}
	}
	if len(pending) == 0 {
		return make(model.Assignments, len(states)), nil
	}

	costs := make([][]float64, len(pending))
	anyFeasible := make([]bool, len(pending))
	for t, req := range pending {
		row := make([]float64, len(states))
		for r, s := range states {
			if p.feasible(s, req) {
				row[r] = assignmentCost(s, req)
				anyFeasible[t] = true
			} else {
				row[r] = bigM
			}
		}
		costs[t] = row
	}
	for _, ok := range anyFeasible {
		if !ok {
			return p.fallback.Plan(now, states, pending)
		}
	}

	capacity := float64(len(pending))/float64(len(states)) + 1
	capacities := make([]float64, len(states))
	for i := range capacities {
		capacities[i] = capacity
	}

	sol, err := lpSolve(costs, capacities)
	if err != nil {
		return p.fallback.Plan(now, states, pending)
	}

	assignment := make([]int, len(pending))
	for t := range pending {
		best, bestVal := 0, -1.0
		for r := range states {
			v := sol[t*len(states)+r]
			if v > bestVal {
				bestVal, best = v, r
			}
		}
		assignment[t] = best
	}

	return buildAssignments(now, states, pending, assignment), nil
}

func (p *LPTaskPlanner) feasible(s RobotState, r *model.Request) bool {
	if !p.params.AccountForBatteryDrain {
		return true
	}
	floor := p.params.RechargeThreshold
	return s.BatterySoC-requestDrain(r) >= floor
}

// ComputeCost implements TaskPlanner.
func (p *LPTaskPlanner) ComputeCost(assignments model.Assignments) float64 {
	var total float64
	for _, block := range assignments {
		for i, a := range block {
			if a.Request == nil {
				continue
			}
			var prevSoC float64 = 1
			if i > 0 {
				prevSoC = block[i-1].ExpectedFinishState.BatterySoC
			}
			total += assignmentCost(RobotState{BatterySoC: prevSoC}, a.Request)
		}
	}
	return total
}

// buildAssignments sequences the chosen task->robot mapping into ordered,
// per-robot AssignmentBlocks with cascading deployment times and expected
// finish states.
func buildAssignments(now time.Time, states []RobotState, pending []*model.Request, assignment []int) model.Assignments {
	out := make(model.Assignments, len(states))
	cursor := make([]time.Time, len(states))
	soc := make([]float64, len(states))
	loc := make([]string, len(states))
	for i, s := range states {
		cursor[i] = now
		soc[i] = s.BatterySoC
		loc[i] = s.Location
	}
	for t, req := range pending {
		r := assignment[t]
		dur := requestDuration(req)
		finish := cursor[r].Add(dur)
		soc[r] -= requestDrain(req)
		if soc[r] < 0 {
			soc[r] = 0
		}
		if dest := requestDestination(req); dest != "" {
			loc[r] = dest
		}
		out[r] = append(out[r], model.Assignment{
			Request:        req,
			DeploymentTime: cursor[r],
			ExpectedFinishState: model.ExpectedFinishState{
				FinishTime: finish,
				BatterySoC: soc[r],
				Location:   loc[r],
			},
		})
		cursor[r] = finish
	}
	return out
}
