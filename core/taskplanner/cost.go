package taskplanner

import (
	"time"

	"github.com/kilianp07/fleetctl/core/model"
)

// baseDrain is the fraction of battery SoC a single task is assumed to
// consume before any per-type or distance weighting, mirroring the
// teacher's EffectiveCapacity's use of a flat SoC floor (core/model/vehicle.go).
const baseDrain = 0.05

// requestDrain estimates the battery SoC fraction a request consumes.
func requestDrain(r *model.Request) float64 {
	switch r.Type {
	case model.TaskChargeBattery:
		return 0
	case model.TaskLoop:
		if r.Loop != nil && r.Loop.NumLoops > 1 {
			return baseDrain * float64(r.Loop.NumLoops)
		}
		return baseDrain
	default:
		return baseDrain
	}
}

// requestDuration estimates how long a request will take to execute. This
// stands in for the trajectory-interpolation/time-estimation external
// capability (§1 Out of scope); it is deliberately coarse.
func requestDuration(r *model.Request) time.Duration {
	switch r.Type {
	case model.TaskLoop:
		n := 1
		if r.Loop != nil && r.Loop.NumLoops > 0 {
			n = r.Loop.NumLoops
		}
		return time.Duration(n) * 2 * time.Minute
	case model.TaskClean:
		if r.Clean != nil {
			return time.Duration(len(r.Clean.Trajectory)) * 30 * time.Second
		}
		return 2 * time.Minute
	case model.TaskChargeBattery:
		return 20 * time.Minute
	default:
		return 5 * time.Minute
	}
}

// requestDestination returns the location a robot ends up at after
// executing the request.
func requestDestination(r *model.Request) string {
	switch r.Type {
	case model.TaskClean:
		if r.Clean != nil {
			return r.Clean.FinishWaypoint
		}
	case model.TaskDelivery:
		if r.Delivery != nil {
			return r.Delivery.DropoffWaypoint
		}
	case model.TaskLoop:
		if r.Loop != nil {
			return r.Loop.FinishWaypoint
		}
	}
	return ""
}

// assignmentCost is the scalar cost of deploying request r on a robot whose
// current state is s, used both by the LP objective and by ComputeCost.
// Lower is better. High-priority requests are discounted so the optimizer
// prefers them when a robot could serve either.
func assignmentCost(s RobotState, r *model.Request) float64 {
	cost := requestDuration(r).Minutes()
	if r.Priority == model.PriorityHigh {
		cost *= 0.5
	}
	return cost
}
