package fleet

import (
	"sync/atomic"

	"github.com/kilianp07/fleetctl/core/planner"
	"github.com/kilianp07/fleetctl/core/taskplanner"
)

// plannerBox and taskPlannerBox hold the Handle's own copy-on-write
// snapshot references (§5 "Shared-resource policy"), mirroring the same
// atomic.Pointer idiom core/robot.Context uses for its per-robot copies.

type plannerBox struct {
	ptr atomic.Pointer[planner.Planner]
}

func (b *plannerBox) store(p planner.Planner) { b.ptr.Store(&p) }

func (b *plannerBox) load() planner.Planner {
	if p := b.ptr.Load(); p != nil {
		return *p
	}
	return nil
}

type taskPlannerBox struct {
	ptr atomic.Pointer[taskplanner.TaskPlanner]
}

func (b *taskPlannerBox) store(p taskplanner.TaskPlanner) { b.ptr.Store(&p) }

func (b *taskPlannerBox) load() taskplanner.TaskPlanner {
	if p := b.ptr.Load(); p != nil {
		return *p
	}
	return nil
}
