package fleet

import (
	"github.com/kilianp07/fleetctl/core/model"
	"github.com/kilianp07/fleetctl/core/taskplanner"
)

// allocateTasks re-plans the union of pending requests across all
// TaskManagers, optionally prepending newReq and/or dropping the first
// pending entry matching ignore's id (§4.5). Must run on the worker.
func (h *Handle) allocateTasks(newReq, ignore *model.Request) (model.Assignments, bool) {
	states := make([]taskplanner.RobotState, len(h.taskManagers))
	var pending []*model.Request
	for i, tm := range h.taskManagers {
		s := tm.ExpectedFinishState()
		s.RobotIndex = i
		states[i] = s
		pending = append(pending, tm.Requests()...)
	}

	if newReq != nil {
		pending = append([]*model.Request{newReq}, pending...)
	}
	if ignore != nil {
		removed := false
		filtered := pending[:0:0]
		for _, r := range pending {
			if !removed && r.TaskID == ignore.TaskID {
				removed = true
				continue
			}
			filtered = append(filtered, r)
		}
		if !removed {
			h.log.Warnf("allocate_tasks: ignore request %s not found among pending requests", ignore.TaskID)
		}
		pending = filtered
	}

	assignments, err := h.taskPlanner().Plan(h.clk.Now(), states, pending)
	if err != nil {
		h.log.Warnf("allocate_tasks: plan failed: %v", err)
		return nil, false
	}
	if len(assignments) == 0 {
		return nil, false
	}
	return assignments, true
}
