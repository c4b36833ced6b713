package fleet

import (
	"github.com/kilianp07/fleetctl/core/model"
)

// onBidNotice evaluates an incoming BidNotice (§4.3). Every precondition
// failure is a silent skip (§7 "any error causes silent skip ... with a
// logged warning").
func (h *Handle) onBidNotice(notice model.BidNotice) {
	profile := notice.TaskProfile
	taskID := profile.TaskID

	if len(h.taskManagers) == 0 {
		h.log.Debugf("on_bid_notice %s: no robots registered, skipping", taskID)
		return
	}
	if taskID == "" {
		h.log.Warnf("on_bid_notice: empty task_id, skipping")
		return
	}
	if _, ok := h.bidNoticeAssignments[taskID]; ok {
		h.log.Debugf("on_bid_notice %s: duplicate bid notice, skipping", taskID)
		return
	}
	if h.acceptTask == nil || !h.acceptTask(profile) {
		h.log.Debugf("on_bid_notice %s: rejected by accept_task", taskID)
		return
	}
	tp := h.taskPlanner()
	if tp == nil {
		h.log.Warnf("on_bid_notice %s: no task planner configured, skipping", taskID)
		return
	}

	req, err := resolveRequest(profile, h.planner(), h.dockParamMap)
	if err != nil {
		h.log.Warnf("on_bid_notice %s: %v", taskID, err)
		return
	}

	h.generatedRequests[taskID] = req
	h.taskProfiles[taskID] = profile

	assignments, ok := h.allocateTasks(req, nil)
	if !ok {
		h.log.Debugf("on_bid_notice %s: allocate_tasks found no feasible assignment", taskID)
		return
	}

	cost := tp.ComputeCost(assignments)
	robotIdx, blockIdx, found := assignments.Find(taskID)
	if !found {
		h.log.Warnf("on_bid_notice %s: allocate_tasks did not place the new request", taskID)
		return
	}
	assignment := assignments[robotIdx][blockIdx]
	robotName := h.taskManagers[robotIdx].Context().Name

	proposal := model.BidProposal{
		TaskID:     taskID,
		FleetName:  h.name,
		RobotName:  robotName,
		PrevCost:   h.currentAssignmentCost,
		NewCost:    cost,
		FinishTime: assignment.ExpectedFinishState.FinishTime,
	}
	if err := h.bus.PublishBidProposal(proposal); err != nil {
		h.log.Warnf("on_bid_notice %s: publish bid proposal failed: %v", taskID, err)
		return
	}

	h.bidNoticeAssignments[taskID] = assignments
}
