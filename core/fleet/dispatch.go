package fleet

import (
	"github.com/kilianp07/fleetctl/core/metrics"
	"github.com/kilianp07/fleetctl/core/model"
)

// onDispatchRequest handles an incoming DispatchRequest (§4.4). Requests
// for other fleets are dropped without an ack; everything else always
// receives a DispatchAck.
func (h *Handle) onDispatchRequest(req model.DispatchRequest) {
	if req.FleetName != h.name {
		return
	}

	switch req.Method {
	case model.DispatchAdd:
		h.handleAdd(req)
	case model.DispatchCancel:
		h.handleCancel(req)
	default:
		h.log.Warnf("on_dispatch_request %s: unknown method %v, ignoring", req.TaskID, req.Method)
	}
}

func (h *Handle) ack(taskID string, success bool) {
	if err := h.bus.PublishDispatchAck(model.DispatchAck{TaskID: taskID, FleetName: h.name, Success: success}); err != nil {
		h.log.Warnf("dispatch_ack %s: publish failed: %v", taskID, err)
	}
}

func (h *Handle) handleAdd(req model.DispatchRequest) {
	taskID := req.TaskID

	assignments, ok := h.bidNoticeAssignments[taskID]
	if !ok {
		h.log.Warnf("dispatch ADD %s: no stored bid assignments", taskID)
		h.ack(taskID, false)
		return
	}
	if len(assignments) != len(h.taskManagers) {
		h.log.Warnf("dispatch ADD %s: assignment size mismatch (%d != %d)", taskID, len(assignments), len(h.taskManagers))
		h.ack(taskID, false)
		return
	}
	request, ok := h.generatedRequests[taskID]
	if !ok {
		h.log.Warnf("dispatch ADD %s: no generated request on file", taskID)
		h.ack(taskID, false)
		return
	}

	if !h.isValidAssignments(assignments) {
		h.log.Debugf("dispatch ADD %s: stored assignments reference an executed task, re-planning", taskID)
		replanned, ok := h.allocateTasks(request, nil)
		if !ok {
			h.log.Warnf("dispatch ADD %s: re-plan after invalidation failed", taskID)
			h.ack(taskID, false)
			return
		}
		assignments = replanned
	}

	for i, tm := range h.taskManagers {
		tm.SetQueue(assignments[i], h.taskProfiles)
	}
	h.currentAssignmentCost = h.taskPlanner().ComputeCost(assignments)
	h.assignedRequests[taskID] = request

	if err := h.sink.RecordQueueInstall(metrics.QueueInstallEvent{
		FleetName:  h.name,
		RobotCount: len(h.taskManagers),
		Cost:       h.currentAssignmentCost,
		Time:       h.clk.Now(),
	}); err != nil {
		h.log.Warnf("dispatch ADD %s: metrics: %v", taskID, err)
	}
	h.ack(taskID, true)
}

func (h *Handle) handleCancel(req model.DispatchRequest) {
	taskID := req.TaskID

	if h.cancelledTaskIDs[taskID] {
		h.ack(taskID, true) // idempotent cancel (§8 "Idempotent cancel")
		return
	}

	request, ok := h.assignedRequests[taskID]
	if !ok {
		h.log.Warnf("dispatch CANCEL %s: not an assigned task", taskID)
		h.ack(taskID, false)
		return
	}
	for _, tm := range h.taskManagers {
		if tm.ExecutedTasks()[taskID] {
			h.log.Debugf("dispatch CANCEL %s: already executing, refusing", taskID)
			h.ack(taskID, false)
			return
		}
	}

	assignments, ok := h.allocateTasks(nil, request)
	if !ok {
		h.log.Warnf("dispatch CANCEL %s: re-plan failed", taskID)
		h.ack(taskID, false)
		return
	}
	for i, tm := range h.taskManagers {
		tm.SetQueue(assignments[i], h.taskProfiles)
	}
	h.currentAssignmentCost = h.taskPlanner().ComputeCost(assignments)
	h.cancelledTaskIDs[taskID] = true

	h.ack(taskID, true)
}

// isValidAssignments reports whether none of the given assignments
// reference a task any TaskManager has already begun executing (§4.4 ADD
// path "is_valid_assignments").
func (h *Handle) isValidAssignments(assignments model.Assignments) bool {
	for _, tm := range h.taskManagers {
		executed := tm.ExecutedTasks()
		for _, block := range assignments {
			for _, a := range block {
				if executed[a.TaskID()] {
					return false
				}
			}
		}
	}
	return true
}
