package dispatcher

import (
	"context"

	"github.com/kilianp07/fleetctl/core/model"
	"github.com/kilianp07/fleetctl/core/tasklog"
)

// transitionToTerminal moves status to a terminal state, removing it from
// the active set and user_submitted_tasks (§3 "Ownership & lifecycle"),
// inserting it into the terminal set subject to eviction (§4.1 "Terminal-
// set policy"). Must run on the worker.
func (d *Dispatcher) transitionToTerminal(status *model.TaskStatus, next model.TaskState) {
	if err := status.Transition(next); err != nil {
		d.log.Warnf("transition: %v", err)
		return
	}
	taskID := status.TaskProfile.TaskID
	_, wasUserSubmitted := d.userSubmitted[taskID]
	delete(d.activeTasks, taskID)
	delete(d.userSubmitted, taskID)
	d.insertTerminal(status)
	d.logTerminal(status, wasUserSubmitted)
	d.notify(*status)
}

// logTerminal appends a Record of the terminal transition to the
// configured tasklog.Store; append errors are logged, not propagated, per
// §7's "silent skip with a logged warning" policy for non-critical sinks.
func (d *Dispatcher) logTerminal(status *model.TaskStatus, userTask bool) {
	rec := tasklog.Record{
		Timestamp: d.clk.Now(),
		TaskID:    status.TaskProfile.TaskID,
		TaskType:  status.TaskProfile.Description.Type.String(),
		FleetName: status.FleetName,
		State:     status.State.String(),
		UserTask:  userTask,
	}
	if err := d.taskLog.Append(context.Background(), rec); err != nil {
		d.log.Warnf("tasklog: append %s: %v", rec.TaskID, err)
	}
}

// insertTerminal stores status in the terminal set, evicting the entry
// with the smallest submission_time if the set is now over capacity.
func (d *Dispatcher) insertTerminal(status *model.TaskStatus) {
	d.terminalTasks[status.TaskProfile.TaskID] = status
	if len(d.terminalTasks) <= d.terminatedMaxSize {
		return
	}
	var oldestID string
	for id, s := range d.terminalTasks {
		if oldestID == "" || s.TaskProfile.SubmissionTime.Before(d.terminalTasks[oldestID].TaskProfile.SubmissionTime) {
			oldestID = id
		}
	}
	delete(d.terminalTasks, oldestID)
}
