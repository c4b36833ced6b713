package dispatcher

import "github.com/kilianp07/fleetctl/core/model"

// Cancel attempts to cancel taskID (§4.1 "cancel"). It returns true when the
// cancellation request was accepted: immediately for a Pending task (no
// fleet to notify), or upon successfully forwarding a CANCEL to the owning
// fleet for a Queued task, whose result completes asynchronously via
// onDispatchAck. Idempotent for an already-Canceled task (§8 "Idempotent
// cancel").
func (d *Dispatcher) Cancel(taskID string) bool {
	var ok bool
	d.do(func() { ok = d.cancelLocked(taskID) })
	return ok
}

func (d *Dispatcher) cancelLocked(taskID string) bool {
	if terminal, found := d.terminalTasks[taskID]; found {
		return terminal.State == model.TaskCanceled
	}
	status, found := d.activeTasks[taskID]
	if !found || !d.userSubmitted[taskID] {
		return false
	}

	switch status.State {
	case model.TaskPending:
		d.transitionToTerminal(status, model.TaskCanceled)
		d.reclaimSelfGenerated(status.FleetName)
		return true
	case model.TaskQueued:
		d.pendingDispatch[taskID] = model.DispatchCancel
		if err := d.bus.PublishDispatchRequest(model.DispatchRequest{
			TaskID:    taskID,
			FleetName: status.FleetName,
			Method:    model.DispatchCancel,
		}); err != nil {
			d.log.Warnf("cancel %s: publish dispatch request failed: %v", taskID, err)
			delete(d.pendingDispatch, taskID)
			return false
		}
		d.reclaimSelfGenerated(status.FleetName)
		return true
	default:
		// Active, or any other non-cancellable state (§7 "a cancel of an
		// Active task leaves the task Active and returns failure").
		return false
	}
}

// reclaimSelfGenerated locally terminates every self-generated (not
// user-submitted) task currently active on fleetName, avoiding duplicate
// auto-charge tasks after the adapter re-plans (§4.1, §8 "Self-generated
// reclamation").
func (d *Dispatcher) reclaimSelfGenerated(fleetName string) {
	if fleetName == "" {
		return
	}
	var toReclaim []*model.TaskStatus
	for id, status := range d.activeTasks {
		if status.FleetName == fleetName && !d.userSubmitted[id] {
			toReclaim = append(toReclaim, status)
		}
	}
	for _, status := range toReclaim {
		d.transitionToTerminal(status, model.TaskCanceled)
	}
}
