package dispatcher

import (
	"github.com/kilianp07/fleetctl/core/auction"
	"github.com/kilianp07/fleetctl/core/metrics"
	"github.com/kilianp07/fleetctl/core/model"
)

// handleAuctionResult processes an Auctioneer outcome for taskID (§4.1
// "Auction protocol" steps 4-5). Must run on the worker.
func (d *Dispatcher) handleAuctionResult(taskID string, sub *auction.Submission, proposals []model.BidProposal) {
	started, hadStart := d.auctionStarted[taskID]
	delete(d.auctionStarted, taskID)

	status, ok := d.activeTasks[taskID]
	if !ok {
		d.log.Warnf("auction result for unknown task %s", taskID)
	} else if sub == nil {
		d.log.Infof("auction %s: no bid received", taskID)
		d.transitionToTerminal(status, model.TaskFailed)
	} else {
		status.FleetName = sub.FleetName
		if err := status.Transition(model.TaskQueued); err != nil {
			d.log.Warnf("auction %s: %v", taskID, err)
		} else {
			d.notify(*status)
		}
		d.reclaimSelfGenerated(sub.FleetName)
		d.pendingDispatch[taskID] = model.DispatchAdd
		if err := d.bus.PublishDispatchRequest(model.DispatchRequest{
			TaskID:    taskID,
			FleetName: sub.FleetName,
			Method:    model.DispatchAdd,
		}); err != nil {
			d.log.Warnf("auction %s: publish dispatch request failed: %v", taskID, err)
		}
	}

	if hadStart {
		ev := metrics.AuctionEvent{
			TaskID:        taskID,
			ProposalCount: len(proposals),
			Won:           sub != nil,
			Duration:      d.clk.Now().Sub(started),
			Time:          d.clk.Now(),
		}
		if sub != nil {
			ev.WinningFleet = sub.FleetName
		}
		if err := d.sink.RecordAuction(ev); err != nil {
			d.log.Warnf("auction %s: metrics: %v", taskID, err)
		}
	}

	d.auctionInProgress = false
	d.startNextAuction()
}

// onDispatchAck correlates an incoming DispatchAck with the method the
// Dispatcher last requested for that task_id (model.DispatchAck itself
// does not carry the method, unlike DispatchRequest).
func (d *Dispatcher) onDispatchAck(ack model.DispatchAck) {
	method, ok := d.pendingDispatch[ack.TaskID]
	if ok {
		delete(d.pendingDispatch, ack.TaskID)
	}
	status, ok2 := d.activeTasks[ack.TaskID]
	if !ok2 {
		d.log.Warnf("dispatch ack for unknown task %s", ack.TaskID)
		return
	}
	if ok {
		if err := d.sink.RecordDispatch(metrics.DispatchEvent{
			TaskID:    ack.TaskID,
			FleetName: ack.FleetName,
			Method:    method.String(),
			Success:   ack.Success,
			Time:      d.clk.Now(),
		}); err != nil {
			d.log.Warnf("dispatch ack %s: metrics: %v", ack.TaskID, err)
		}
	}

	switch method {
	case model.DispatchAdd:
		if !ack.Success {
			d.transitionToTerminal(status, model.TaskFailed)
		}
	case model.DispatchCancel:
		if ack.Success {
			d.transitionToTerminal(status, model.TaskCanceled)
		}
	}
}

// onTaskSummary relays a status update from an adapter (§4.1 "Status
// ingress"). Unknown task ids are adopted as stray tasks with a warning.
func (d *Dispatcher) onTaskSummary(summary model.TaskSummary) {
	status, ok := d.activeTasks[summary.TaskID]
	if !ok {
		if _, terminal := d.terminalTasks[summary.TaskID]; terminal {
			return
		}
		d.log.Warnf("task_summary: adopting stray task %s", summary.TaskID)
		cp := summary.Status
		d.activeTasks[summary.TaskID] = &cp
		d.notify(cp)
		if cp.State.Terminal() {
			delete(d.activeTasks, summary.TaskID)
			d.insertTerminal(&cp)
		}
		return
	}

	next := summary.Status.State
	if next == status.State {
		return
	}
	if !status.State.CanTransition(next) {
		d.log.Warnf("task_summary: invalid transition %s -> %s for %s", status.State, next, summary.TaskID)
		return
	}
	if next.Terminal() {
		d.transitionToTerminal(status, next)
		return
	}
	status.State = next
	d.notify(*status)
}
