package dispatcher

import (
	"fmt"

	"github.com/kilianp07/fleetctl/core/model"
)

func validTaskType(t model.TaskType) bool {
	switch t {
	case model.TaskClean, model.TaskDelivery, model.TaskLoop, model.TaskChargeBattery, model.TaskStation, model.TaskPatrol:
		return true
	default:
		return false
	}
}

// Submit validates description and opens a bidding auction for it (§4.1
// "submit"). Returns the synthesized task_id.
func (d *Dispatcher) Submit(description model.TaskDescription, priority model.Priority) (string, error) {
	if !validTaskType(description.Type) {
		return "", fmt.Errorf("%w: %s", model.ErrInvalidTaskType, description.Type)
	}

	taskID := d.ids.Next(description.Type.String())
	d.do(func() {
		profile := model.TaskProfile{
			TaskID:         taskID,
			SubmissionTime: d.clk.Now(),
			Description:    description,
			StartTime:      d.clk.Now(),
			Priority:       priority,
		}
		status := &model.TaskStatus{TaskProfile: profile, State: model.TaskPending}
		d.activeTasks[taskID] = status
		d.userSubmitted[taskID] = true
		d.notify(*status)

		wasIdle := len(d.biddingQueue) == 0 && !d.auctionInProgress
		d.biddingQueue = append(d.biddingQueue, profile)
		if wasIdle {
			d.startNextAuction()
		}
	})
	return taskID, nil
}

// startNextAuction dequeues and opens the next pending auction, or marks
// the Dispatcher idle if the queue is empty (§4.8 "Auctions are processed
// strictly serially in FIFO order of submission"). Must run on the worker.
func (d *Dispatcher) startNextAuction() {
	if len(d.biddingQueue) == 0 {
		d.auctionInProgress = false
		return
	}
	profile := d.biddingQueue[0]
	d.biddingQueue = d.biddingQueue[1:]
	d.auctionInProgress = true
	d.auctionStarted[profile.TaskID] = d.clk.Now()

	notice := model.BidNotice{TaskProfile: profile, TimeWindow: d.biddingWindow}
	if err := d.auctioneer.StartBidding(notice); err != nil {
		d.log.Warnf("submit %s: start_bidding failed: %v", profile.TaskID, err)
		delete(d.auctionStarted, profile.TaskID)
		d.auctionInProgress = false
		d.startNextAuction()
	}
}
