// Package auction implements the Auctioneer (§2 item 7, §4.2): time-windowed
// bid collection with a pluggable winner-selection Evaluator. Grounded on
// the teacher's single in-flight operation pattern (core/dispatch/manager.go
// processes one dispatch at a time) narrowed to one open auction and a
// single real timer, since §5 names bidding_time_window as "the only
// timeout in the core."
package auction

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/kilianp07/fleetctl/core/logger"
	"github.com/kilianp07/fleetctl/core/model"
	"github.com/kilianp07/fleetctl/core/mqtt"
)

// ErrAuctionInProgress is returned by StartBidding when another auction is
// already open; the Dispatcher's serial-FIFO submission queue (§4.1, §4.8)
// is expected to prevent this from ever firing in practice.
var ErrAuctionInProgress = errors.New("auction: an auction is already open")

// Submission is the winning bid an Evaluator selects.
type Submission struct {
	FleetName  string
	RobotName  string
	NewCost    float64
	FinishTime time.Time
}

// Evaluator selects a winner from the proposals accumulated for a task, or
// reports none (§4.2).
type Evaluator interface {
	Evaluate(taskID string, proposals []model.BidProposal) (*Submission, bool)
}

// MinCostEvaluator is the default Evaluator: minimum new_cost, ties broken
// lexicographically by fleet_name then robot_name (§4.2).
type MinCostEvaluator struct{}

// Evaluate implements Evaluator.
func (MinCostEvaluator) Evaluate(_ string, proposals []model.BidProposal) (*Submission, bool) {
	if len(proposals) == 0 {
		return nil, false
	}
	sorted := append([]model.BidProposal(nil), proposals...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].NewCost != sorted[j].NewCost {
			return sorted[i].NewCost < sorted[j].NewCost
		}
		if sorted[i].FleetName != sorted[j].FleetName {
			return sorted[i].FleetName < sorted[j].FleetName
		}
		return sorted[i].RobotName < sorted[j].RobotName
	})
	best := sorted[0]
	return &Submission{
		FleetName:  best.FleetName,
		RobotName:  best.RobotName,
		NewCost:    best.NewCost,
		FinishTime: best.FinishTime,
	}, true
}

type openAuction struct {
	taskID    string
	proposals []model.BidProposal
	timer     *time.Timer
}

// Auctioneer holds at most one open auction and delivers its outcome to a
// Dispatcher-supplied callback.
type Auctioneer struct {
	bus       mqtt.MessageBus
	evaluator Evaluator
	log       logger.Logger

	// after schedules a function to run once d has elapsed; overridable in
	// tests for determinism, mirroring the teacher's var-function
	// injection points (e.g. newMQTTClient, lpSolve).
	after func(d time.Duration, f func()) *time.Timer

	onWinner func(taskID string, sub *Submission, proposals []model.BidProposal)

	mu      sync.Mutex
	current *openAuction
}

// New builds an Auctioneer publishing BidNotices and collecting BidProposals
// over bus, delivering each auction's outcome to onWinner.
func New(bus mqtt.MessageBus, evaluator Evaluator, log logger.Logger, onWinner func(taskID string, sub *Submission, proposals []model.BidProposal)) (*Auctioneer, error) {
	if evaluator == nil {
		evaluator = MinCostEvaluator{}
	}
	a := &Auctioneer{
		bus:       bus,
		evaluator: evaluator,
		log:       log,
		after:     time.AfterFunc,
		onWinner:  onWinner,
	}
	if _, err := bus.SubscribeBidProposal(a.onBidProposal); err != nil {
		return nil, err
	}
	return a, nil
}

// StartBidding opens a new auction, broadcasting notice and starting its
// window timer (§4.2 "start_bidding").
func (a *Auctioneer) StartBidding(notice model.BidNotice) error {
	a.mu.Lock()
	if a.current != nil {
		a.mu.Unlock()
		return ErrAuctionInProgress
	}
	taskID := notice.TaskProfile.TaskID
	oa := &openAuction{taskID: taskID}
	a.current = oa
	a.mu.Unlock()

	if err := a.bus.PublishBidNotice(notice); err != nil {
		a.mu.Lock()
		a.current = nil
		a.mu.Unlock()
		return err
	}

	oa.timer = a.after(notice.TimeWindow, func() { a.onWindowElapsed(taskID) })
	return nil
}

func (a *Auctioneer) onBidProposal(proposal model.BidProposal) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.current == nil || a.current.taskID != proposal.TaskID {
		return
	}
	a.current.proposals = append(a.current.proposals, proposal)
}

func (a *Auctioneer) onWindowElapsed(taskID string) {
	a.mu.Lock()
	oa := a.current
	if oa == nil || oa.taskID != taskID {
		a.mu.Unlock()
		return
	}
	a.current = nil
	proposals := oa.proposals
	a.mu.Unlock()

	sub, ok := a.evaluator.Evaluate(taskID, proposals)
	if !ok {
		a.log.Infof("auction %s: no bid received", taskID)
		a.onWinner(taskID, nil, proposals)
		return
	}
	a.onWinner(taskID, sub, proposals)
}
