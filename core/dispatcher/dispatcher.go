// Package dispatcher implements the Dispatcher core (§2 item 8, §4.1): the
// global task registry, the serial bidding queue, and status fan-out.
// Grounded on the same worker-queue generalization of
// core/dispatch/manager.go's Run(ctx, signals) select-loop used by
// core/fleet, since the Dispatcher also owns "a single-threaded executor
// for its tables" (§5).
package dispatcher

import (
	"context"
	"time"

	"github.com/kilianp07/fleetctl/core/auction"
	"github.com/kilianp07/fleetctl/core/clock"
	"github.com/kilianp07/fleetctl/core/logger"
	"github.com/kilianp07/fleetctl/core/metrics"
	"github.com/kilianp07/fleetctl/core/model"
	"github.com/kilianp07/fleetctl/core/mqtt"
	"github.com/kilianp07/fleetctl/core/tasklog"
)

type job func()

// Dispatcher owns the global task registry and the serial bidding queue.
// Fields below the worker queue are exclusively mutated from inside a job.
type Dispatcher struct {
	bus        mqtt.MessageBus
	log        logger.Logger
	sink       metrics.MetricsSink
	taskLog    tasklog.Store
	clk        clock.Clock
	ids        *clock.TaskIDCounter
	auctioneer *auction.Auctioneer
	evaluator  auction.Evaluator

	biddingWindow     time.Duration
	terminatedMaxSize int

	jobs chan job

	activeTasks       map[string]*model.TaskStatus
	terminalTasks     map[string]*model.TaskStatus
	userSubmitted     map[string]bool
	pendingDispatch   map[string]model.DispatchMethod
	biddingQueue      []model.TaskProfile
	auctionInProgress bool
	auctionStarted    map[string]time.Time
	onChange          []func(model.TaskStatus)
}

// Option configures a Dispatcher at construction time.
type Option func(*Dispatcher)

// WithMetricsSink overrides the default NopSink.
func WithMetricsSink(s metrics.MetricsSink) Option {
	return func(d *Dispatcher) { d.sink = s }
}

// WithEvaluator overrides the Auctioneer's default MinCostEvaluator.
func WithEvaluator(e auction.Evaluator) Option {
	return func(d *Dispatcher) { d.evaluator = e }
}

// WithTaskLog records every terminal transition to the given Store (§6
// "optional dispatch-log sink"). The default is tasklog.NopStore.
func WithTaskLog(s tasklog.Store) Option {
	return func(d *Dispatcher) { d.taskLog = s }
}

// New builds a Dispatcher auctioning over bus, with biddingWindow applied
// to every BidNotice (§6 "bidding_time_window") and at most
// terminatedMaxSize entries retained in the terminal set (§6
// "terminated_tasks_max_size").
func New(bus mqtt.MessageBus, log logger.Logger, clk clock.Clock, ids *clock.TaskIDCounter, biddingWindow time.Duration, terminatedMaxSize int, opts ...Option) (*Dispatcher, error) {
	d := &Dispatcher{
		bus:               bus,
		log:               log,
		sink:              metrics.NopSink{},
		taskLog:           tasklog.NopStore{},
		clk:               clk,
		ids:               ids,
		biddingWindow:     biddingWindow,
		terminatedMaxSize: terminatedMaxSize,
		jobs:              make(chan job, 256),
		activeTasks:       map[string]*model.TaskStatus{},
		terminalTasks:     map[string]*model.TaskStatus{},
		userSubmitted:     map[string]bool{},
		pendingDispatch:   map[string]model.DispatchMethod{},
		auctionStarted:    map[string]time.Time{},
	}
	for _, opt := range opts {
		opt(d)
	}

	evaluator := d.evaluator
	a, err := auction.New(bus, evaluator, log, func(taskID string, sub *auction.Submission, proposals []model.BidProposal) {
		d.post(func() { d.handleAuctionResult(taskID, sub, proposals) })
	})
	if err != nil {
		return nil, err
	}
	d.auctioneer = a

	if _, err := bus.SubscribeDispatchAck(func(ack model.DispatchAck) { d.post(func() { d.onDispatchAck(ack) }) }); err != nil {
		return nil, err
	}
	if _, err := bus.SubscribeTaskSummary(func(s model.TaskSummary) { d.post(func() { d.onTaskSummary(s) }) }); err != nil {
		return nil, err
	}
	return d, nil
}

// Run drains the worker queue until ctx is done (§5).
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case j := <-d.jobs:
			j()
		case <-ctx.Done():
			return
		}
	}
}

// RunPeriodicPublication broadcasts the active-task set every period until
// ctx is done (§4.1 "Periodic publication").
func (d *Dispatcher) RunPeriodicPublication(ctx context.Context, period time.Duration) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			tasks := d.ActiveTasks()
			if err := d.bus.PublishActiveTasks(tasks); err != nil {
				d.log.Warnf("publish_active_tasks: %v", err)
			}
			if err := d.sink.RecordActiveTaskCount(len(tasks)); err != nil {
				d.log.Warnf("publish_active_tasks: metrics: %v", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

func (d *Dispatcher) post(fn job) { d.jobs <- fn }

func (d *Dispatcher) do(fn job) {
	finished := make(chan struct{})
	d.jobs <- func() {
		fn()
		close(finished)
	}
	<-finished
}

func (d *Dispatcher) notify(status model.TaskStatus) {
	for _, cb := range d.onChange {
		cb(status)
	}
}

// OnChange registers a callback invoked on every status change (§4.1).
func (d *Dispatcher) OnChange(cb func(model.TaskStatus)) {
	d.do(func() { d.onChange = append(d.onChange, cb) })
}

// ActiveTasks returns a snapshot of the active task set.
func (d *Dispatcher) ActiveTasks() []model.TaskStatus {
	var out []model.TaskStatus
	d.do(func() {
		for _, s := range d.activeTasks {
			out = append(out, *s)
		}
	})
	return out
}

// TerminatedTasks returns a snapshot of the terminal task set.
func (d *Dispatcher) TerminatedTasks() []model.TaskStatus {
	var out []model.TaskStatus
	d.do(func() {
		for _, s := range d.terminalTasks {
			out = append(out, *s)
		}
	})
	return out
}

// GetTaskState returns the current status of taskID, if known.
func (d *Dispatcher) GetTaskState(taskID string) (model.TaskStatus, bool) {
	var status model.TaskStatus
	var ok bool
	d.do(func() {
		if s, found := d.activeTasks[taskID]; found {
			status, ok = *s, true
			return
		}
		if s, found := d.terminalTasks[taskID]; found {
			status, ok = *s, true
		}
	})
	return status, ok
}
