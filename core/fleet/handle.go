// Package fleet implements FleetUpdateHandle (§2 item 6, §4.3-§4.7): bid
// evaluation, dispatch ADD/CANCEL, re-plan on cancel, charger assignment on
// robot join, and lane open/close, all serialized onto a single-threaded
// cooperative worker per §5. Grounded on the teacher's
// DispatchManager.Run(ctx, signals) select-loop (core/dispatch/manager.go),
// generalized here into a channel of closures since this core has many
// distinct operations rather than the teacher's single Dispatch signal.
package fleet

import (
	"context"
	"errors"
	"fmt"

	"github.com/kilianp07/fleetctl/core/clock"
	"github.com/kilianp07/fleetctl/core/logger"
	"github.com/kilianp07/fleetctl/core/metrics"
	"github.com/kilianp07/fleetctl/core/model"
	"github.com/kilianp07/fleetctl/core/mqtt"
	"github.com/kilianp07/fleetctl/core/negotiator"
	"github.com/kilianp07/fleetctl/core/planner"
	"github.com/kilianp07/fleetctl/core/robot"
	"github.com/kilianp07/fleetctl/core/taskmanager"
	"github.com/kilianp07/fleetctl/core/taskplanner"
)

// job is a unit of work posted to the fleet worker; all mutations of
// worker-owned state happen from inside a job (§5).
type job func()

// Handle is a single named fleet's coordination core. All fields below the
// worker-queue are exclusively mutated on the worker goroutine started by
// Run.
type Handle struct {
	name       string
	bus        mqtt.MessageBus
	log        logger.Logger
	sink       metrics.MetricsSink
	clk        clock.Clock
	acceptTask func(model.TaskProfile) bool
	negotiators *negotiator.Registry

	plannerRef     plannerBox
	taskPlannerRef taskPlannerBox

	jobs chan job

	// worker-owned state (§5: "all mutations ... occur on that worker").
	taskManagers         []*taskmanager.Manager
	bidNoticeAssignments map[string]model.Assignments
	generatedRequests    map[string]*model.Request
	taskProfiles         map[string]model.TaskProfile
	assignedRequests     map[string]*model.Request
	cancelledTaskIDs     map[string]bool
	dockParamMap         map[string]model.DockParam
	currentAssignmentCost float64
}

// Option configures a Handle at construction time.
type Option func(*Handle)

// WithAcceptTask overrides the default always-accept callback (§6
// "accept_task(task_profile) → bool").
func WithAcceptTask(fn func(model.TaskProfile) bool) Option {
	return func(h *Handle) { h.acceptTask = fn }
}

// WithNegotiatorRegistry wires a negotiation facility; robots joined after
// this option is set register a liaison (§4.6 step 5).
func WithNegotiatorRegistry(r *negotiator.Registry) Option {
	return func(h *Handle) { h.negotiators = r }
}

// WithMetricsSink overrides the default NopSink.
func WithMetricsSink(s metrics.MetricsSink) Option {
	return func(h *Handle) { h.sink = s }
}

// New builds a Handle for the named fleet, subscribing to the topics it
// must react to (§6). Call Run to start its worker.
func New(name string, bus mqtt.MessageBus, log logger.Logger, clk clock.Clock, pl planner.Planner, tp taskplanner.TaskPlanner, opts ...Option) (*Handle, error) {
	h := &Handle{
		name:                 name,
		bus:                  bus,
		log:                  log,
		sink:                 metrics.NopSink{},
		clk:                  clk,
		acceptTask:           func(model.TaskProfile) bool { return true },
		jobs:                 make(chan job, 256),
		bidNoticeAssignments: map[string]model.Assignments{},
		generatedRequests:    map[string]*model.Request{},
		taskProfiles:         map[string]model.TaskProfile{},
		assignedRequests:     map[string]*model.Request{},
		cancelledTaskIDs:     map[string]bool{},
		dockParamMap:         map[string]model.DockParam{},
	}
	h.plannerRef.store(pl)
	h.taskPlannerRef.store(tp)
	for _, opt := range opts {
		opt(h)
	}

	if _, err := bus.SubscribeBidNotice(func(n model.BidNotice) { h.post(func() { h.onBidNotice(n) }) }); err != nil {
		return nil, err
	}
	if _, err := bus.SubscribeDispatchRequest(func(r model.DispatchRequest) { h.post(func() { h.onDispatchRequest(r) }) }); err != nil {
		return nil, err
	}
	if _, err := bus.SubscribeDockParamSummary(func(s model.DockParamSummary) { h.post(func() { h.onDockParamSummary(s) }) }); err != nil {
		return nil, err
	}
	return h, nil
}

// Name returns the fleet's name.
func (h *Handle) Name() string { return h.name }

// Run drains the worker queue until ctx is done, executing each posted job
// to completion before the next (§5 "executed to completion before the
// next callback").
func (h *Handle) Run(ctx context.Context) {
	for {
		select {
		case j := <-h.jobs:
			j()
		case <-ctx.Done():
			return
		}
	}
}

// post enqueues fn to run on the worker without waiting for completion,
// used by transport callbacks (§5 suspension point (a): fire-and-forget).
func (h *Handle) post(fn job) {
	h.jobs <- fn
}

// do enqueues fn and blocks until it has run, used by synchronous public
// operations (add_robot, open_lanes/close_lanes, set_task_planner_params)
// that must return a result to their caller.
func (h *Handle) do(fn job) {
	finished := make(chan struct{})
	h.jobs <- func() {
		fn()
		close(finished)
	}
	<-finished
}

// planner returns the current Planner snapshot.
func (h *Handle) planner() planner.Planner { return h.plannerRef.load() }

// taskPlanner returns the current TaskPlanner snapshot.
func (h *Handle) taskPlanner() taskplanner.TaskPlanner { return h.taskPlannerRef.load() }

// SetTaskPlannerParams applies per-fleet task-planner configuration on the
// worker (§6 "set_task_planner_params returns false if any requirement is
// missing or out of range").
func (h *Handle) SetTaskPlannerParams(params taskplanner.Params) bool {
	var ok bool
	h.do(func() { ok = h.taskPlanner().SetParams(params) })
	return ok
}

var errAddRobotEmptyStart = errors.New("fleet: add_robot requires a non-empty start waypoint")

// AddRobot registers a new robot (§4.6). registerParticipant models the
// asynchronous traffic-participant registration call; it runs on the
// caller's goroutine (representing the external registration completing),
// and its continuation (charger assignment, RobotContext/TaskManager
// construction) runs on the fleet worker per §5 suspension point (b).
func (h *Handle) AddRobot(start string, chargerCandidates []string, registerParticipant func() (string, error), neg negotiator.Negotiator) (*robot.Context, error) {
	if start == "" {
		return nil, errAddRobotEmptyStart
	}
	participantID, err := registerParticipant()
	if err != nil {
		return nil, fmt.Errorf("fleet: participant registration failed: %w", err)
	}

	var ctx *robot.Context
	var addErr error
	h.do(func() {
		pl := h.planner()
		best, cerr := pl.NearestCharger(start, chargerCandidates)
		if cerr != nil {
			addErr = fmt.Errorf("fleet: add_robot: no reachable charger: %w", cerr)
			return
		}
		h.log.Debugf("add_robot: selected charger %s (ideal_cost=%.3f) for participant %s", best.Waypoint, best.IdealCost, participantID)

		name := fmt.Sprintf("robot_%d", len(h.taskManagers))
		rc := robot.New(name, start, participantID, best.Waypoint, pl, h.taskPlanner())

		if h.negotiators != nil && neg != nil {
			h.negotiators.Register(participantID, neg, func() bool { return !rc.Closed() })
		}

		h.taskManagers = append(h.taskManagers, taskmanager.New(rc))
		ctx = rc
	})
	return ctx, addErr
}

// OpenLanes reopens the given lane indices (§4.7).
func (h *Handle) OpenLanes(indices []int) {
	h.setLaneState(indices, false)
}

// CloseLanes closes the given lane indices (§4.7).
func (h *Handle) CloseLanes(indices []int) {
	h.setLaneState(indices, true)
}

func (h *Handle) setLaneState(indices []int, closed bool) {
	h.do(func() {
		pl := h.planner()
		current := pl.LaneClosures()
		updates := map[int]bool{}
		for _, idx := range indices {
			if current[idx] == closed {
				continue // already in the desired state, skip (§4.7)
			}
			updates[idx] = closed
		}
		if len(updates) == 0 {
			return
		}
		next := pl.WithLaneClosures(updates)
		h.plannerRef.store(next)
		for _, tm := range h.taskManagers {
			tm.Context().SetPlanner(next)
		}
	})
}

// onDockParamSummary replaces the fleet's dock_param_map when the summary
// targets this fleet (§6 "DockParam stream", §8 "Dock param replacement").
func (h *Handle) onDockParamSummary(summary model.DockParamSummary) {
	if summary.FleetName != h.name {
		return
	}
	m := make(map[string]model.DockParam, len(summary.Docks))
	for _, d := range summary.Docks {
		m[d.StartWaypoint] = d
	}
	h.dockParamMap = m
}
