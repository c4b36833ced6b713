// Package taskmanager implements the per-robot queue holder (§2 item 5,
// §4.4, §5): it exposes expected-finish state and pending requests to
// allocate_tasks, and accepts a new queue atomically, grounded on the
// teacher's mutex-guarded map store (core/vehiclestatus/store.go) narrowed
// to a single robot's state instead of a fleet-wide map.
package taskmanager

import (
	"sync"

	"github.com/kilianp07/fleetctl/core/model"
	"github.com/kilianp07/fleetctl/core/robot"
	"github.com/kilianp07/fleetctl/core/taskplanner"
)

// Manager holds one robot's assignment queue. It is exclusively owned by
// its FleetUpdateHandle (§3 "Ownership & lifecycle").
type Manager struct {
	mu       sync.Mutex
	ctx      *robot.Context
	queue    model.AssignmentBlock
	profiles map[string]model.TaskProfile
	executed map[string]bool
}

// New binds a Manager to the given robot context, starting with an empty
// queue (§4.6 step 6).
func New(ctx *robot.Context) *Manager {
	return &Manager{
		ctx:      ctx,
		profiles: map[string]model.TaskProfile{},
		executed: map[string]bool{},
	}
}

// Context returns the bound RobotContext.
func (m *Manager) Context() *robot.Context { return m.ctx }

// SetQueue atomically replaces the queue and the profile lookup table used
// to resolve task ids in that queue (§4.4 "set_queue"). Task ids previously
// marked executed remain so; ids no longer present in block are pruned from
// the executed set, since a queue install never re-includes started tasks
// (§8 invariant: "no TaskManager queue contains an id from that manager's
// executed_tasks set").
func (m *Manager) SetQueue(block model.AssignmentBlock, profiles map[string]model.TaskProfile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = block
	for id := range profiles {
		m.profiles[id] = profiles[id]
	}
	present := make(map[string]bool, len(block))
	for _, a := range block {
		present[a.TaskID()] = true
	}
	for id := range m.executed {
		if !present[id] {
			delete(m.executed, id)
		}
	}
}

// ExpectedFinishState returns the state allocate_tasks should plan from:
// the robot's actual location/battery if the queue is empty, or the last
// queued assignment's projected finish state otherwise (§4.5 step 1).
func (m *Manager) ExpectedFinishState() taskplanner.RobotState {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.queue) == 0 {
		return taskplanner.RobotState{
			Name:       m.ctx.Name,
			Location:   m.ctx.Location,
			BatterySoC: m.ctx.BatterySoC(),
		}
	}
	last := m.queue[len(m.queue)-1]
	return taskplanner.RobotState{
		Name:       m.ctx.Name,
		Location:   last.ExpectedFinishState.Location,
		BatterySoC: last.ExpectedFinishState.BatterySoC,
	}
}

// Requests returns the requests still pending (queued but not yet started)
// on this manager, in queue order (§4.5 step 1).
func (m *Manager) Requests() []*model.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.Request, 0, len(m.queue))
	for _, a := range m.queue {
		if m.executed[a.TaskID()] {
			continue
		}
		out = append(out, a.Request)
	}
	return out
}

// ExecutedTasks returns a snapshot of the task ids this manager has begun
// executing (§2 item 5, §8).
func (m *Manager) ExecutedTasks() map[string]bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make(map[string]bool, len(m.executed))
	for id := range m.executed {
		cp[id] = true
	}
	return cp
}

// MarkExecuted records that the TaskExecutor capability (out of scope, §1)
// has begun running the given queued task, making it no longer cancellable.
func (m *Manager) MarkExecuted(taskID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.executed[taskID] = true
}

// Profile looks up a previously installed task's TaskProfile.
func (m *Manager) Profile(taskID string) (model.TaskProfile, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[taskID]
	return p, ok
}
