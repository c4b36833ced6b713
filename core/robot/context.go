// Package robot defines RobotContext, the per-robot state jointly referenced
// by a TaskManager and the negotiation registry (§3, §4.6, §9).
package robot

import (
	"math"
	"sync/atomic"

	"github.com/kilianp07/fleetctl/core/planner"
	"github.com/kilianp07/fleetctl/core/taskplanner"
)

// Context is a robot's identity, location, and charger assignment, plus
// shared references to the Planner and TaskPlanner snapshots currently in
// effect for its fleet. Planner/TaskPlanner updates are copy-on-write
// (§5 "Shared-resource policy"): a new snapshot is built elsewhere and
// swapped in via SetPlanner/SetTaskPlanner, never mutated in place.
type Context struct {
	Name            string
	Location        string
	ParticipantID   string
	ChargerWaypoint string
	batterySoC      atomic.Uint64 // bits of a float64, stored via math.Float64bits

	planner     atomic.Pointer[planner.Planner]
	taskPlanner atomic.Pointer[taskplanner.TaskPlanner]

	closed atomic.Bool
}

// New builds a RobotContext with the given identity/charger assignment and
// the fleet's current Planner/TaskPlanner snapshots, starting at full
// battery per §4.6 step 4.
func New(name, location, participantID, charger string, pl planner.Planner, tp taskplanner.TaskPlanner) *Context {
	c := &Context{
		Name:            name,
		Location:        location,
		ParticipantID:   participantID,
		ChargerWaypoint: charger,
	}
	c.SetBatterySoC(1.0)
	c.planner.Store(&pl)
	c.taskPlanner.Store(&tp)
	return c
}

// Planner returns the current Planner snapshot.
func (c *Context) Planner() planner.Planner {
	if p := c.planner.Load(); p != nil {
		return *p
	}
	return nil
}

// SetPlanner atomically rebinds the shared Planner reference.
func (c *Context) SetPlanner(p planner.Planner) { c.planner.Store(&p) }

// TaskPlanner returns the current TaskPlanner snapshot.
func (c *Context) TaskPlanner() taskplanner.TaskPlanner {
	if p := c.taskPlanner.Load(); p != nil {
		return *p
	}
	return nil
}

// SetTaskPlanner atomically rebinds the shared TaskPlanner reference.
func (c *Context) SetTaskPlanner(p taskplanner.TaskPlanner) { c.taskPlanner.Store(&p) }

// BatterySoC returns the current state of charge, in [0,1].
func (c *Context) BatterySoC() float64 {
	return math.Float64frombits(c.batterySoC.Load())
}

// SetBatterySoC updates the current state of charge.
func (c *Context) SetBatterySoC(soc float64) {
	c.batterySoC.Store(math.Float64bits(soc))
}

// Close marks the context as destroyed. A Negotiator holding a weak
// back-reference to this context must forfeit rather than respond once
// Closed reports true (§9 "Cyclic references").
func (c *Context) Close() { c.closed.Store(true) }

// Closed reports whether Close has been called.
func (c *Context) Closed() bool { return c.closed.Load() }
