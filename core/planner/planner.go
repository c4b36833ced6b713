// Package planner defines the Planner capability consumed by the fleet core
// (§1: "navigation-graph planning primitives ... consumed as a Planner
// capability") and provides an in-memory adapter over a static waypoint
// graph plus lane-closure set, in the teacher's adapter-over-injected-port
// style (core/mqtt/discovery.go wraps an external broadcast mechanism; this
// wraps an external nav-graph/trajectory mechanism).
package planner

import (
	"fmt"
	"math"

	"github.com/kilianp07/fleetctl/core/model"
)

// ChargerCost is the result of asking the Planner how expensive it would be
// to reach a candidate charging waypoint.
type ChargerCost struct {
	Waypoint  string
	IdealCost float64
}

// Planner is the navigation-graph capability consumed by the fleet core. It
// is an immutable snapshot: lane closures are applied by building a new
// Planner and swapping the shared reference (§4.7, §9).
type Planner interface {
	// ResolveWaypoint confirms a waypoint name exists in the nav graph.
	ResolveWaypoint(name string) (string, error)

	// NearestCharger returns the cheapest of the given candidate charging
	// waypoints when starting from "from", or an error if none is reachable.
	NearestCharger(from string, candidates []string) (ChargerCost, error)

	// SynthesizeCleaningTrajectory interpolates a DockParam's path into a
	// full trajectory for the vehicle traits configured on this Planner.
	SynthesizeCleaningTrajectory(path []model.Waypoint) ([]model.Waypoint, error)

	// LaneClosures returns the currently closed lane indices.
	LaneClosures() map[int]bool

	// WithLaneClosures returns a new Planner snapshot with the given lane
	// indices set to the closed/open state in updates. The receiver is left
	// untouched (copy-on-write).
	WithLaneClosures(updates map[int]bool) Planner
}

// StaticGraph implements Planner over a fixed set of named waypoints.
// Interpolation is a direct point-to-point passthrough — the real
// trajectory-interpolation math is the external capability this package
// adapts; StaticGraph only resolves names and costs the way the spec
// requires of the core.
type StaticGraph struct {
	waypoints map[string]model.Waypoint
	closures  map[int]bool
}

// NewStaticGraph builds a Planner over the given named waypoints.
func NewStaticGraph(waypoints map[string]model.Waypoint) *StaticGraph {
	return &StaticGraph{waypoints: waypoints, closures: map[int]bool{}}
}

func (g *StaticGraph) ResolveWaypoint(name string) (string, error) {
	if _, ok := g.waypoints[name]; !ok {
		return "", fmt.Errorf("%w: %s", model.ErrUnknownWaypoint, name)
	}
	return name, nil
}

func (g *StaticGraph) NearestCharger(from string, candidates []string) (ChargerCost, error) {
	fromWp, ok := g.waypoints[from]
	if !ok {
		return ChargerCost{}, fmt.Errorf("%w: %s", model.ErrUnknownWaypoint, from)
	}
	best := ChargerCost{IdealCost: -1}
	for _, c := range candidates {
		wp, ok := g.waypoints[c]
		if !ok {
			continue
		}
		cost := euclidean(fromWp, wp)
		if best.IdealCost < 0 || cost < best.IdealCost {
			best = ChargerCost{Waypoint: c, IdealCost: cost}
		}
	}
	if best.IdealCost < 0 {
		return ChargerCost{}, fmt.Errorf("planner: no reachable charger among %d candidates", len(candidates))
	}
	return best, nil
}

func (g *StaticGraph) SynthesizeCleaningTrajectory(path []model.Waypoint) ([]model.Waypoint, error) {
	if len(path) == 0 {
		return nil, model.ErrEmptyTrajectory
	}
	out := make([]model.Waypoint, len(path))
	copy(out, path)
	return out, nil
}

func (g *StaticGraph) LaneClosures() map[int]bool {
	cp := make(map[int]bool, len(g.closures))
	for k, v := range g.closures {
		cp[k] = v
	}
	return cp
}

func (g *StaticGraph) WithLaneClosures(updates map[int]bool) Planner {
	next := &StaticGraph{waypoints: g.waypoints, closures: make(map[int]bool, len(g.closures)+len(updates))}
	for k, v := range g.closures {
		next.closures[k] = v
	}
	for k, v := range updates {
		next.closures[k] = v
	}
	return next
}

func euclidean(a, b model.Waypoint) float64 {
	dx, dy := a.X-b.X, a.Y-b.Y
	return math.Sqrt(dx*dx + dy*dy)
}
