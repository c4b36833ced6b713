// Package negotiator implements the liaison registration described in
// §4.6 step 5 and §9 "Cyclic references". Schedule negotiation itself is
// the out-of-scope Negotiator capability (§1); this package only owns the
// weak back-reference and interrupt rate-limiting around it.
package negotiator

import (
	"sync"
	"time"

	"github.com/kilianp07/fleetctl/core/clock"
)

// ScheduleView is the opaque negotiation state the external schedule writer
// presents when requesting a response.
type ScheduleView struct {
	ParticipantID string
	Proposal      string
}

// Responder is how a Negotiator answers a negotiation request.
type Responder interface {
	Accept()
	Reject(reason string)
}

// Negotiator is the per-robot negotiation capability RobotContext carries
// (out of scope, §1); this package only forwards to it.
type Negotiator interface {
	Respond(view ScheduleView, responder Responder)
}

// resolveFunc is a weak back-reference to a RobotContext's Negotiator: it
// reports ok=false once the context has been dropped, the way §9 describes
// the liaison forfeiting rather than dereferencing a dead pointer.
type resolveFunc func() (Negotiator, bool)

// Liaison forwards Respond calls to a robot's Negotiator via a weak
// back-reference, rate-limiting interrupt callbacks to at most one per 10
// seconds (§4.6 step 5).
type Liaison struct {
	participantID string
	resolve       resolveFunc
	clock         clock.Clock

	mu            sync.Mutex
	lastInterrupt time.Time
}

func newLiaison(participantID string, resolve resolveFunc, c clock.Clock) *Liaison {
	return &Liaison{participantID: participantID, resolve: resolve, clock: c}
}

// Respond forwards to the bound context's Negotiator, or forfeits silently
// if the context has been dropped.
func (l *Liaison) Respond(view ScheduleView, responder Responder) {
	neg, ok := l.resolve()
	if !ok {
		return
	}
	neg.Respond(view, responder)
}

// Interrupt runs fn unless an interrupt for this participant fired within
// the last 10 seconds.
func (l *Liaison) Interrupt(fn func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.clock.Now()
	if !l.lastInterrupt.IsZero() && now.Sub(l.lastInterrupt) < 10*time.Second {
		return
	}
	l.lastInterrupt = now
	fn()
}

// Registry is the negotiation facility's per-participant liaison table.
type Registry struct {
	clock clock.Clock

	mu       sync.Mutex
	liaisons map[string]*Liaison
}

// NewRegistry builds an empty Registry.
func NewRegistry(c clock.Clock) *Registry {
	return &Registry{clock: c, liaisons: map[string]*Liaison{}}
}

// Register installs a Liaison for participantID that resolves to neg as
// long as alive() reports true; it replaces any prior liaison for the same
// participant (§4.6 step 5: "register a LiaisonNegotiator for this
// participant").
func (r *Registry) Register(participantID string, neg Negotiator, alive func() bool) *Liaison {
	resolve := func() (Negotiator, bool) {
		if !alive() {
			return nil, false
		}
		return neg, true
	}
	l := newLiaison(participantID, resolve, r.clock)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.liaisons[participantID] = l
	return l
}

// Unregister removes a participant's liaison, e.g. when its robot leaves
// the fleet.
func (r *Registry) Unregister(participantID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.liaisons, participantID)
}

// Liaison returns the registered liaison for participantID, if any.
func (r *Registry) Liaison(participantID string) (*Liaison, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.liaisons[participantID]
	return l, ok
}
