// Package mqtt defines the MessageBus port (§1, §6, §9 "Out of scope":
// transport itself is an external collaborator; this package only names
// the shape the core depends on). The name is kept from the teacher's
// core/mqtt package even though the concrete transport (infra/mqtt) is one
// of several possible backends, matching the teacher's port/adapter split.
package mqtt

import "github.com/kilianp07/fleetctl/core/model"

// Unsubscribe cancels a previously registered subscription.
type Unsubscribe func()

// MessageBus is the publish/subscribe and request/response transport the
// Dispatcher and FleetUpdateHandle cores depend on (§6 "Messaging topics").
// Implementations must deliver each subscription's callbacks to the
// subscriber's own single-threaded worker (§5).
type MessageBus interface {
	// PublishBidNotice broadcasts a BidNotice to all fleets.
	PublishBidNotice(notice model.BidNotice) error
	// SubscribeBidNotice registers a handler invoked for every broadcast
	// BidNotice.
	SubscribeBidNotice(handler func(model.BidNotice)) (Unsubscribe, error)

	// PublishBidProposal sends a BidProposal to the Dispatcher.
	PublishBidProposal(proposal model.BidProposal) error
	// SubscribeBidProposal registers a handler invoked for every incoming
	// BidProposal.
	SubscribeBidProposal(handler func(model.BidProposal)) (Unsubscribe, error)

	// PublishDispatchRequest sends a DispatchRequest to the named fleet.
	PublishDispatchRequest(req model.DispatchRequest) error
	// SubscribeDispatchRequest registers a handler invoked for every
	// incoming DispatchRequest.
	SubscribeDispatchRequest(handler func(model.DispatchRequest)) (Unsubscribe, error)

	// PublishDispatchAck sends a DispatchAck to the Dispatcher.
	PublishDispatchAck(ack model.DispatchAck) error
	// SubscribeDispatchAck registers a handler invoked for every incoming
	// DispatchAck.
	SubscribeDispatchAck(handler func(model.DispatchAck)) (Unsubscribe, error)

	// PublishTaskSummary relays a single task's status change.
	PublishTaskSummary(summary model.TaskSummary) error
	// SubscribeTaskSummary registers a handler invoked for every incoming
	// TaskSummary.
	SubscribeTaskSummary(handler func(model.TaskSummary)) (Unsubscribe, error)

	// PublishActiveTasks broadcasts the full active-task set on the
	// ongoing-tasks topic (§4.1 "Periodic publication").
	PublishActiveTasks(tasks []model.TaskStatus) error

	// PublishDockParamSummary broadcasts a fleet's dock parameter map
	// (§6 "DockParam stream").
	PublishDockParamSummary(summary model.DockParamSummary) error
	// SubscribeDockParamSummary registers a handler invoked for every
	// incoming DockParamSummary.
	SubscribeDockParamSummary(handler func(model.DockParamSummary)) (Unsubscribe, error)

	// Close releases the underlying transport connection.
	Close() error
}
