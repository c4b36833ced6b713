package mqtt

import (
	"github.com/kilianp07/fleetctl/core/model"
	coremqtt "github.com/kilianp07/fleetctl/core/mqtt"
	"github.com/kilianp07/fleetctl/internal/eventbus"
)

// LoopbackBus implements core/mqtt.MessageBus entirely in-process using the
// teacher's generic TypedBus (internal/eventbus), one per message type. It
// is the default transport for single-process deployments and tests, where
// running a real broker would only add noise.
type LoopbackBus struct {
	bidNotice    *eventbus.TypedBus[model.BidNotice]
	bidProposal  *eventbus.TypedBus[model.BidProposal]
	dispatchReq  *eventbus.TypedBus[model.DispatchRequest]
	dispatchAck  *eventbus.TypedBus[model.DispatchAck]
	taskSummary  *eventbus.TypedBus[model.TaskSummary]
	activeTasks  *eventbus.TypedBus[[]model.TaskStatus]
	dockSummary  *eventbus.TypedBus[model.DockParamSummary]
}

// NewLoopbackBus builds a ready-to-use in-process MessageBus.
func NewLoopbackBus() *LoopbackBus {
	return &LoopbackBus{
		bidNotice:   eventbus.NewTyped[model.BidNotice](),
		bidProposal: eventbus.NewTyped[model.BidProposal](),
		dispatchReq: eventbus.NewTyped[model.DispatchRequest](),
		dispatchAck: eventbus.NewTyped[model.DispatchAck](),
		taskSummary: eventbus.NewTyped[model.TaskSummary](),
		activeTasks: eventbus.NewTyped[[]model.TaskStatus](),
		dockSummary: eventbus.NewTyped[model.DockParamSummary](),
	}
}

func subscribeTyped[T any](bus *eventbus.TypedBus[T], handler func(T)) coremqtt.Unsubscribe {
	ch := bus.Subscribe()
	done := make(chan struct{})
	go func() {
		for {
			select {
			case v, ok := <-ch:
				if !ok {
					return
				}
				handler(v)
			case <-done:
				return
			}
		}
	}()
	return func() {
		close(done)
		bus.Unsubscribe(ch)
	}
}

func (b *LoopbackBus) PublishBidNotice(notice model.BidNotice) error {
	b.bidNotice.Publish(notice)
	return nil
}

func (b *LoopbackBus) SubscribeBidNotice(handler func(model.BidNotice)) (coremqtt.Unsubscribe, error) {
	return subscribeTyped(b.bidNotice, handler), nil
}

func (b *LoopbackBus) PublishBidProposal(proposal model.BidProposal) error {
	b.bidProposal.Publish(proposal)
	return nil
}

func (b *LoopbackBus) SubscribeBidProposal(handler func(model.BidProposal)) (coremqtt.Unsubscribe, error) {
	return subscribeTyped(b.bidProposal, handler), nil
}

func (b *LoopbackBus) PublishDispatchRequest(req model.DispatchRequest) error {
	b.dispatchReq.Publish(req)
	return nil
}

func (b *LoopbackBus) SubscribeDispatchRequest(handler func(model.DispatchRequest)) (coremqtt.Unsubscribe, error) {
	return subscribeTyped(b.dispatchReq, handler), nil
}

func (b *LoopbackBus) PublishDispatchAck(ack model.DispatchAck) error {
	b.dispatchAck.Publish(ack)
	return nil
}

func (b *LoopbackBus) SubscribeDispatchAck(handler func(model.DispatchAck)) (coremqtt.Unsubscribe, error) {
	return subscribeTyped(b.dispatchAck, handler), nil
}

func (b *LoopbackBus) PublishTaskSummary(summary model.TaskSummary) error {
	b.taskSummary.Publish(summary)
	return nil
}

func (b *LoopbackBus) SubscribeTaskSummary(handler func(model.TaskSummary)) (coremqtt.Unsubscribe, error) {
	return subscribeTyped(b.taskSummary, handler), nil
}

func (b *LoopbackBus) PublishActiveTasks(tasks []model.TaskStatus) error {
	b.activeTasks.Publish(tasks)
	return nil
}

func (b *LoopbackBus) PublishDockParamSummary(summary model.DockParamSummary) error {
	b.dockSummary.Publish(summary)
	return nil
}

func (b *LoopbackBus) SubscribeDockParamSummary(handler func(model.DockParamSummary)) (coremqtt.Unsubscribe, error) {
	return subscribeTyped(b.dockSummary, handler), nil
}

// Close releases every underlying typed bus.
func (b *LoopbackBus) Close() error {
	b.bidNotice.Close()
	b.bidProposal.Close()
	b.dispatchReq.Close()
	b.dispatchAck.Close()
	b.taskSummary.Close()
	b.activeTasks.Close()
	b.dockSummary.Close()
	return nil
}

var _ coremqtt.MessageBus = (*LoopbackBus)(nil)
