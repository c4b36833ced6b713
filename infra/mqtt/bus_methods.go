package mqtt

import (
	coremqtt "github.com/kilianp07/fleetctl/core/mqtt"
	"github.com/kilianp07/fleetctl/core/model"
)

// PublishBidNotice implements core/mqtt.MessageBus.
func (b *Bus) PublishBidNotice(notice model.BidNotice) error {
	return b.publish(topicBidNotice, notice)
}

// SubscribeBidNotice implements core/mqtt.MessageBus.
func (b *Bus) SubscribeBidNotice(handler func(model.BidNotice)) (coremqtt.Unsubscribe, error) {
	return b.subscribe(topicBidNotice, func(payload []byte) {
		if v, ok := decodeInto[model.BidNotice](payload, b.logger, topicBidNotice); ok {
			handler(v)
		}
	})
}

// PublishBidProposal implements core/mqtt.MessageBus.
func (b *Bus) PublishBidProposal(proposal model.BidProposal) error {
	return b.publish(topicBidProposal, proposal)
}

// SubscribeBidProposal implements core/mqtt.MessageBus.
func (b *Bus) SubscribeBidProposal(handler func(model.BidProposal)) (coremqtt.Unsubscribe, error) {
	return b.subscribe(topicBidProposal, func(payload []byte) {
		if v, ok := decodeInto[model.BidProposal](payload, b.logger, topicBidProposal); ok {
			handler(v)
		}
	})
}

// PublishDispatchRequest implements core/mqtt.MessageBus.
func (b *Bus) PublishDispatchRequest(req model.DispatchRequest) error {
	return b.publish(topicDispatchRequest, req)
}

// SubscribeDispatchRequest implements core/mqtt.MessageBus.
func (b *Bus) SubscribeDispatchRequest(handler func(model.DispatchRequest)) (coremqtt.Unsubscribe, error) {
	return b.subscribe(topicDispatchRequest, func(payload []byte) {
		if v, ok := decodeInto[model.DispatchRequest](payload, b.logger, topicDispatchRequest); ok {
			handler(v)
		}
	})
}

// PublishDispatchAck implements core/mqtt.MessageBus.
func (b *Bus) PublishDispatchAck(ack model.DispatchAck) error {
	return b.publish(topicDispatchAck, ack)
}

// SubscribeDispatchAck implements core/mqtt.MessageBus.
func (b *Bus) SubscribeDispatchAck(handler func(model.DispatchAck)) (coremqtt.Unsubscribe, error) {
	return b.subscribe(topicDispatchAck, func(payload []byte) {
		if v, ok := decodeInto[model.DispatchAck](payload, b.logger, topicDispatchAck); ok {
			handler(v)
		}
	})
}

// PublishTaskSummary implements core/mqtt.MessageBus.
func (b *Bus) PublishTaskSummary(summary model.TaskSummary) error {
	return b.publish(topicTaskSummary, summary)
}

// SubscribeTaskSummary implements core/mqtt.MessageBus.
func (b *Bus) SubscribeTaskSummary(handler func(model.TaskSummary)) (coremqtt.Unsubscribe, error) {
	return b.subscribe(topicTaskSummary, func(payload []byte) {
		if v, ok := decodeInto[model.TaskSummary](payload, b.logger, topicTaskSummary); ok {
			handler(v)
		}
	})
}

// PublishActiveTasks implements core/mqtt.MessageBus.
func (b *Bus) PublishActiveTasks(tasks []model.TaskStatus) error {
	return b.publish(topicActiveTasks, tasks)
}

// PublishDockParamSummary implements core/mqtt.MessageBus.
func (b *Bus) PublishDockParamSummary(summary model.DockParamSummary) error {
	return b.publish(topicDockParamSummary, summary)
}

// SubscribeDockParamSummary implements core/mqtt.MessageBus.
func (b *Bus) SubscribeDockParamSummary(handler func(model.DockParamSummary)) (coremqtt.Unsubscribe, error) {
	return b.subscribe(topicDockParamSummary, func(payload []byte) {
		if v, ok := decodeInto[model.DockParamSummary](payload, b.logger, topicDockParamSummary); ok {
			handler(v)
		}
	})
}

var _ coremqtt.MessageBus = (*Bus)(nil)
