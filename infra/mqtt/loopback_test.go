package mqtt

import (
	"testing"
	"time"

	"github.com/kilianp07/fleetctl/core/model"
)

func TestLoopbackBus_BidNoticeRoundTrip(t *testing.T) {
	bus := NewLoopbackBus()
	defer bus.Close()

	received := make(chan model.BidNotice, 1)
	unsub, err := bus.SubscribeBidNotice(func(n model.BidNotice) { received <- n })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer unsub()

	notice := model.BidNotice{TaskProfile: model.TaskProfile{TaskID: "Delivery0"}, TimeWindow: 2 * time.Second}
	if err := bus.PublishBidNotice(notice); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	select {
	case got := <-received:
		if got.TaskProfile.TaskID != "Delivery0" {
			t.Fatalf("unexpected task id: %s", got.TaskProfile.TaskID)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for bid notice")
	}
}

func TestLoopbackBus_UnsubscribeStopsDelivery(t *testing.T) {
	bus := NewLoopbackBus()
	defer bus.Close()

	received := make(chan model.DispatchAck, 1)
	unsub, _ := bus.SubscribeDispatchAck(func(a model.DispatchAck) { received <- a })
	unsub()

	_ = bus.PublishDispatchAck(model.DispatchAck{TaskID: "Delivery0"})

	select {
	case <-received:
		t.Fatal("expected no delivery after unsubscribe")
	case <-time.After(100 * time.Millisecond):
	}
}
