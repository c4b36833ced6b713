package metrics

import "testing"

func TestNopSink_SatisfiesMetricsSink(t *testing.T) {
	var sink MetricsSink = NopSink{}
	if err := sink.RecordAuction(AuctionEvent{TaskID: "Delivery0"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := sink.RecordDispatch(DispatchEvent{TaskID: "Delivery0"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := sink.RecordQueueInstall(QueueInstallEvent{FleetName: "fleet-a"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := sink.RecordActiveTaskCount(3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
