// Package metrics defines the observability port the Dispatcher and
// FleetUpdateHandle cores record onto, mirroring the teacher's
// one-narrow-interface-per-event-kind composition (core/metrics/metrics.go)
// narrowed to the fleet-coordinator's own event kinds.
package metrics

import "time"

// AuctionEvent records the outcome of one task's auction window (§4.2).
type AuctionEvent struct {
	TaskID        string
	ProposalCount int
	Won           bool
	WinningFleet  string
	Duration      time.Duration
	Time          time.Time
}

// AuctionRecorder records auction outcomes.
type AuctionRecorder interface {
	RecordAuction(ev AuctionEvent) error
}

// DispatchEvent records a DispatchRequest/DispatchAck round trip (§4.4).
type DispatchEvent struct {
	TaskID    string
	FleetName string
	Method    string
	Success   bool
	Time      time.Time
}

// DispatchRecorder records dispatch ADD/CANCEL outcomes.
type DispatchRecorder interface {
	RecordDispatch(ev DispatchEvent) error
}

// QueueInstallEvent records a successful set_queue installation across a
// fleet's TaskManagers (§4.4, §4.5).
type QueueInstallEvent struct {
	FleetName  string
	RobotCount int
	Cost       float64
	Time       time.Time
}

// QueueInstallRecorder records queue installations.
type QueueInstallRecorder interface {
	RecordQueueInstall(ev QueueInstallEvent) error
}

// ActiveTaskRecorder records the size of the Dispatcher's active-task set
// (§4.1 "Periodic publication").
type ActiveTaskRecorder interface {
	RecordActiveTaskCount(n int) error
}

// MetricsSink is the full observability port consumed by the core.
type MetricsSink interface {
	AuctionRecorder
	DispatchRecorder
	QueueInstallRecorder
	ActiveTaskRecorder
}

// NopSink implements MetricsSink with no-op methods, used when no metrics
// backend is configured.
type NopSink struct{}

func (NopSink) RecordAuction(AuctionEvent) error           { return nil }
func (NopSink) RecordDispatch(DispatchEvent) error         { return nil }
func (NopSink) RecordQueueInstall(QueueInstallEvent) error { return nil }
func (NopSink) RecordActiveTaskCount(int) error            { return nil }

var _ MetricsSink = NopSink{}
