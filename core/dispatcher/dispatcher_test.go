package dispatcher

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/kilianp07/fleetctl/core/clock"
	"github.com/kilianp07/fleetctl/core/model"
	coremqtt "github.com/kilianp07/fleetctl/core/mqtt"
	"github.com/kilianp07/fleetctl/core/tasklog"
)

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any)         {}
func (nopLogger) Debugw(string, map[string]any) {}
func (nopLogger) Infof(string, ...any)          {}
func (nopLogger) Warnf(string, ...any)          {}
func (nopLogger) Errorf(string, ...any)         {}

// fakeBus is a minimal in-memory MessageBus wiring the Auctioneer's
// bid-proposal subscription and the Dispatcher's own ack/summary
// subscriptions to handlers a test can invoke directly, simulating a Fleet
// Adapter on the other end of the wire.
type fakeBus struct {
	notices        []model.BidNotice
	dispatchReqs   []model.DispatchRequest
	activeTasks    [][]model.TaskStatus
	proposalHandler func(model.BidProposal)
	ackHandler      func(model.DispatchAck)
	summaryHandler  func(model.TaskSummary)
}

func (b *fakeBus) PublishBidNotice(n model.BidNotice) error {
	b.notices = append(b.notices, n)
	return nil
}
func (b *fakeBus) SubscribeBidNotice(func(model.BidNotice)) (coremqtt.Unsubscribe, error) {
	return func() {}, nil
}
func (b *fakeBus) PublishBidProposal(model.BidProposal) error { return nil }
func (b *fakeBus) SubscribeBidProposal(handler func(model.BidProposal)) (coremqtt.Unsubscribe, error) {
	b.proposalHandler = handler
	return func() {}, nil
}
func (b *fakeBus) PublishDispatchRequest(r model.DispatchRequest) error {
	b.dispatchReqs = append(b.dispatchReqs, r)
	return nil
}
func (b *fakeBus) SubscribeDispatchRequest(func(model.DispatchRequest)) (coremqtt.Unsubscribe, error) {
	return func() {}, nil
}
func (b *fakeBus) PublishDispatchAck(model.DispatchAck) error { return nil }
func (b *fakeBus) SubscribeDispatchAck(handler func(model.DispatchAck)) (coremqtt.Unsubscribe, error) {
	b.ackHandler = handler
	return func() {}, nil
}
func (b *fakeBus) PublishTaskSummary(model.TaskSummary) error { return nil }
func (b *fakeBus) SubscribeTaskSummary(handler func(model.TaskSummary)) (coremqtt.Unsubscribe, error) {
	b.summaryHandler = handler
	return func() {}, nil
}
func (b *fakeBus) PublishActiveTasks(tasks []model.TaskStatus) error {
	b.activeTasks = append(b.activeTasks, tasks)
	return nil
}
func (b *fakeBus) PublishDockParamSummary(model.DockParamSummary) error { return nil }
func (b *fakeBus) SubscribeDockParamSummary(func(model.DockParamSummary)) (coremqtt.Unsubscribe, error) {
	return func() {}, nil
}
func (b *fakeBus) Close() error { return nil }

var _ coremqtt.MessageBus = (*fakeBus)(nil)

// deliverProposal simulates a Fleet Adapter bidding on the task currently
// under auction.
func (b *fakeBus) deliverProposal(p model.BidProposal) {
	if b.proposalHandler != nil {
		b.proposalHandler(p)
	}
}

func (b *fakeBus) deliverAck(a model.DispatchAck) {
	if b.ackHandler != nil {
		b.ackHandler(a)
	}
}

func (b *fakeBus) deliverSummary(s model.TaskSummary) {
	if b.summaryHandler != nil {
		b.summaryHandler(s)
	}
}

const testWindow = 20 * time.Millisecond

func newTestDispatcher(t *testing.T, bus *fakeBus, maxTerminal int) *Dispatcher {
	t.Helper()
	d, err := New(bus, nopLogger{}, clock.NewFakeClock(time.Unix(0, 0)), clock.NewTaskIDCounter(), testWindow, maxTerminal)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go d.Run(ctx)
	return d
}

func cleanDescription(start string) model.TaskDescription {
	return model.TaskDescription{Type: model.TaskClean, Clean: model.CleanDescription{StartWaypoint: start}}
}

func waitForState(t *testing.T, d *Dispatcher, taskID string, want model.TaskState) model.TaskStatus {
	t.Helper()
	deadline := time.After(time.Second)
	for {
		status, ok := d.GetTaskState(taskID)
		if ok && status.State == want {
			return status
		}
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for %s to reach %s, last seen %+v (found=%v)", taskID, want, status, ok)
		case <-time.After(time.Millisecond):
		}
	}
}

func TestSubmit_HappyPath_AwardsAndAcks(t *testing.T) {
	bus := &fakeBus{}
	d := newTestDispatcher(t, bus, 10)

	taskID, err := d.Submit(cleanDescription("A"), model.PriorityLow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bus.deliverProposal(model.BidProposal{TaskID: taskID, FleetName: "fleet-a", RobotName: "robot_0", NewCost: 5})

	status := waitForState(t, d, taskID, model.TaskQueued)
	if status.FleetName != "fleet-a" {
		t.Fatalf("expected fleet-a to win, got %+v", status)
	}
	if len(bus.dispatchReqs) != 1 || bus.dispatchReqs[0].Method != model.DispatchAdd {
		t.Fatalf("expected an ADD dispatch request, got %+v", bus.dispatchReqs)
	}

	bus.deliverAck(model.DispatchAck{TaskID: taskID, FleetName: "fleet-a", Success: true})

	// An ADD ack with success=true leaves the task Queued awaiting execution.
	status, ok := d.GetTaskState(taskID)
	if !ok || status.State != model.TaskQueued {
		t.Fatalf("expected task to remain Queued after a successful ADD ack, got %+v (found=%v)", status, ok)
	}
}

func TestSubmit_NoBid_FailsTask(t *testing.T) {
	bus := &fakeBus{}
	d := newTestDispatcher(t, bus, 10)

	taskID, err := d.Submit(cleanDescription("A"), model.PriorityLow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	waitForState(t, d, taskID, model.TaskFailed)
}

func TestDispatchAdd_FailureAck_FailsTask(t *testing.T) {
	bus := &fakeBus{}
	d := newTestDispatcher(t, bus, 10)

	taskID, err := d.Submit(cleanDescription("A"), model.PriorityLow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bus.deliverProposal(model.BidProposal{TaskID: taskID, FleetName: "fleet-a", RobotName: "robot_0", NewCost: 5})
	waitForState(t, d, taskID, model.TaskQueued)

	bus.deliverAck(model.DispatchAck{TaskID: taskID, FleetName: "fleet-a", Success: false})

	waitForState(t, d, taskID, model.TaskFailed)
}

func TestCancel_PendingTask_TerminatesImmediately(t *testing.T) {
	bus := &fakeBus{}
	d, err := New(bus, nopLogger{}, clock.NewFakeClock(time.Unix(0, 0)), clock.NewTaskIDCounter(), time.Hour, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	taskID, err := d.Submit(cleanDescription("A"), model.PriorityLow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !d.Cancel(taskID) {
		t.Fatalf("expected cancel of a pending task to succeed")
	}
	status, ok := d.GetTaskState(taskID)
	if !ok || status.State != model.TaskCanceled {
		t.Fatalf("expected task to be Canceled, got %+v (found=%v)", status, ok)
	}
}

func TestCancel_QueuedTask_RequestsCancelAndAcks(t *testing.T) {
	bus := &fakeBus{}
	d := newTestDispatcher(t, bus, 10)

	taskID, err := d.Submit(cleanDescription("A"), model.PriorityLow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bus.deliverProposal(model.BidProposal{TaskID: taskID, FleetName: "fleet-a", RobotName: "robot_0", NewCost: 5})
	waitForState(t, d, taskID, model.TaskQueued)

	if !d.Cancel(taskID) {
		t.Fatalf("expected cancel of a queued task to be accepted")
	}
	found := false
	for _, r := range bus.dispatchReqs {
		if r.TaskID == taskID && r.Method == model.DispatchCancel {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a CANCEL dispatch request, got %+v", bus.dispatchReqs)
	}

	bus.deliverAck(model.DispatchAck{TaskID: taskID, FleetName: "fleet-a", Success: true})
	waitForState(t, d, taskID, model.TaskCanceled)
}

func TestCancel_ActiveTask_Refused(t *testing.T) {
	bus := &fakeBus{}
	d := newTestDispatcher(t, bus, 10)

	taskID, err := d.Submit(cleanDescription("A"), model.PriorityLow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bus.deliverProposal(model.BidProposal{TaskID: taskID, FleetName: "fleet-a", RobotName: "robot_0", NewCost: 5})
	status := waitForState(t, d, taskID, model.TaskQueued)

	cp := status
	cp.State = model.TaskActive
	bus.deliverSummary(model.TaskSummary{TaskID: taskID, Status: cp})
	waitForState(t, d, taskID, model.TaskActive)

	if d.Cancel(taskID) {
		t.Fatalf("expected cancel of an active task to be refused")
	}
	status, ok := d.GetTaskState(taskID)
	if !ok || status.State != model.TaskActive {
		t.Fatalf("expected task to remain Active, got %+v (found=%v)", status, ok)
	}
}

func TestCancel_AlreadyCanceled_IsIdempotent(t *testing.T) {
	bus := &fakeBus{}
	d, err := New(bus, nopLogger{}, clock.NewFakeClock(time.Unix(0, 0)), clock.NewTaskIDCounter(), time.Hour, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	taskID, err := d.Submit(cleanDescription("A"), model.PriorityLow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !d.Cancel(taskID) {
		t.Fatalf("expected first cancel to succeed")
	}
	if !d.Cancel(taskID) {
		t.Fatalf("expected a second cancel of an already-Canceled task to succeed idempotently")
	}
}

func TestCancel_Unknown_ReturnsFalse(t *testing.T) {
	bus := &fakeBus{}
	d, err := New(bus, nopLogger{}, clock.NewFakeClock(time.Unix(0, 0)), clock.NewTaskIDCounter(), time.Hour, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	if d.Cancel("nonexistent") {
		t.Fatalf("expected cancel of an unknown task id to return false")
	}
}

func TestTerminalSet_EvictsOldestOnOverflow(t *testing.T) {
	bus := &fakeBus{}
	fc := clock.NewFakeClock(time.Unix(0, 0))
	d, err := New(bus, nopLogger{}, fc, clock.NewTaskIDCounter(), time.Hour, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	var ids []string
	for i := 0; i < 3; i++ {
		taskID, err := d.Submit(cleanDescription("A"), model.PriorityLow)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !d.Cancel(taskID) {
			t.Fatalf("expected cancel to succeed for %s", taskID)
		}
		ids = append(ids, taskID)
		// Give each task a distinct submission time so "oldest" is well defined.
		fc.Advance(time.Second)
	}

	terminal := d.TerminatedTasks()
	if len(terminal) != 2 {
		t.Fatalf("expected the terminal set capped at 2, got %d: %+v", len(terminal), terminal)
	}
	if _, ok := d.GetTaskState(ids[0]); ok {
		t.Fatalf("expected the oldest terminal task %s to be evicted", ids[0])
	}
}

func TestAuctionWin_ReclaimsSelfGeneratedTasksOnSameFleet(t *testing.T) {
	bus := &fakeBus{}
	d := newTestDispatcher(t, bus, 10)

	// Seed a self-generated task on fleet-a directly: not present in
	// userSubmitted, mirroring a task the fleet's own planner inserted (e.g. a
	// recharge trip) and the Dispatcher adopted from a TaskSummary, rather
	// than one a caller Submit()ted.
	d.do(func() {
		selfGen := &model.TaskStatus{
			TaskProfile: model.TaskProfile{TaskID: "ChargeBattery0"},
			State:       model.TaskQueued,
			FleetName:   "fleet-a",
		}
		d.activeTasks["ChargeBattery0"] = selfGen
	})

	taskID, err := d.Submit(cleanDescription("A"), model.PriorityLow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bus.deliverProposal(model.BidProposal{TaskID: taskID, FleetName: "fleet-a", RobotName: "robot_0", NewCost: 5})
	waitForState(t, d, taskID, model.TaskQueued)

	status, ok := d.GetTaskState("ChargeBattery0")
	if !ok || status.State != model.TaskCanceled {
		t.Fatalf("expected the self-generated task to be reclaimed (Canceled), got %+v (found=%v)", status, ok)
	}
}

func TestTaskSummary_AdoptsStrayTask(t *testing.T) {
	bus := &fakeBus{}
	d := newTestDispatcher(t, bus, 10)

	bus.deliverSummary(model.TaskSummary{
		TaskID: "Loop7",
		Status: model.TaskStatus{
			TaskProfile: model.TaskProfile{TaskID: "Loop7"},
			State:       model.TaskActive,
			FleetName:   "fleet-a",
		},
	})

	status, ok := d.GetTaskState("Loop7")
	if !ok || status.State != model.TaskActive {
		t.Fatalf("expected the stray task to be adopted as Active, got %+v (found=%v)", status, ok)
	}
}

func TestSubmit_RejectsUnknownTaskType(t *testing.T) {
	bus := &fakeBus{}
	d := newTestDispatcher(t, bus, 10)

	if _, err := d.Submit(model.TaskDescription{Type: model.TaskType(99)}, model.PriorityLow); err == nil {
		t.Fatalf("expected an error for an unknown task type")
	}
}

func TestSubmit_TwoTasks_GetDistinctIDs(t *testing.T) {
	bus := &fakeBus{}
	d := newTestDispatcher(t, bus, 10)

	first, err := d.Submit(cleanDescription("A"), model.PriorityLow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bus.deliverProposal(model.BidProposal{TaskID: first, FleetName: "fleet-a", RobotName: "robot_0", NewCost: 5})
	waitForState(t, d, first, model.TaskQueued)

	second, err := d.Submit(cleanDescription("A"), model.PriorityLow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first == second {
		t.Fatalf("expected distinct task ids, got %s twice", first)
	}
}

// fakeTaskLog records every Append call for assertions, standing in for a
// real tasklog.Store backend.
type fakeTaskLog struct {
	mu      sync.Mutex
	records []tasklog.Record
}

func (f *fakeTaskLog) Append(_ context.Context, rec tasklog.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, rec)
	return nil
}
func (f *fakeTaskLog) Query(context.Context, tasklog.Query) ([]tasklog.Record, error) { return nil, nil }
func (f *fakeTaskLog) Close() error                                                   { return nil }

func (f *fakeTaskLog) snapshot() []tasklog.Record {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]tasklog.Record, len(f.records))
	copy(out, f.records)
	return out
}

func TestSubmit_NoBid_LogsFailedTaskToTaskLog(t *testing.T) {
	bus := &fakeBus{}
	log := &fakeTaskLog{}
	d, err := New(bus, nopLogger{}, clock.NewFakeClock(time.Unix(0, 0)), clock.NewTaskIDCounter(), testWindow, 10, WithTaskLog(log))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	taskID, err := d.Submit(cleanDescription("A"), model.PriorityLow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	waitForState(t, d, taskID, model.TaskFailed)

	recs := log.snapshot()
	if len(recs) != 1 || recs[0].TaskID != taskID || recs[0].State != "Failed" {
		t.Fatalf("expected one Failed record for %s, got %+v", taskID, recs)
	}
}
