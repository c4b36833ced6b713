// Package model defines the typed task descriptions, statuses, assignments,
// and wire messages shared by the Dispatcher and Fleet Adapter cores. It
// mirrors the teacher's core/model package in spirit (small, dependency-free
// structs with String() helpers) but describes robot tasks rather
// than EV dispatch signals.
package model

import (
	"fmt"
	"time"
)

// TaskType is the closed tagged-union discriminant for task descriptions.
type TaskType int

const (
	TaskClean TaskType = iota
	TaskDelivery
	TaskLoop
	TaskChargeBattery
	TaskStation
	TaskPatrol
)

// String returns the canonical type name used to build task ids.
func (t TaskType) String() string {
	switch t {
	case TaskClean:
		return "Clean"
	case TaskDelivery:
		return "Delivery"
	case TaskLoop:
		return "Loop"
	case TaskChargeBattery:
		return "ChargeBattery"
	case TaskStation:
		return "Station"
	case TaskPatrol:
		return "Patrol"
	default:
		return "Unknown"
	}
}

// ParseTaskType resolves a type name back into a TaskType. The bool result is
// false for any name outside the closed union.
func ParseTaskType(name string) (TaskType, bool) {
	for _, t := range []TaskType{TaskClean, TaskDelivery, TaskLoop, TaskChargeBattery, TaskStation, TaskPatrol} {
		if t.String() == name {
			return t, true
		}
	}
	return 0, false
}

// Priority is a binary submission priority.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityHigh
)

// PriorityFromValue maps a raw numeric priority (as submitted by a caller)
// onto the binary Priority: any positive value is high, everything else low.
func PriorityFromValue(value float64) Priority {
	if value > 0 {
		return PriorityHigh
	}
	return PriorityLow
}

func (p Priority) String() string {
	if p == PriorityHigh {
		return "high"
	}
	return "low"
}

// CleanDescription describes a cleaning task's start waypoint.
type CleanDescription struct {
	StartWaypoint string
}

// DeliveryDescription describes a pickup/dropoff pair.
type DeliveryDescription struct {
	PickupPlaceName  string
	PickupDispenser  string
	DropoffPlaceName string
	DropoffIngestor  string
}

// LoopDescription describes a repeated traversal between two waypoints.
type LoopDescription struct {
	StartName  string
	FinishName string
	NumLoops   int
}

// TaskDescription is the closed tagged union over the supported task types.
// Only the field matching Type is meaningful; the others are left zero.
type TaskDescription struct {
	Type     TaskType
	Clean    CleanDescription
	Delivery DeliveryDescription
	Loop     LoopDescription
}

// TaskProfile is the canonical, immutable description of a submitted task.
type TaskProfile struct {
	TaskID         string
	SubmissionTime time.Time
	Description    TaskDescription
	StartTime      time.Time
	Priority       Priority
}

// TaskState is a node in the TaskStatus state machine.
type TaskState int

const (
	TaskPending TaskState = iota
	TaskQueued
	TaskActive
	TaskCompleted
	TaskFailed
	TaskCanceled
)

func (s TaskState) String() string {
	switch s {
	case TaskPending:
		return "Pending"
	case TaskQueued:
		return "Queued"
	case TaskActive:
		return "Active"
	case TaskCompleted:
		return "Completed"
	case TaskFailed:
		return "Failed"
	case TaskCanceled:
		return "Canceled"
	default:
		return "Unknown"
	}
}

// Terminal reports whether no further transitions occur from this state.
func (s TaskState) Terminal() bool {
	return s == TaskCompleted || s == TaskFailed || s == TaskCanceled
}

// validTransitions encodes the monotonic transition DAG from §3: Pending can
// reach Queued/Canceled/Failed; Queued can reach Active/Canceled/Failed;
// Active can reach Completed/Failed only.
var validTransitions = map[TaskState]map[TaskState]bool{
	TaskPending: {TaskQueued: true, TaskCanceled: true, TaskFailed: true},
	TaskQueued:  {TaskActive: true, TaskCanceled: true, TaskFailed: true},
	TaskActive:  {TaskCompleted: true, TaskFailed: true},
}

// CanTransition reports whether moving from s to next is permitted.
func (s TaskState) CanTransition(next TaskState) bool {
	return validTransitions[s][next]
}

// TaskStatus is the mutable lifecycle record for a submitted task.
type TaskStatus struct {
	TaskProfile TaskProfile
	State       TaskState
	FleetName   string // set once a bid is won; empty until then
}

// Transition moves the status to next if the move is permitted by the DAG.
func (s *TaskStatus) Transition(next TaskState) error {
	if !s.State.CanTransition(next) {
		return fmt.Errorf("model: invalid transition %s -> %s for task %s", s.State, next, s.TaskProfile.TaskID)
	}
	s.State = next
	return nil
}
