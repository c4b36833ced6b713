package model

import "time"

// Waypoint is a single (x, y, yaw) pose, matching the Planner's nav-graph
// pose representation.
type Waypoint struct {
	X, Y, Yaw float64
}

// ResolvedClean is a Clean request after waypoint resolution and trajectory
// synthesis.
type ResolvedClean struct {
	StartWaypoint  string
	FinishWaypoint string
	Trajectory     []Waypoint
}

// ResolvedDelivery is a Delivery request after waypoint resolution.
type ResolvedDelivery struct {
	PickupWaypoint  string
	DropoffWaypoint string
	PickupDispenser string
	DropoffIngestor string
	DispenserWait   time.Duration
	DropoffWait     time.Duration
}

// ResolvedLoop is a Loop request after waypoint resolution.
type ResolvedLoop struct {
	StartWaypoint  string
	FinishWaypoint string
	NumLoops       int
}

// Request is the internal, planner-ready representation of a task built by
// FleetUpdateHandle.on_bid_notice from a TaskProfile (§4.3 step 6). Only the
// field matching Type is populated.
type Request struct {
	TaskID   string
	Type     TaskType
	Priority Priority

	Clean    *ResolvedClean
	Delivery *ResolvedDelivery
	Loop     *ResolvedLoop

	// SelfGenerated marks requests inserted by the TaskPlanner itself (e.g.
	// automatic ChargeBattery tasks) rather than by a user submission.
	SelfGenerated bool
}

// ExpectedFinishState is the predicted robot state after executing an
// Assignment.
type ExpectedFinishState struct {
	FinishTime time.Time
	BatterySoC float64
	Location   string
}

// Assignment binds a Request to a deployment time and predicted outcome for
// one robot position.
type Assignment struct {
	Request             *Request
	DeploymentTime      time.Time
	ExpectedFinishState ExpectedFinishState
}

// AssignmentBlock is the ordered queue of Assignments for a single robot.
type AssignmentBlock []Assignment

// Assignments is indexed by robot position; len(Assignments) must equal the
// number of TaskManagers whenever installed.
type Assignments []AssignmentBlock

// TaskID returns the request id of the assignment, or "" if no request is
// attached.
func (a Assignment) TaskID() string {
	if a.Request == nil {
		return ""
	}
	return a.Request.TaskID
}

// Find returns the robot index and the index within that robot's block of
// the assignment for taskID, or ok=false.
func (as Assignments) Find(taskID string) (robotIndex int, blockIndex int, ok bool) {
	for ri, block := range as {
		for bi, a := range block {
			if a.TaskID() == taskID {
				return ri, bi, true
			}
		}
	}
	return 0, 0, false
}
