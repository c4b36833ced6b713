package events

import "github.com/kilianp07/fleetctl/core/model"

// StatusEvent describes one TaskStatus transition (§3, §4.1 "Status
// ingress"). Nothing in this module constructs or publishes it.
type StatusEvent struct {
	TaskID    string
	FleetName string
	State     model.TaskState
}
