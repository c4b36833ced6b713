// Package events defines payload types for in-process fleet-coordinator
// events (distinct from the MessageBus transport port, §6), not wire
// messages. No component in this module publishes them; they are plain
// structs with no bus attached.
//
// Available event types:
//   - StatusEvent: a TaskStatus transition
//   - BidEvent: a fleet's bid-evaluation outcome
//   - PlanEvent: TaskPlanner strategy selection and fallback information
package events
