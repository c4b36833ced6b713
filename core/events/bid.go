package events

import "time"

// BidEvent describes one fleet's bid-evaluation outcome (§4.3
// "on_bid_notice"), successful or skipped. Nothing in this module
// constructs or publishes it.
type BidEvent struct {
	TaskID    string
	FleetName string
	Proposed  bool
	Err       error
	Latency   time.Duration
}
