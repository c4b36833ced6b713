package mqtt

// Topic names are stable per §6 "Messaging topics / services".
const (
	topicBidNotice        = "fleet/bid_notice"
	topicBidProposal      = "fleet/bid_proposal"
	topicDispatchRequest  = "fleet/dispatch_request"
	topicDispatchAck      = "fleet/dispatch_ack"
	topicTaskSummary      = "fleet/task_summary"
	topicActiveTasks      = "fleet/active_tasks"
	topicDockParamSummary = "fleet/dock_params"
)
