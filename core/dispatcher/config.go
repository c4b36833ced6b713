package dispatcher

import "time"

// Config defines Dispatcher-level settings (§6).
type Config struct {
	BiddingTimeWindowSeconds        float64 `json:"bidding_time_window_seconds"`
	TerminatedTasksMaxSize          int     `json:"terminated_tasks_max_size"`
	PublishActiveTasksPeriodSeconds float64 `json:"publish_active_tasks_period_seconds"`
}

// BiddingWindow converts the configured window to a time.Duration.
func (c Config) BiddingWindow() time.Duration {
	return time.Duration(c.BiddingTimeWindowSeconds * float64(time.Second))
}

// PublishActiveTasksPeriod converts the configured period to a time.Duration.
func (c Config) PublishActiveTasksPeriod() time.Duration {
	return time.Duration(c.PublishActiveTasksPeriodSeconds * float64(time.Second))
}
