package metrics

import coremetrics "github.com/kilianp07/fleetctl/core/metrics"

// MultiSink fans out recorded events to multiple sinks, mirroring the
// teacher's infra/metrics/multi.go. Used when both Prometheus and InfluxDB
// are enabled in config.MetricsConfig.
type MultiSink struct {
	Sinks []coremetrics.MetricsSink
}

// NewMultiSink creates a MultiSink wrapping the provided sinks.
func NewMultiSink(sinks ...coremetrics.MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordAuction forwards the event to every sink, returning the first error.
func (m *MultiSink) RecordAuction(ev coremetrics.AuctionEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordAuction(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordDispatch forwards the event to every sink, returning the first error.
func (m *MultiSink) RecordDispatch(ev coremetrics.DispatchEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordDispatch(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordQueueInstall forwards the event to every sink, returning the first error.
func (m *MultiSink) RecordQueueInstall(ev coremetrics.QueueInstallEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordQueueInstall(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordActiveTaskCount forwards the count to every sink, returning the first error.
func (m *MultiSink) RecordActiveTaskCount(n int) error {
	for _, s := range m.Sinks {
		if err := s.RecordActiveTaskCount(n); err != nil {
			return err
		}
	}
	return nil
}

var _ coremetrics.MetricsSink = (*MultiSink)(nil)
