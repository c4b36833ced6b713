package metrics

import (
	"strconv"

	coremetrics "github.com/kilianp07/fleetctl/core/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// PromSink records auction, dispatch, queue-install, and active-task events
// as Prometheus metrics.
type PromSink struct {
	auctions     *prometheus.CounterVec
	auctionDur   *prometheus.HistogramVec
	dispatches   *prometheus.CounterVec
	queueInstall *prometheus.HistogramVec
	activeTasks  prometheus.Gauge
}

// NewPromSink registers the sink's metrics on the default Prometheus
// registerer. The Prometheus server should be started separately.
func NewPromSink() (coremetrics.MetricsSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer. A nil
// registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (coremetrics.MetricsSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	auctions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatcher_auctions_total",
		Help: "Total number of resolved auctions",
	}, []string{"won", "winning_fleet"})
	auctionDur := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dispatcher_auction_duration_seconds",
		Help:    "Time between start_bidding and the Auctioneer's winner callback",
		Buckets: prometheus.DefBuckets,
	}, []string{"won"})
	dispatches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatcher_dispatch_acks_total",
		Help: "Total number of DispatchAcks received, by method and fleet",
	}, []string{"fleet_name", "method", "success"})
	queueInstall := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fleet_queue_install_cost",
		Help:    "Total assignment cost installed on a fleet's task queues",
		Buckets: prometheus.DefBuckets,
	}, []string{"fleet_name"})
	activeTasks := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "dispatcher_active_tasks",
		Help: "Number of tasks currently tracked by the Dispatcher's active set",
	})

	if err := registerOrReuse(reg, auctions, &auctions); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, auctionDur, &auctionDur); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, dispatches, &dispatches); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, queueInstall, &queueInstall); err != nil {
		return nil, err
	}
	if err := reg.Register(activeTasks); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			activeTasks = are.ExistingCollector.(prometheus.Gauge)
		} else {
			return nil, err
		}
	}

	return &PromSink{
		auctions:     auctions,
		auctionDur:   auctionDur,
		dispatches:   dispatches,
		queueInstall: queueInstall,
		activeTasks:  activeTasks,
	}, nil
}

// registerOrReuse registers c, swapping *dst for the already-registered
// collector on a duplicate-registration error (e.g. under `go test -run`
// re-invoking New* against the default registerer).
func registerOrReuse[T prometheus.Collector](reg prometheus.Registerer, c T, dst *T) error {
	if err := reg.Register(c); err != nil {
		are, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			return err
		}
		existing, ok := are.ExistingCollector.(T)
		if !ok {
			return err
		}
		*dst = existing
	}
	return nil
}

// RecordAuction implements coremetrics.AuctionRecorder.
func (s *PromSink) RecordAuction(ev coremetrics.AuctionEvent) error {
	won := strconv.FormatBool(ev.Won)
	s.auctions.WithLabelValues(won, ev.WinningFleet).Inc()
	s.auctionDur.WithLabelValues(won).Observe(ev.Duration.Seconds())
	return nil
}

// RecordDispatch implements coremetrics.DispatchRecorder.
func (s *PromSink) RecordDispatch(ev coremetrics.DispatchEvent) error {
	s.dispatches.WithLabelValues(ev.FleetName, ev.Method, strconv.FormatBool(ev.Success)).Inc()
	return nil
}

// RecordQueueInstall implements coremetrics.QueueInstallRecorder.
func (s *PromSink) RecordQueueInstall(ev coremetrics.QueueInstallEvent) error {
	s.queueInstall.WithLabelValues(ev.FleetName).Observe(ev.Cost)
	return nil
}

// RecordActiveTaskCount implements coremetrics.ActiveTaskRecorder.
func (s *PromSink) RecordActiveTaskCount(count int) error {
	s.activeTasks.Set(float64(count))
	return nil
}

var _ coremetrics.MetricsSink = (*PromSink)(nil)
