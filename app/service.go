// Package app wires a Dispatcher and its Fleet Adapters from a loaded
// Config into one runnable Service, in the teacher's app/service.go style
// (app.New(cfg) / svc.Run(ctx) / svc.Close()).
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/fleetctl/config"
	"github.com/kilianp07/fleetctl/core/clock"
	"github.com/kilianp07/fleetctl/core/dispatcher"
	"github.com/kilianp07/fleetctl/core/fleet"
	"github.com/kilianp07/fleetctl/core/logger"
	coremetrics "github.com/kilianp07/fleetctl/core/metrics"
	coremqtt "github.com/kilianp07/fleetctl/core/mqtt"
	"github.com/kilianp07/fleetctl/core/negotiator"
	"github.com/kilianp07/fleetctl/core/planner"
	coretasklog "github.com/kilianp07/fleetctl/core/tasklog"
	infralogger "github.com/kilianp07/fleetctl/infra/logger"
	"github.com/kilianp07/fleetctl/infra/metrics"
	"github.com/kilianp07/fleetctl/infra/tasklog"
)

// Service orchestrates the Dispatcher and every configured Fleet Adapter.
type Service struct {
	Dispatcher *dispatcher.Dispatcher
	Fleets     []*fleet.Handle

	bus           coremqtt.MessageBus
	log           logger.Logger
	negotiators   *negotiator.Registry
	publishPeriod time.Duration
	promEnabled   bool
	promAddr      string
}

// New builds a Service from the configuration: the message bus, the
// Dispatcher, and one Handle per configured fleet with its robots joined.
func New(cfg *config.Config) (*Service, error) {
	log := infralogger.New("service")
	clk := clock.RealClock{}

	bus, err := config.NewBus(*cfg)
	if err != nil {
		return nil, fmt.Errorf("app: build bus: %w", err)
	}

	var sinks []coremetrics.MetricsSink
	if cfg.Metrics.PrometheusEnabled {
		promSink, err := metrics.NewPromSink()
		if err != nil {
			return nil, fmt.Errorf("app: prom sink: %w", err)
		}
		sinks = append(sinks, promSink)
	}
	if cfg.Metrics.InfluxEnabled {
		influxSink := metrics.NewInfluxSinkWithFallback(
			cfg.Metrics.InfluxURL, cfg.Metrics.InfluxToken, cfg.Metrics.InfluxOrg, cfg.Metrics.InfluxBucket)
		sinks = append(sinks, influxSink)
	}
	var sink coremetrics.MetricsSink = coremetrics.NopSink{}
	switch len(sinks) {
	case 0:
	case 1:
		sink = sinks[0]
	default:
		sink = metrics.NewMultiSink(sinks...)
	}

	taskLog, err := buildTaskLog(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("app: build tasklog store: %w", err)
	}

	ids := clock.NewTaskIDCounter()
	disp, err := dispatcher.New(bus, log, clk, ids, cfg.Dispatcher.BiddingWindow(), cfg.Dispatcher.TerminatedTasksMaxSize,
		dispatcher.WithMetricsSink(sink),
		dispatcher.WithTaskLog(taskLog),
	)
	if err != nil {
		return nil, fmt.Errorf("app: build dispatcher: %w", err)
	}

	svc := &Service{
		Dispatcher:    disp,
		bus:           bus,
		log:           log,
		negotiators:   negotiator.NewRegistry(clk),
		publishPeriod: cfg.Dispatcher.PublishActiveTasksPeriod(),
		promEnabled:   cfg.Metrics.PrometheusEnabled,
		promAddr:      cfg.Metrics.PrometheusAddr,
	}

	for _, fleetCfg := range cfg.Fleets {
		h, err := svc.buildFleet(fleetCfg, bus, log, clk, sink)
		if err != nil {
			return nil, fmt.Errorf("app: build fleet %q: %w", fleetCfg.Name, err)
		}
		svc.Fleets = append(svc.Fleets, h)
	}

	return svc, nil
}

func (s *Service) buildFleet(cfg fleet.Config, bus coremqtt.MessageBus, log logger.Logger, clk clock.Clock, sink coremetrics.MetricsSink) (*fleet.Handle, error) {
	pl := planner.NewStaticGraph(cfg.Waypoints)
	tp, err := config.NewTaskPlanner(cfg.TaskPlannerKind, cfg.TaskPlanner)
	if err != nil {
		return nil, err
	}
	h, err := fleet.New(cfg.Name, bus, log, clk, pl, tp,
		fleet.WithMetricsSink(sink),
		fleet.WithNegotiatorRegistry(s.negotiators),
	)
	if err != nil {
		return nil, err
	}
	for _, start := range cfg.RobotStarts {
		registerParticipant := func() (string, error) { return uuid.NewString(), nil }
		if _, err := h.AddRobot(start, cfg.ChargerCandidates, registerParticipant, nil); err != nil {
			return nil, fmt.Errorf("add_robot %q: %w", start, err)
		}
	}
	return h, nil
}

// Run starts the Dispatcher's and every Fleet Adapter's worker, the
// periodic active-tasks publication, and (if enabled) the Prometheus HTTP
// exposition server, blocking until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	go s.Dispatcher.Run(ctx)
	for _, h := range s.Fleets {
		go h.Run(ctx)
	}
	go s.Dispatcher.RunPeriodicPublication(ctx, s.publishPeriod)
	if s.promEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.promAddr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	<-ctx.Done()
	return nil
}

// buildTaskLog constructs the optional dispatch-log sink named by cfg's
// backend ("jsonl", "sqlite", or "" for disabled).
func buildTaskLog(cfg config.LoggingConfig) (coretasklog.Store, error) {
	switch cfg.Backend {
	case "":
		return coretasklog.NopStore{}, nil
	case "jsonl":
		return tasklog.NewJSONLStore(cfg.Path)
	case "sqlite":
		return tasklog.NewSQLiteStore(cfg.Path)
	default:
		return nil, fmt.Errorf("app: unknown tasklog backend %q", cfg.Backend)
	}
}

// Close releases resources held by the Service.
func (s *Service) Close() error { return nil }
