package metrics

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/fleetctl/core/metrics"
	"github.com/kilianp07/fleetctl/infra/logger"
)

// InfluxSink writes auction, dispatch, queue-install, and active-task events
// to an InfluxDB instance using the official client, mirroring the teacher's
// infra/metrics/influx.go.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and returns a
// NopSink if the health check fails, so a misconfigured or unreachable
// InfluxDB never blocks the Dispatcher.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordAuction implements coremetrics.AuctionRecorder.
func (s *InfluxSink) RecordAuction(ev coremetrics.AuctionEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("auction_event").
		AddTag("task_id", ev.TaskID).
		AddTag("won", strconv.FormatBool(ev.Won)).
		AddTag("winning_fleet", ev.WinningFleet).
		AddField("proposal_count", ev.ProposalCount).
		AddField("duration_ms", float64(ev.Duration.Milliseconds())).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordDispatch implements coremetrics.DispatchRecorder.
func (s *InfluxSink) RecordDispatch(ev coremetrics.DispatchEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("dispatch_event").
		AddTag("task_id", ev.TaskID).
		AddTag("fleet_name", ev.FleetName).
		AddTag("method", ev.Method).
		AddTag("success", strconv.FormatBool(ev.Success)).
		AddField("success_val", ev.Success).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordQueueInstall implements coremetrics.QueueInstallRecorder.
func (s *InfluxSink) RecordQueueInstall(ev coremetrics.QueueInstallEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("queue_install_event").
		AddTag("fleet_name", ev.FleetName).
		AddField("robot_count", ev.RobotCount).
		AddField("cost", round3(ev.Cost)).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordActiveTaskCount implements coremetrics.ActiveTaskRecorder.
func (s *InfluxSink) RecordActiveTaskCount(n int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("active_task_count").
		AddField("count", n).
		SetTime(time.Now())
	return s.writeAPI.WritePoint(ctx, p)
}

func round3(f float64) float64 {
	return float64(int64(f*1000+0.5)) / 1000
}

var _ coremetrics.MetricsSink = (*InfluxSink)(nil)
