package metrics

import (
	"context"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/macmarek/scheduling-assistant/core/metrics"
	"github.com/macmarek/scheduling-assistant/infra/logger"
)

// InfluxSink writes scheduling runs to an InfluxDB instance using the official client.
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

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
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

// RecordRun writes one schedule_run point.
func (s *InfluxSink) RecordRun(ev coremetrics.RunEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("schedule_run").
		AddTag("outcome", ev.Outcome).
		AddTag("run_id", ev.RunID)
	if ev.Status != "" {
		p = p.AddTag("status", ev.Status)
	}
	p = p.AddField("meetings", ev.Meetings).
		AddField("participants", ev.Participants).
		AddField("candidates", ev.Candidates).
		AddField("constraints", ev.Constraints).
		AddField("objective", ev.Objective).
		AddField("nodes", ev.Nodes).
		AddField("solve_ms", ev.SolveTime.Milliseconds()).
		AddField("duration_ms", ev.Duration.Milliseconds()).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordPlacements writes one meeting_placement point per meeting.
func (s *InfluxSink) RecordPlacements(ps []coremetrics.Placement) error {
	if len(ps) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	points := make([]*write.Point, 0, len(ps))
	for _, pl := range ps {
		p := write.NewPointWithMeasurement("meeting_placement").
			AddTag("run_id", pl.RunID).
			AddTag("meeting_id", pl.MeetingID)
		if pl.Team != "" {
			p = p.AddTag("team", pl.Team)
		}
		points = append(points, p.
			AddField("start_slot", pl.StartSlot).
			AddField("attendees", pl.Attendees).
			AddField("discomfort", pl.Discomfort).
			SetTime(pl.Time))
	}
	return s.writeAPI.WritePoint(ctx, points...)
}

// Close releases the HTTP client.
func (s *InfluxSink) Close() { s.client.Close() }
