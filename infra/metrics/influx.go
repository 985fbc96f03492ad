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

	"github.com/kilianp07/seatmatch/core/logger"
	coremetrics "github.com/kilianp07/seatmatch/core/metrics"
	infralogger "github.com/kilianp07/seatmatch/infra/logger"
)

// InfluxSink writes match runs to an InfluxDB instance using the official client.
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
		log:      infralogger.New("influx-sink"),
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

// Close releases the underlying client.
func (s *InfluxSink) Close() { s.client.Close() }

// RecordMatchResult writes one match_run point and one assignment point per
// seated applicant.
func (s *InfluxSink) RecordMatchResult(rec coremetrics.MatchRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	points := make([]*write.Point, 0, len(rec.Assignments)+1)
	points = append(points, write.NewPointWithMeasurement("match_run").
		AddTag("run_id", rec.RunID).
		AddTag("grade", gradeTag(rec.Grade)).
		AddTag("converged", string(rec.Converged)).
		AddField("rounds", rec.Rounds).
		AddField("applicants", rec.Applicants).
		AddField("assigned", len(rec.Assignments)).
		AddField("unmatched", len(rec.Unmatched)).
		AddField("fallback", rec.FallbackPlaced).
		AddField("dissolved_units", rec.DissolvedUnits).
		AddField("elapsed_ms", rec.Elapsed.Milliseconds()).
		SetTime(rec.Time))
	for _, a := range rec.Assignments {
		points = append(points, write.NewPointWithMeasurement("assignment").
			AddTag("run_id", rec.RunID).
			AddTag("facility", a.Facility).
			AddTag("grade", a.Grade).
			AddTag("fallback", strconv.FormatBool(a.Fallback)).
			AddField("applicant_id", a.ApplicantID).
			AddField("rank", a.Rank).
			AddField("priority", a.Priority).
			AddField("at_sibling_facility", a.AtSiblingFacility).
			SetTime(rec.Time))
	}
	return s.writeAPI.WritePoint(ctx, points...)
}

// RecordRound writes the progress of one round.
func (s *InfluxSink) RecordRound(ev coremetrics.RoundEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("match_round").
		AddTag("run_id", ev.RunID).
		AddField("round", ev.Round).
		AddField("proposals", ev.Proposals).
		AddField("rejections", ev.Rejections).
		AddField("unseated", ev.Unseated).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordFallback writes a fallback placement.
func (s *InfluxSink) RecordFallback(ev coremetrics.FallbackEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("fallback_placement").
		AddTag("run_id", ev.RunID).
		AddTag("facility", ev.Facility).
		AddTag("grade", ev.Grade).
		AddTag("mode", ev.Mode).
		AddField("applicant_id", ev.ApplicantID).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

func gradeTag(g string) string {
	if g == "" {
		return "all"
	}
	return g
}
