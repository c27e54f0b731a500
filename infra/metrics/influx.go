package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/prakaa/dispatchsim/core/metrics"
	"github.com/prakaa/dispatchsim/infra/logger"
)

// InfluxSink writes solve records to an InfluxDB instance using the official
// client.
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
// NopSink if the health check fails.
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

// RecordSolve writes one point per solve plus one per cleared generator.
func (s *InfluxSink) RecordSolve(rec coremetrics.SolveRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	p := write.NewPointWithMeasurement("dispatch_solve").
		AddTag("run_id", rec.RunID).
		AddTag("scenario", rec.Scenario).
		AddTag("status", rec.Status).
		AddField("demand_mw", round3(rec.Demand)).
		AddField("reserve_mw", round3(rec.Reserve)).
		AddField("duration_ms", float64(rec.Duration.Milliseconds())).
		SetTime(rec.Time)
	if rec.Solution != nil {
		p.AddField("total_cost", round3(rec.Solution.TotalCost))
		if rec.Solution.EnergyPrice != nil {
			p.AddField("energy_price", round3(*rec.Solution.EnergyPrice))
		}
		if rec.Solution.ReservePrice != nil {
			p.AddField("reserve_price", round3(*rec.Solution.ReservePrice))
		}
	}
	if err := s.writeAPI.WritePoint(ctx, p); err != nil {
		return err
	}

	if rec.Solution == nil {
		return nil
	}
	for _, g := range rec.Solution.Generators {
		gp := write.NewPointWithMeasurement("generator_dispatch").
			AddTag("run_id", rec.RunID).
			AddTag("scenario", rec.Scenario).
			AddTag("generator_id", g.ID).
			AddField("output_mw", round3(g.Output)).
			AddField("reserve_mw", round3(g.Reserve)).
			SetTime(rec.Time)
		if g.Committed != nil {
			gp.AddTag("committed", strconv.FormatBool(*g.Committed))
		}
		if err := s.writeAPI.WritePoint(ctx, gp); err != nil {
			return err
		}
	}
	for _, r := range rec.Solution.Resources {
		rp := write.NewPointWithMeasurement("resource_dispatch").
			AddTag("run_id", rec.RunID).
			AddTag("scenario", rec.Scenario).
			AddTag("resource_id", r.ID).
			AddField("injection_mw", round3(r.Injection)).
			AddField("spillage_mw", round3(r.Spillage)).
			SetTime(rec.Time)
		if err := s.writeAPI.WritePoint(ctx, rp); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying client.
func (s *InfluxSink) Close() { s.client.Close() }

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
