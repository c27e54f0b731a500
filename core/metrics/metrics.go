package metrics

import (
	"time"

	"github.com/prakaa/dispatchsim/core/model"
)

// SolveRecord captures the outcome of one dispatch solve for reporting.
type SolveRecord struct {
	RunID    string
	Scenario string
	Status   string
	Demand   float64
	Reserve  float64 // 0 when reserves are not modeled
	Solution *model.DispatchSolution
	Duration time.Duration
	Time     time.Time
}

// MetricsSink records solve results for observability purposes.
type MetricsSink interface {
	RecordSolve(rec SolveRecord) error
}

// NopSink discards all records.
type NopSink struct{}

// RecordSolve implements MetricsSink.
func (NopSink) RecordSolve(SolveRecord) error { return nil }
