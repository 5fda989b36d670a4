package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/corraxdev/corrax/internal/pipeline"
)

const (
	metricStageRunsTotal   = "corrax.pipeline.stage.runs.total"
	metricStageErrorsTotal = "corrax.pipeline.stage.errors.total"
	metricStageDuration    = "corrax.pipeline.stage.duration.seconds"

	attrStage = "stage"
)

// durationBucketBoundaries are histogram buckets for stage run durations,
// in seconds, spanning sub-millisecond slicing passes to multi-minute
// whole-repository sweeps.
var durationBucketBoundaries = []float64{
	0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300,
}

// StageMetrics holds OTel instruments recording the rate, error count, and
// duration (RED) of every pipeline stage run.
type StageMetrics struct {
	runsTotal   metric.Int64Counter
	errorsTotal metric.Int64Counter
	duration    metric.Float64Histogram
}

// NewStageMetrics creates stage metric instruments from the given meter.
func NewStageMetrics(mt metric.Meter) (*StageMetrics, error) {
	b := newMetricBuilder(mt)

	sm := &StageMetrics{
		runsTotal:   b.counter(metricStageRunsTotal, "Total pipeline stage runs", "{run}"),
		errorsTotal: b.counter(metricStageErrorsTotal, "Total pipeline stage failures", "{error}"),
		duration:    b.histogram(metricStageDuration, "Pipeline stage run duration in seconds", "s", durationBucketBoundaries...),
	}

	if b.err != nil {
		return nil, b.err
	}

	return sm, nil
}

// RecordStage records one completed run of stage. Safe to call on a nil
// receiver (no-op), so callers need not guard every call site on whether
// metrics were configured.
func (sm *StageMetrics) RecordStage(ctx context.Context, stage pipeline.Stage, dur time.Duration, runErr error) {
	if sm == nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String(attrStage, string(stage)))

	sm.runsTotal.Add(ctx, 1, attrs)
	sm.duration.Record(ctx, dur.Seconds(), attrs)

	if runErr != nil {
		sm.errorsTotal.Add(ctx, 1, attrs)
	}
}
