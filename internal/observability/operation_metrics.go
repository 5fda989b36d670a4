package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricOpRequestsTotal    = "corrax.op.requests.total"
	metricOpRequestDuration  = "corrax.op.request.duration.seconds"
	metricOpErrorsTotal      = "corrax.op.errors.total"
	metricOpInflightRequests = "corrax.op.inflight.requests"

	attrOp     = "op"
	attrStatus = "status"

	statusOK    = "ok"
	statusError = "error"
)

// opDurationBucketBoundaries covers a millisecond MCP tool round-trip up
// to a multi-minute whole-repository analyze call.
var opDurationBucketBoundaries = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600}

// OperationMetrics holds RED (rate, error, duration) instruments for a
// named operation, for surfaces whose unit of work is not a pipeline
// stage: an LSP request or an MCP tool call.
type OperationMetrics struct {
	requestsTotal    metric.Int64Counter
	requestDuration  metric.Float64Histogram
	errorsTotal      metric.Int64Counter
	inflightRequests metric.Int64UpDownCounter
}

// NewOperationMetrics creates operation metric instruments from the given meter.
func NewOperationMetrics(mt metric.Meter) (*OperationMetrics, error) {
	b := newMetricBuilder(mt)

	om := &OperationMetrics{
		requestsTotal:    b.counter(metricOpRequestsTotal, "Total number of operations", "{op}"),
		requestDuration:  b.histogram(metricOpRequestDuration, "Operation duration in seconds", "s", opDurationBucketBoundaries...),
		errorsTotal:      b.counter(metricOpErrorsTotal, "Total number of operation errors", "{error}"),
		inflightRequests: b.upDownCounter(metricOpInflightRequests, "Number of in-flight operations", "{op}"),
	}

	if b.err != nil {
		return nil, b.err
	}

	return om, nil
}

// RecordOperation records one completed operation with its name, status,
// and duration. Safe to call on a nil receiver.
func (om *OperationMetrics) RecordOperation(ctx context.Context, op, status string, duration time.Duration) {
	if om == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(attrOp, op),
		attribute.String(attrStatus, status),
	)

	om.requestsTotal.Add(ctx, 1, attrs)
	om.requestDuration.Record(ctx, duration.Seconds(), attrs)

	if status == statusError {
		om.errorsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrOp, op)))
	}
}

// TrackInflight increments the in-flight gauge for op and returns a
// function to decrement it. Safe to call on a nil receiver: the
// returned func is then a no-op.
func (om *OperationMetrics) TrackInflight(ctx context.Context, op string) func() {
	if om == nil {
		return func() {}
	}

	attrs := metric.WithAttributes(attribute.String(attrOp, op))
	om.inflightRequests.Add(ctx, 1, attrs)

	return func() {
		om.inflightRequests.Add(ctx, -1, attrs)
	}
}
