package operations

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleksandrZin/google-election/internal/infrastructure"
)

// TracerName names the tracer of pipeline spans
const TracerName = infrastructure.Instrumentation + "/operations"

// RunTracer provides OpenTelemetry instrumentation for pipeline runs
type RunTracer struct {
	tracer  trace.Tracer
	metrics *infrastructure.BusinessMetrics
}

// NewRunTracer creates a run tracer. A nil tracer uses the global provider;
// metrics may be nil.
func NewRunTracer(tracer trace.Tracer, metrics *infrastructure.BusinessMetrics) *RunTracer {
	if tracer == nil {
		tracer = otel.Tracer(TracerName)
	}
	return &RunTracer{tracer: tracer, metrics: metrics}
}

// StartRun creates the span covering a whole run
func (t *RunTracer) StartRun(ctx context.Context, runID string, stepCount int) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "pipeline.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("pipeline.run_id", runID),
			attribute.Int("pipeline.step_count", stepCount),
		),
	)
}

// StartStep creates the span of a single step
func (t *RunTracer) StartStep(ctx context.Context, runID, stepID string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, fmt.Sprintf("pipeline.step.%s", stepID),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("pipeline.run_id", runID),
			attribute.String("step.id", stepID),
		),
	)
}

// EndStep records the outcome of a step on its span and in the stage metrics
func (t *RunTracer) EndStep(ctx context.Context, span trace.Span, stepID string, duration time.Duration, err error) {
	success := err == nil
	infrastructure.RecordStageDuration(ctx, t.metrics, stepID, duration, success)

	span.SetAttributes(attribute.Float64("step.duration_seconds", duration.Seconds()))
	infrastructure.AddSpanEvent(ctx, "step.completed",
		attribute.String("step.id", stepID),
		attribute.Bool("success", success),
	)
	if success {
		span.SetStatus(codes.Ok, "step completed")
	} else {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// EndRun records the outcome of a run
func (t *RunTracer) EndRun(ctx context.Context, span trace.Span, duration time.Duration, err error) {
	success := err == nil
	infrastructure.RecordPipelineRun(ctx, t.metrics, success)

	span.SetAttributes(
		attribute.Float64("pipeline.duration_seconds", duration.Seconds()),
		attribute.Bool("pipeline.success", success),
	)
	if success {
		span.SetStatus(codes.Ok, "run completed")
	} else {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
