package infrastructure

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
)

// BusinessMetrics holds the application-specific instruments
type BusinessMetrics struct {
	// HTTP metrics
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
	HTTPActiveRequests  metric.Int64UpDownCounter

	// Pipeline metrics
	PipelineRunsTotal     metric.Int64Counter
	PipelineStageDuration metric.Float64Histogram
	ExtractedRowsTotal    metric.Int64Counter
	JoinCoverageGaps      metric.Int64Counter
	ComparisonsTotal      metric.Int64Counter
}

// CreateBusinessMetrics creates the application instruments on meter.
// A nil meter yields no-op instruments.
func CreateBusinessMetrics(meter metric.Meter) (*BusinessMetrics, error) {
	if meter == nil {
		meter = metricnoop.NewMeterProvider().Meter(Instrumentation)
	}

	m := &BusinessMetrics{}
	var err error

	if m.HTTPRequestsTotal, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
	); err != nil {
		return nil, err
	}

	if m.HTTPRequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	if m.HTTPActiveRequests, err = meter.Int64UpDownCounter(
		"http_active_requests",
		metric.WithDescription("Number of active HTTP requests"),
	); err != nil {
		return nil, err
	}

	if m.PipelineRunsTotal, err = meter.Int64Counter(
		"pipeline_runs_total",
		metric.WithDescription("Total number of pipeline runs by outcome"),
	); err != nil {
		return nil, err
	}

	if m.PipelineStageDuration, err = meter.Float64Histogram(
		"pipeline_stage_duration_seconds",
		metric.WithDescription("Pipeline stage duration in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	if m.ExtractedRowsTotal, err = meter.Int64Counter(
		"extracted_rows_total",
		metric.WithDescription("Rows read from raw sources"),
	); err != nil {
		return nil, err
	}

	if m.JoinCoverageGaps, err = meter.Int64Counter(
		"join_coverage_gaps_total",
		metric.WithDescription("Left-join keys with no matching right-hand row"),
	); err != nil {
		return nil, err
	}

	if m.ComparisonsTotal, err = meter.Int64Counter(
		"comparisons_total",
		metric.WithDescription("Two-sample comparisons computed"),
	); err != nil {
		return nil, err
	}

	return m, nil
}

// RecordPipelineRun records the outcome of one pipeline run
func RecordPipelineRun(ctx context.Context, m *BusinessMetrics, success bool) {
	if m == nil {
		return
	}
	m.PipelineRunsTotal.Add(ctx, 1, metric.WithAttributes(statusAttr(success)))
}

// RecordStageDuration records how long a pipeline stage took
func RecordStageDuration(ctx context.Context, m *BusinessMetrics, stage string, d time.Duration, success bool) {
	if m == nil {
		return
	}
	m.PipelineStageDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("stage", stage),
		statusAttr(success),
	))
}

// RecordExtractedRows counts rows read from a source
func RecordExtractedRows(ctx context.Context, m *BusinessMetrics, source string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.ExtractedRowsTotal.Add(ctx, int64(n), metric.WithAttributes(attribute.String("source", source)))
}

// RecordCoverageGap counts unmatched keys of a left join
func RecordCoverageGap(ctx context.Context, m *BusinessMetrics, join string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.JoinCoverageGaps.Add(ctx, int64(n), metric.WithAttributes(attribute.String("join", join)))
}

// RecordComparison counts a computed comparison
func RecordComparison(ctx context.Context, m *BusinessMetrics, term string, significant bool) {
	if m == nil {
		return
	}
	m.ComparisonsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("term", term),
		attribute.Bool("significant", significant),
	))
}

func statusAttr(success bool) attribute.KeyValue {
	if success {
		return attribute.String("status", "success")
	}
	return attribute.String("status", "failure")
}
