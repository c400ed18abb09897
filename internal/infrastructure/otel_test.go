package infrastructure

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestOTelInitialization(t *testing.T) {
	providers, err := InitializeOTel(DefaultOTelConfig(), discardLogger())
	require.NoError(t, err)

	// tracing is off by default but the tracer is still usable
	assert.Nil(t, providers.TracerProvider)
	require.NotNil(t, providers.Tracer)
	_, span := providers.Tracer.Start(context.Background(), "noop")
	span.End()

	assert.NotNil(t, providers.MeterProvider)
	require.NotNil(t, providers.PrometheusHTTP)

	metrics, err := CreateBusinessMetrics(providers.Meter)
	require.NoError(t, err)
	RecordPipelineRun(context.Background(), metrics, true)

	rec := httptest.NewRecorder()
	providers.PrometheusHTTP.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "pipeline_runs_total")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, providers.Shutdown(ctx))
}

func TestOTelInitializationTwice(t *testing.T) {
	for i := 0; i < 2; i++ {
		providers, err := InitializeOTel(DefaultOTelConfig(), discardLogger())
		require.NoError(t, err)
		require.NoError(t, providers.Shutdown(context.Background()))
	}
}

func TestOTelStdoutTracing(t *testing.T) {
	cfg := DefaultOTelConfig()
	cfg.TraceExporter = "stdout"
	cfg.MetricExporter = "none"

	providers, err := InitializeOTel(cfg, discardLogger())
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	require.NotNil(t, providers.TracerProvider)
	assert.Nil(t, providers.PrometheusHTTP)

	ctx, span := providers.Tracer.Start(context.Background(), "pipeline.step.fuse")
	assert.True(t, span.SpanContext().IsValid())
	AddSpanEvent(ctx, "fused")
	span.End()
}

func TestOTelUnsupportedExporter(t *testing.T) {
	cfg := DefaultOTelConfig()
	cfg.TraceExporter = "jaeger"
	_, err := InitializeOTel(cfg, discardLogger())
	assert.Error(t, err)
}

func TestBusinessMetricsRecording(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())

	metrics, err := CreateBusinessMetrics(mp.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	RecordCoverageGap(ctx, metrics, "geo.interest_1", 2)
	RecordCoverageGap(ctx, metrics, "geo.interest_2", 0)
	RecordExtractedRows(ctx, metrics, "results_html", 6)
	RecordComparison(ctx, metrics, "interest_1", false)
	RecordStageDuration(ctx, metrics, "fuse", 15*time.Millisecond, true)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	sums := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if data, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range data.DataPoints {
					sums[m.Name] += dp.Value
				}
			}
		}
	}

	assert.Equal(t, int64(2), sums["join_coverage_gaps_total"])
	assert.Equal(t, int64(6), sums["extracted_rows_total"])
	assert.Equal(t, int64(1), sums["comparisons_total"])
}

func TestRecordHelpersTolerateNil(t *testing.T) {
	ctx := context.Background()
	assert.NotPanics(t, func() {
		RecordPipelineRun(ctx, nil, false)
		RecordCoverageGap(ctx, nil, "geo", 3)
		RecordComparison(ctx, nil, "interest_2", true)
	})

	metrics, err := CreateBusinessMetrics(nil)
	require.NoError(t, err)
	assert.NotNil(t, metrics.ComparisonsTotal)
}
