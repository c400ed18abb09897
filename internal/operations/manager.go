package operations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleksandrZin/google-election/internal/dataprocessing"
	"github.com/AleksandrZin/google-election/internal/exporter"
	"github.com/AleksandrZin/google-election/internal/infrastructure"
	"github.com/AleksandrZin/google-election/internal/stats"
)

// ErrRunInProgress is returned when Execute is called while a run is active
var ErrRunInProgress = errors.New("a pipeline run is already in progress")

// Dependencies are the collaborators shared by the steps of a pipeline
type Dependencies struct {
	Logger    *slog.Logger
	Metrics   *infrastructure.BusinessMetrics
	Tracer    trace.Tracer
	Fetcher   PageFetcher
	Publisher TablePublisher
}

// Manager runs the registered steps in order. A step error aborts the run:
// later steps are skipped, so nothing downstream of the failure is written.
type Manager struct {
	registry    *Registry
	tracer      *RunTracer
	stepTimeout time.Duration
	logger      *slog.Logger

	mu      sync.Mutex
	running bool
	last    *RunResult
}

// NewManager creates a manager over registry
func NewManager(registry *Registry, tracer *RunTracer, stepTimeout time.Duration, logger *slog.Logger) *Manager {
	if registry == nil {
		registry = NewRegistry()
	}
	if tracer == nil {
		tracer = NewRunTracer(nil, nil)
	}
	return &Manager{
		registry:    registry,
		tracer:      tracer,
		stepTimeout: stepTimeout,
		logger:      infrastructure.WithComponent(logger, "pipeline"),
	}
}

// BuildRegistry registers the steps of a full run for settings
func BuildRegistry(settings Settings, deps Dependencies) (*Registry, error) {
	if settings.Paths == nil {
		return nil, NewValidationError("", "paths are not resolved")
	}
	logger := deps.Logger
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	p := settings.Paths

	steps := make([]Step, 0, 9)
	if settings.Fetch {
		if deps.Fetcher == nil {
			return nil, NewValidationError(StepIDFetch, "fetch requested without a page fetcher")
		}
		steps = append(steps, NewFetchStep(deps.Fetcher, settings, logger))
	}
	steps = append(steps,
		NewExtractStep(dataprocessing.NewTableExtractor(settings.TableClass, logger), p.ResultsHTML, deps.Metrics),
		NewNormalizeStep(p.ShortToLong, p.LongToAbbrev, logger),
		NewLoadTrendsStep(dataprocessing.NewTrendLoader(settings.HeaderLines, logger), TrendSources(settings), settings.loadConcurrency(), deps.Metrics),
		NewFuseStep(dataprocessing.NewFusionEngine(logger, deps.Metrics)),
		NewCompareStep(stats.NewEngine(logger, deps.Metrics)),
		NewSaveStep(exporter.NewTableStore(logger), p.GeoTable, p.TimelineTable),
		NewExportStep(settings, exporter.NewWorkbookWriter(logger), deps.Publisher, logger),
		NewManifestStep(p.Manifest),
	)

	registry := NewRegistry()
	for _, s := range steps {
		if err := registry.Register(s); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// NewPipeline builds the registry for settings and a manager running it
func NewPipeline(settings Settings, deps Dependencies) (*Manager, error) {
	registry, err := BuildRegistry(settings, deps)
	if err != nil {
		return nil, err
	}
	return NewManager(registry, NewRunTracer(deps.Tracer, deps.Metrics), settings.StepTimeout, deps.Logger), nil
}

// LastResult returns the result of the most recent finished run, or nil
func (m *Manager) LastResult() *RunResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

// Execute performs one full run. Apart from ErrRunInProgress the returned
// result is never nil; it describes how far the run got even when err is set.
func (m *Manager) Execute(ctx context.Context) (*RunResult, error) {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return nil, ErrRunInProgress
	}
	m.running = true
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.running = false
		m.mu.Unlock()
	}()

	state := NewRunState(uuid.NewString())
	ctx = infrastructure.EnsureTraceID(ctx)
	steps := m.registry.Steps()
	for _, s := range steps {
		state.AddStep(NewStepState(s.ID(), s.Name()))
	}

	ctx, span := m.tracer.StartRun(ctx, state.ID, len(steps))
	state.Start()
	m.logger.InfoContext(ctx, "Pipeline run started",
		slog.String("run_id", state.ID),
		slog.Int("step_count", len(steps)))

	err := m.executeSequential(ctx, state, steps)
	switch {
	case err == nil:
		state.Complete()
	case IsCancellation(err):
		state.Cancel(err)
	default:
		state.Fail(err)
	}
	m.tracer.EndRun(ctx, span, state.Duration(), err)

	res := state.Result()
	if err != nil {
		m.logger.ErrorContext(ctx, "Pipeline run failed",
			slog.String("run_id", state.ID),
			slog.String("step", FailedStep(err)),
			slog.String("error", err.Error()),
			slog.Duration("duration", state.Duration()))
	} else {
		m.logger.InfoContext(ctx, "Pipeline run completed",
			slog.String("run_id", state.ID),
			slog.Int("geo_rows", len(res.Tables.Geo)),
			slog.Int("timeline_rows", len(res.Tables.Timeline)),
			slog.Int("comparisons", len(res.Comparisons)),
			slog.Duration("duration", state.Duration()))
	}

	m.mu.Lock()
	m.last = res
	m.mu.Unlock()
	return res, err
}

// executeSequential executes steps one by one
func (m *Manager) executeSequential(ctx context.Context, state *RunState, steps []Step) error {
	for i, step := range steps {
		if err := ctx.Err(); err != nil {
			m.skipRemaining(state, steps[i:], "run cancelled")
			return NewCancellationError(step.ID(), err)
		}

		m.logger.DebugContext(ctx, "Executing step",
			slog.String("run_id", state.ID),
			slog.String("step", step.ID()),
			slog.Int("step_number", i+1),
			slog.Int("total_steps", len(steps)))

		if err := m.executeStep(ctx, state, step); err != nil {
			m.skipRemaining(state, steps[i+1:], fmt.Sprintf("step %s failed", step.ID()))
			return err
		}
	}
	return nil
}

// executeStep runs one step inside its span
func (m *Manager) executeStep(ctx context.Context, state *RunState, step Step) error {
	stepState := state.GetStep(step.ID())
	stepCtx, span := m.tracer.StartStep(ctx, state.ID, step.ID())
	if m.stepTimeout > 0 {
		var cancel context.CancelFunc
		stepCtx, cancel = context.WithTimeout(stepCtx, m.stepTimeout)
		defer cancel()
	}

	stepState.Start()
	start := time.Now()
	err := step.Execute(stepCtx, state)
	duration := time.Since(start)
	m.tracer.EndStep(stepCtx, span, step.ID(), duration, err)

	if err != nil {
		stepState.Fail(err)
		if ctx.Err() != nil {
			return NewCancellationError(step.ID(), err)
		}
		return NewExecutionError(step.ID(), err)
	}

	stepState.Complete("")
	m.logger.InfoContext(ctx, "Step completed",
		slog.String("run_id", state.ID),
		slog.String("step", step.ID()),
		slog.Duration("duration", duration))
	return nil
}

func (m *Manager) skipRemaining(state *RunState, steps []Step, reason string) {
	for _, s := range steps {
		if st := state.GetStep(s.ID()); st != nil {
			st.Skip(reason)
		}
	}
}
