package operations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/AleksandrZin/google-election/internal/dataprocessing"
	apierrors "github.com/AleksandrZin/google-election/internal/errors"
	"github.com/AleksandrZin/google-election/internal/exporter"
	"github.com/AleksandrZin/google-election/internal/infrastructure"
	"github.com/AleksandrZin/google-election/internal/lookup"
	"github.com/AleksandrZin/google-election/internal/stats"
	"github.com/AleksandrZin/google-election/pkg/contracts/domain"
)

// PageFetcher downloads the rendered HTML of a page
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// TablePublisher mirrors the fused tables to an external destination
type TablePublisher interface {
	Publish(ctx context.Context, tables domain.FusedTables) error
}

// Output kinds recorded in the manifest
const (
	OutputResultsHTML   = "results_html"
	OutputGeoTable      = "geo_table"
	OutputTimelineTable = "timeline_table"
	OutputWorkbook      = "workbook"
	OutputReport        = "report"
)

// FetchStep saves the rendered results page to the raw data directory
type FetchStep struct {
	BaseStep
	fetcher  PageFetcher
	settings Settings
	logger   *slog.Logger
}

// NewFetchStep creates the fetch step
func NewFetchStep(fetcher PageFetcher, settings Settings, logger *slog.Logger) *FetchStep {
	return &FetchStep{
		BaseStep: NewBaseStep(StepIDFetch, "Fetch results page"),
		fetcher:  fetcher,
		settings: settings,
		logger:   logger,
	}
}

// Execute fetches ResultsURL and writes it over the configured HTML path
func (s *FetchStep) Execute(ctx context.Context, state *RunState) error {
	if s.settings.ResultsURL == "" {
		return fmt.Errorf("no results URL configured")
	}
	if s.settings.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.settings.FetchTimeout)
		defer cancel()
	}

	page, err := s.fetcher.Fetch(ctx, s.settings.ResultsURL)
	if err != nil {
		return apierrors.NewNetworkError("fetch results page", err)
	}
	if err := exporter.WriteFileAtomic(s.settings.Paths.ResultsHTML, []byte(page)); err != nil {
		return apierrors.NewPersistenceError("save", s.settings.Paths.ResultsHTML, err)
	}

	s.logger.InfoContext(ctx, "Saved results page",
		slog.String("url", s.settings.ResultsURL),
		slog.String("path", s.settings.Paths.ResultsHTML),
		slog.Int("bytes", len(page)))
	return nil
}

// ExtractStep lifts result rows out of the saved results page
type ExtractStep struct {
	BaseStep
	extractor *dataprocessing.TableExtractor
	path      string
	metrics   *infrastructure.BusinessMetrics
}

// NewExtractStep creates the extract step
func NewExtractStep(extractor *dataprocessing.TableExtractor, path string, metrics *infrastructure.BusinessMetrics) *ExtractStep {
	return &ExtractStep{
		BaseStep:  NewBaseStep(StepIDExtract, "Extract election results"),
		extractor: extractor,
		path:      path,
		metrics:   metrics,
	}
}

// Execute extracts the result rows
func (s *ExtractStep) Execute(ctx context.Context, state *RunState) error {
	rows, err := s.extractor.ExtractFile(ctx, s.path)
	if err != nil {
		return err
	}
	infrastructure.RecordExtractedRows(ctx, s.metrics, "results", len(rows))
	state.RawRows = rows
	return nil
}

// NormalizeStep resolves the region labels of the extracted rows
type NormalizeStep struct {
	BaseStep
	shortToLong  string
	longToAbbrev string
	logger       *slog.Logger
}

// NewNormalizeStep creates the normalize step over the two lookup files
func NewNormalizeStep(shortToLong, longToAbbrev string, logger *slog.Logger) *NormalizeStep {
	return &NormalizeStep{
		BaseStep:     NewBaseStep(StepIDNormalize, "Normalize region keys"),
		shortToLong:  shortToLong,
		longToAbbrev: longToAbbrev,
		logger:       logger,
	}
}

// Execute loads the lookup snapshot and normalizes every row. The first
// unknown key aborts the run.
func (s *NormalizeStep) Execute(ctx context.Context, state *RunState) error {
	table, err := lookup.Load(s.shortToLong, s.longToAbbrev)
	if err != nil {
		return err
	}
	rows, err := table.NormalizeRows(state.RawRows)
	if err != nil {
		return err
	}

	short, long := table.Len()
	s.logger.InfoContext(ctx, "Normalized result rows",
		slog.Int("rows", len(rows)),
		slog.Int("short_forms", short),
		slog.Int("long_forms", long))

	state.Lookup = table
	state.Election = rows
	return nil
}

// LoadTrendsStep reads the four search-interest exports concurrently
type LoadTrendsStep struct {
	BaseStep
	loader      *dataprocessing.TrendLoader
	sources     []domain.TrendSource
	concurrency int
	metrics     *infrastructure.BusinessMetrics
}

// TrendSources lists the four exports in fusion order
func TrendSources(s Settings) []domain.TrendSource {
	return []domain.TrendSource{
		{Term: domain.Term1, Schema: domain.SchemaGeo, Path: s.Paths.GeoTerm1},
		{Term: domain.Term2, Schema: domain.SchemaGeo, Path: s.Paths.GeoTerm2},
		{Term: domain.Term1, Schema: domain.SchemaTimeline, Path: s.Paths.TimelineTerm1},
		{Term: domain.Term2, Schema: domain.SchemaTimeline, Path: s.Paths.TimelineTerm2},
	}
}

// NewLoadTrendsStep creates the load step for sources, read with at most
// concurrency files open at once
func NewLoadTrendsStep(loader *dataprocessing.TrendLoader, sources []domain.TrendSource, concurrency int, metrics *infrastructure.BusinessMetrics) *LoadTrendsStep {
	return &LoadTrendsStep{
		BaseStep:    NewBaseStep(StepIDLoadTrends, "Load search interest"),
		loader:      loader,
		sources:     sources,
		concurrency: concurrency,
		metrics:     metrics,
	}
}

// Execute loads every source. The first failure cancels the rest.
func (s *LoadTrendsStep) Execute(ctx context.Context, state *RunState) error {
	results := make([][]domain.TrendRow, len(s.sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, s.concurrency))
	for i, src := range s.sources {
		g.Go(func() error {
			rows, err := s.loader.LoadFile(gctx, src)
			if err != nil {
				return err
			}
			results[i] = rows
			infrastructure.RecordExtractedRows(gctx, s.metrics, string(src.Schema)+"."+string(src.Term), len(rows))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, src := range s.sources {
		switch {
		case src.Schema == domain.SchemaGeo && src.Term == domain.Term1:
			state.Trends.GeoTerm1 = results[i]
		case src.Schema == domain.SchemaGeo && src.Term == domain.Term2:
			state.Trends.GeoTerm2 = results[i]
		case src.Schema == domain.SchemaTimeline && src.Term == domain.Term1:
			state.Trends.TimelineTerm1 = results[i]
		case src.Schema == domain.SchemaTimeline && src.Term == domain.Term2:
			state.Trends.TimelineTerm2 = results[i]
		}
	}
	return nil
}

// FuseStep builds the geographic and timeline tables
type FuseStep struct {
	BaseStep
	engine *dataprocessing.FusionEngine
}

// NewFuseStep creates the fuse step
func NewFuseStep(engine *dataprocessing.FusionEngine) *FuseStep {
	return &FuseStep{
		BaseStep: NewBaseStep(StepIDFuse, "Fuse tables"),
		engine:   engine,
	}
}

// Execute joins the election rows with the loaded trends
func (s *FuseStep) Execute(ctx context.Context, state *RunState) error {
	in := state.Trends
	in.Election = state.Election
	state.Fusion = s.engine.Fuse(ctx, in)
	return nil
}

// CompareStep runs the two-sample test for both terms. A term whose groups
// are degenerate is skipped and noted; it does not fail the run.
type CompareStep struct {
	BaseStep
	engine *stats.Engine
}

// NewCompareStep creates the compare step
func NewCompareStep(engine *stats.Engine) *CompareStep {
	return &CompareStep{
		BaseStep: NewBaseStep(StepIDCompare, "Compare search interest"),
		engine:   engine,
	}
}

// Execute compares both terms
func (s *CompareStep) Execute(ctx context.Context, state *RunState) error {
	for _, term := range domain.Terms() {
		c, err := s.engine.Compare(ctx, state.Fusion.Tables.Geo, term)
		var insufficient *apierrors.InsufficientDataError
		switch {
		case errors.As(err, &insufficient):
			state.Skipped = append(state.Skipped, fmt.Sprintf("%s: %s (group %s, %d samples)",
				term, insufficient.Reason, insufficient.Group, insufficient.Count))
		case err != nil:
			return err
		default:
			state.Comparisons = append(state.Comparisons, c)
		}
	}
	return nil
}

// SaveStep persists both tables
type SaveStep struct {
	BaseStep
	store        *exporter.TableStore
	geoPath      string
	timelinePath string
	describe     func(kind, path string) (OutputFile, error)
}

// NewSaveStep creates the save step
func NewSaveStep(store *exporter.TableStore, geoPath, timelinePath string) *SaveStep {
	return &SaveStep{
		BaseStep:     NewBaseStep(StepIDSave, "Save tables"),
		store:        store,
		geoPath:      geoPath,
		timelinePath: timelinePath,
		describe:     DescribeOutput,
	}
}

// Execute writes both CSV files. Once both renames have succeeded the tables
// are committed, so failing to describe them for the manifest is a warning.
func (s *SaveStep) Execute(ctx context.Context, state *RunState) error {
	if err := s.store.Save(ctx, state.Fusion.Tables, s.geoPath, s.timelinePath); err != nil {
		return err
	}
	for _, o := range []struct{ kind, path string }{
		{OutputGeoTable, s.geoPath},
		{OutputTimelineTable, s.timelinePath},
	} {
		out, err := s.describe(o.kind, o.path)
		if err != nil {
			state.Warn(fmt.Sprintf("saved %s but could not describe it: %v", o.path, err))
			continue
		}
		state.AddOutput(out)
	}
	return nil
}

// ExportStep writes the optional extras. Its failures are warnings: the
// tables are already persisted and stay valid.
type ExportStep struct {
	BaseStep
	settings  Settings
	workbook  *exporter.WorkbookWriter
	publisher TablePublisher
	logger    *slog.Logger
}

// NewExportStep creates the export step. publisher may be nil.
func NewExportStep(settings Settings, workbook *exporter.WorkbookWriter, publisher TablePublisher, logger *slog.Logger) *ExportStep {
	return &ExportStep{
		BaseStep:  NewBaseStep(StepIDExport, "Export extras"),
		settings:  settings,
		workbook:  workbook,
		publisher: publisher,
		logger:    logger,
	}
}

// Execute writes the workbook, the report and publishes the tables as configured
func (s *ExportStep) Execute(ctx context.Context, state *RunState) error {
	tables := state.Fusion.Tables

	if s.settings.WriteWorkbook {
		path := s.settings.Paths.Workbook
		if err := s.workbook.Write(path, tables); err != nil {
			s.warn(ctx, state, "workbook", err)
		} else if out, err := DescribeOutput(OutputWorkbook, path); err == nil {
			state.AddOutput(out)
		}
	}

	if s.settings.WriteReport {
		path := s.settings.Paths.Report
		report := exporter.Report{
			GeneratedAt: time.Now(),
			Tables:      tables,
			Comparisons: state.Comparisons,
			Skipped:     state.Skipped,
			Gaps:        state.Fusion.Gaps,
		}
		if err := exporter.WriteReport(path, report, s.logger); err != nil {
			s.warn(ctx, state, "report", err)
		} else if out, err := DescribeOutput(OutputReport, path); err == nil {
			state.AddOutput(out)
		}
	}

	if s.settings.Publish && s.publisher != nil {
		if err := s.publisher.Publish(ctx, tables); err != nil {
			s.warn(ctx, state, "sheets", err)
		}
	}
	return nil
}

func (s *ExportStep) warn(ctx context.Context, state *RunState, target string, err error) {
	s.logger.WarnContext(ctx, "Optional export failed",
		slog.String("target", target),
		slog.String("error", err.Error()))
	state.Warn(fmt.Sprintf("%s export failed: %v", target, err))
}

// ManifestStep writes the run manifest last
type ManifestStep struct {
	BaseStep
	path string
}

// NewManifestStep creates the manifest step
func NewManifestStep(path string) *ManifestStep {
	return &ManifestStep{
		BaseStep: NewBaseStep(StepIDManifest, "Write manifest"),
		path:     path,
	}
}

// Execute builds the manifest from the run state and writes it
func (s *ManifestStep) Execute(ctx context.Context, state *RunState) error {
	m := &RunManifest{
		RunID:     state.ID,
		StartTime: state.StartTime,
		EndTime:   time.Now(),
		Rows: RowCounts{
			ResultRows:    len(state.RawRows),
			GeoTerm1:      len(state.Trends.GeoTerm1),
			GeoTerm2:      len(state.Trends.GeoTerm2),
			TimelineTerm1: len(state.Trends.TimelineTerm1),
			TimelineTerm2: len(state.Trends.TimelineTerm2),
			GeoTable:      len(state.Fusion.Tables.Geo),
			TimelineTable: len(state.Fusion.Tables.Timeline),
		},
		CoverageGaps: make(map[string]int, len(state.Fusion.Gaps)),
		Skipped:      state.Skipped,
		Warnings:     state.Warnings(),
		Outputs:      state.Outputs,
	}
	for _, g := range state.Fusion.Gaps {
		m.CoverageGaps[g.Join] = g.Count()
	}
	for _, c := range state.Comparisons {
		m.Comparisons = append(m.Comparisons, string(c.Term))
	}

	if err := WriteManifest(s.path, m); err != nil {
		return apierrors.NewPersistenceError("save", s.path, err)
	}
	state.Manifest = m
	return nil
}
