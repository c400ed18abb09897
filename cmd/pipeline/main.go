// Command pipeline runs the election trends pipeline once: it extracts the
// results page, joins it with the search-interest exports, runs the
// comparisons and writes the fused tables.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"google.golang.org/api/option"

	"github.com/AleksandrZin/google-election/internal/config"
	"github.com/AleksandrZin/google-election/internal/exporter"
	"github.com/AleksandrZin/google-election/internal/fetch"
	"github.com/AleksandrZin/google-election/internal/infrastructure"
	"github.com/AleksandrZin/google-election/internal/operations"
	"github.com/AleksandrZin/google-election/internal/stats"
	"github.com/AleksandrZin/google-election/internal/validation"
	"github.com/AleksandrZin/google-election/pkg/contracts"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		slog.Error("Pipeline failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// options are the command line flags
type options struct {
	configPath string
	htmlPath   string
	outDir     string
	fetch      bool
	check      bool
	xlsx       bool
	report     bool
	publish    bool
}

func parseFlags(args []string) (options, error) {
	var o options
	fs := flag.NewFlagSet("pipeline", flag.ContinueOnError)
	fs.StringVar(&o.configPath, "config", "", "path to a YAML config file (defaults to the first config.yaml found)")
	fs.StringVar(&o.htmlPath, "html", "", "results page to extract instead of the configured one")
	fs.StringVar(&o.outDir, "out", "", "output directory for the fused tables")
	fs.BoolVar(&o.fetch, "fetch", false, "fetch the results page with a headless browser first")
	fs.BoolVar(&o.check, "check", false, "only validate the sources and exit")
	fs.BoolVar(&o.xlsx, "xlsx", false, "also write the tables as an xlsx workbook")
	fs.BoolVar(&o.report, "report", false, "also write a markdown report")
	fs.BoolVar(&o.publish, "publish", false, "publish the tables to the configured spreadsheet")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	return o, nil
}

// loadConfig layers the flags over the configuration file
func loadConfig(o options) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if o.configPath != "" {
		cfg, err = config.LoadFile(o.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if o.htmlPath != "" {
		abs, err := filepath.Abs(o.htmlPath)
		if err != nil {
			return nil, fmt.Errorf("invalid -html path: %w", err)
		}
		cfg.Sources.ResultsHTML = abs
	}
	if o.outDir != "" {
		abs, err := filepath.Abs(o.outDir)
		if err != nil {
			return nil, fmt.Errorf("invalid -out path: %w", err)
		}
		cfg.Export.OutputDir = abs
	}
	cfg.Export.WriteWorkbook = cfg.Export.WriteWorkbook || o.xlsx
	cfg.Export.WriteReport = cfg.Export.WriteReport || o.report
	cfg.Export.Sheets.Enabled = cfg.Export.Sheets.Enabled || o.publish
	if cfg.Export.Sheets.Enabled && cfg.Export.Sheets.SpreadsheetID == "" {
		return nil, fmt.Errorf("publishing requires export.sheets.spreadsheet_id")
	}
	return cfg, nil
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	o, err := parseFlags(args)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(o)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = infrastructure.CloseLogFile() }()

	logger.Info("Pipeline starting", slog.String("version", contracts.Info().String()))

	paths, err := config.ResolvePaths(cfg)
	if err != nil {
		return err
	}
	if err := paths.EnsureDirectories(); err != nil {
		return err
	}
	paths.LogPathResolution(logger)

	if err := validation.NewSourceValidator(logger).ValidateSources(paths, o.fetch); err != nil {
		return fmt.Errorf("source check failed:\n%w", err)
	}
	if o.check {
		fmt.Fprintln(stdout, "Sources OK")
		return nil
	}

	providers, err := infrastructure.InitializeOTel(infrastructure.NewOTelConfig(cfg.Telemetry), logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := providers.Shutdown(context.Background()); err != nil {
			logger.Warn("OpenTelemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()

	metrics, err := infrastructure.CreateBusinessMetrics(providers.Meter)
	if err != nil {
		return err
	}

	settings := operations.NewSettings(cfg, paths)
	settings.Fetch = o.fetch

	deps := operations.Dependencies{
		Logger:  logger,
		Metrics: metrics,
		Tracer:  providers.Tracer,
	}
	if settings.Fetch {
		deps.Fetcher = fetch.NewBrowserFetcher(fetch.BrowserOptions{
			Headless:     cfg.Pipeline.Headless,
			WaitSelector: fetch.ResultsTableSelector(cfg.Sources.TableClass),
		}, logger)
	}
	if settings.Publish {
		publisher, err := newPublisher(ctx, cfg.Export.Sheets, logger)
		if err != nil {
			return err
		}
		deps.Publisher = publisher
	}

	pipeline, err := operations.NewPipeline(settings, deps)
	if err != nil {
		return err
	}

	result, err := pipeline.Execute(ctx)
	if result == nil {
		return err
	}
	printSummary(stdout, result)
	if err != nil {
		return fmt.Errorf("run %s failed at step %q: %w", result.ID, operations.FailedStep(err), err)
	}

	logger.Info("Pipeline finished",
		slog.String("run_id", result.ID),
		slog.String("duration", result.Duration),
		slog.String("geo_table", paths.GeoTable),
		slog.String("timeline_table", paths.TimelineTable))
	return nil
}

func newPublisher(ctx context.Context, cfg config.SheetsConfig, logger *slog.Logger) (*exporter.SheetsPublisher, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, exporter.CredentialsFileOption(cfg.CredentialsFile))
	}
	return exporter.NewSheetsPublisher(ctx, exporter.SheetsOptions{
		SpreadsheetID: cfg.SpreadsheetID,
		GeoSheet:      cfg.GeoSheet,
		TimelineSheet: cfg.TimelineSheet,
		ClientOptions: opts,
	}, logger)
}

// printSummary writes the step outcomes and comparison narratives
func printSummary(w io.Writer, result *operations.RunResult) {
	fmt.Fprintf(w, "Run %s: %s (%s)\n", result.ID, result.Status, result.Duration)
	for _, s := range result.Steps {
		line := fmt.Sprintf("  %-12s %s", s.ID, s.Status)
		if s.Error != "" {
			line += ": " + s.Error
		} else if s.Message != "" {
			line += ": " + s.Message
		}
		fmt.Fprintln(w, line)
	}

	for _, gap := range result.Gaps {
		fmt.Fprintf(w, "Coverage gap %s: %d unmatched keys\n", gap.Join, gap.Count())
	}
	for _, c := range result.Comparisons {
		fmt.Fprintf(w, "\n%s\n", c.TermLabel)
		for _, line := range stats.Narrative(c) {
			fmt.Fprintf(w, "  %s\n", line)
		}
	}
	for _, s := range result.Skipped {
		fmt.Fprintf(w, "Skipped comparison: %s\n", s)
	}
	for _, warning := range result.Warnings {
		fmt.Fprintf(w, "Warning: %s\n", warning)
	}
}
