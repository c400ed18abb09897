package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains every resolved file system location used by a run.
// It is the single source of truth for file paths in the application.
type Paths struct {
	BaseDir   string
	DataDir   string
	RawDir    string
	OutputDir string
	LogsDir   string

	// Inputs
	ResultsHTML   string
	ShortToLong   string
	LongToAbbrev  string
	GeoTerm1      string
	GeoTerm2      string
	TimelineTerm1 string
	TimelineTerm2 string

	// Outputs
	GeoTable      string
	TimelineTable string
	Manifest      string
	Workbook      string
	Report        string
}

// ResolvePaths turns the relative locations of cfg into absolute paths.
// An empty BaseDir resolves against the working directory.
func ResolvePaths(cfg *Config) (*Paths, error) {
	base := cfg.Paths.BaseDir
	if base == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		base = wd
	}
	base, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base directory: %w", err)
	}

	dataDir := under(base, cfg.Paths.DataDir)
	outputDir := under(base, cfg.Export.OutputDir)
	logsDir := under(base, cfg.Paths.LogsDir)
	if cfg.Paths.LogsDir == "" {
		logsDir = filepath.Join(base, "logs")
	}

	p := &Paths{
		BaseDir:   base,
		DataDir:   dataDir,
		RawDir:    filepath.Join(dataDir, "raw"),
		OutputDir: outputDir,
		LogsDir:   logsDir,

		ResultsHTML:   under(dataDir, cfg.Sources.ResultsHTML),
		ShortToLong:   under(dataDir, cfg.Sources.ShortToLong),
		LongToAbbrev:  under(dataDir, cfg.Sources.LongToAbbrev),
		GeoTerm1:      under(dataDir, cfg.Sources.GeoTerm1),
		GeoTerm2:      under(dataDir, cfg.Sources.GeoTerm2),
		TimelineTerm1: under(dataDir, cfg.Sources.TimelineTerm1),
		TimelineTerm2: under(dataDir, cfg.Sources.TimelineTerm2),

		GeoTable:      under(outputDir, cfg.Export.GeoTable),
		TimelineTable: under(outputDir, cfg.Export.TimelineTable),
		Manifest:      under(outputDir, cfg.Export.Manifest),
		Workbook:      under(outputDir, cfg.Export.Workbook),
		Report:        under(outputDir, cfg.Export.Report),
	}
	return p, nil
}

// under joins rel onto dir unless rel is already absolute
func under(dir, rel string) string {
	if rel == "" {
		return ""
	}
	if filepath.IsAbs(rel) {
		return filepath.Clean(rel)
	}
	return filepath.Join(dir, rel)
}

// EnsureDirectories creates the output and log directories.
// Input directories are never created; missing inputs are an extraction error.
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.OutputDir, p.LogsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		slog.Default().Debug("Ensured directory exists", slog.String("directory", dir))
	}
	return nil
}

// LogPathResolution logs the resolved paths for debugging
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("Path resolution summary",
		slog.Group("directories",
			slog.String("base", p.BaseDir),
			slog.String("data", p.DataDir),
			slog.String("output", p.OutputDir),
			slog.String("logs", p.LogsDir),
		),
		slog.Group("inputs",
			slog.String("results_html", p.ResultsHTML),
			slog.Bool("results_html_exists", FileExists(p.ResultsHTML)),
			slog.String("short_to_long", p.ShortToLong),
			slog.String("long_to_abbrev", p.LongToAbbrev),
		),
		slog.Group("outputs",
			slog.String("geo_table", p.GeoTable),
			slog.String("timeline_table", p.TimelineTable),
			slog.String("manifest", p.Manifest),
		))
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
