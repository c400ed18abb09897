// Package validation checks the raw inputs and the output directory of a
// pipeline run before any step touches them.
package validation

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/AleksandrZin/google-election/internal/config"
)

// Source is one raw input of a run
type Source struct {
	Name string
	Path string
	Ext  []string
}

// SourceValidator validates the files a run reads and the directory it writes
type SourceValidator struct {
	logger *slog.Logger
}

// NewSourceValidator creates a new source validator
func NewSourceValidator(logger *slog.Logger) *SourceValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &SourceValidator{
		logger: logger.With(slog.String("component", "source_validator")),
	}
}

// Sources lists the raw inputs resolved in paths. The results page is left
// out when it will be fetched.
func Sources(paths *config.Paths, fetch bool) []Source {
	sources := make([]Source, 0, 7)
	if !fetch {
		sources = append(sources, Source{Name: "results page", Path: paths.ResultsHTML, Ext: []string{".html", ".htm"}})
	}
	return append(sources,
		Source{Name: "short to long lookup", Path: paths.ShortToLong, Ext: []string{".json"}},
		Source{Name: "long to abbreviation lookup", Path: paths.LongToAbbrev, Ext: []string{".json"}},
		Source{Name: "geo term 1", Path: paths.GeoTerm1, Ext: []string{".csv"}},
		Source{Name: "geo term 2", Path: paths.GeoTerm2, Ext: []string{".csv"}},
		Source{Name: "timeline term 1", Path: paths.TimelineTerm1, Ext: []string{".csv"}},
		Source{Name: "timeline term 2", Path: paths.TimelineTerm2, Ext: []string{".csv"}},
	)
}

// ValidateSources checks every source and the output directory and reports
// all problems at once.
func (v *SourceValidator) ValidateSources(paths *config.Paths, fetch bool) error {
	var errs []error
	for _, s := range Sources(paths, fetch) {
		if err := v.ValidateFile(s); err != nil {
			errs = append(errs, err)
		}
	}
	if err := v.ValidateOutputDirectory(paths.OutputDir); err != nil {
		errs = append(errs, err)
	}

	if err := errors.Join(errs...); err != nil {
		v.logger.Error("Source validation failed", slog.Int("problems", len(errs)))
		return err
	}
	v.logger.Info("Sources validated", slog.String("data_dir", paths.DataDir))
	return nil
}

// ValidateFile checks that a source exists, is a non-empty readable file and
// carries one of the expected extensions.
func (v *SourceValidator) ValidateFile(s Source) error {
	if s.Path == "" {
		return fmt.Errorf("%s: no path configured", s.Name)
	}

	info, err := os.Stat(s.Path)
	if os.IsNotExist(err) {
		v.logger.Error("Source does not exist",
			slog.String("source", s.Name),
			slog.String("file", s.Path))
		return fmt.Errorf("%s: file %s does not exist", s.Name, s.Path)
	}
	if err != nil {
		return fmt.Errorf("%s: failed to stat %s: %w", s.Name, s.Path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s: %s is a directory, not a file", s.Name, s.Path)
	}
	if info.Size() == 0 {
		return fmt.Errorf("%s: %s is empty", s.Name, s.Path)
	}

	if len(s.Ext) > 0 {
		ext := strings.ToLower(filepath.Ext(s.Path))
		ok := false
		for _, want := range s.Ext {
			if ext == want {
				ok = true
				break
			}
		}
		if !ok {
			return fmt.Errorf("%s: %s has extension %q, expected %s", s.Name, s.Path, ext, strings.Join(s.Ext, " or "))
		}
	}

	file, err := os.Open(s.Path)
	if err != nil {
		return fmt.Errorf("%s: %s is not readable: %w", s.Name, s.Path, err)
	}
	file.Close()

	v.logger.Debug("Source validated",
		slog.String("source", s.Name),
		slog.String("file", s.Path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateOutputDirectory ensures the output directory exists and is writable
func (v *SourceValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".write_test-*")
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	tmp.Close()
	os.Remove(tmp.Name())
	return nil
}
