package exporter

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVWriter writes delimited files through a temp file and a rename, so a
// reader never sees a half-written file.
type CSVWriter struct {
	logger *slog.Logger
}

// NewCSVWriter creates a new CSV writer instance
func NewCSVWriter(logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{logger: logger.With(slog.String("component", "csv_writer"))}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// StagedFile is a fully written temp file waiting to replace its target
type StagedFile struct {
	Path    string
	tmpPath string
}

// Commit atomically moves the staged file onto its target path
func (s *StagedFile) Commit() error {
	if s.tmpPath == "" {
		return fmt.Errorf("staged file %s already committed or discarded", s.Path)
	}
	if err := os.Rename(s.tmpPath, s.Path); err != nil {
		_ = os.Remove(s.tmpPath)
		s.tmpPath = ""
		return fmt.Errorf("failed to rename into place: %w", err)
	}
	s.tmpPath = ""
	return nil
}

// Discard removes the temp file; a no-op after Commit
func (s *StagedFile) Discard() {
	if s.tmpPath != "" {
		_ = os.Remove(s.tmpPath)
		s.tmpPath = ""
	}
}

// WriteCSV writes options to filePath, replacing any previous file
func (w *CSVWriter) WriteCSV(filePath string, options WriteOptions) error {
	staged, err := w.StageCSV(filePath, options)
	if err != nil {
		return err
	}
	return staged.Commit()
}

// StageCSV writes options to a temp file next to filePath without touching
// filePath itself. The caller must Commit or Discard the result.
func (w *CSVWriter) StageCSV(filePath string, options WriteOptions) (*StagedFile, error) {
	w.logger.Debug("Writing CSV file",
		slog.String("file_path", filePath),
		slog.Int("record_count", len(options.Records)))

	return stageFile(filePath, func(f *os.File) error {
		if options.BOMPrefix {
			if _, err := f.Write(utf8BOM); err != nil {
				return fmt.Errorf("failed to write BOM: %w", err)
			}
		}

		writer := csv.NewWriter(f)
		if len(options.Headers) > 0 {
			if err := writer.Write(options.Headers); err != nil {
				return fmt.Errorf("failed to write headers: %w", err)
			}
		}
		for i, record := range options.Records {
			if err := writer.Write(record); err != nil {
				return fmt.Errorf("failed to write record %d: %w", i, err)
			}
		}
		writer.Flush()
		return writer.Error()
	})
}

// stageFile creates a temp file in the target directory, fills it with
// write, syncs and closes it.
func stageFile(filePath string, write func(*os.File) error) (*StagedFile, error) {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(filePath)+".tmp-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	fail := func(err error) (*StagedFile, error) {
		tmp.Close()
		os.Remove(tmpPath)
		return nil, err
	}

	if err := write(tmp); err != nil {
		return fail(err)
	}
	if err := tmp.Sync(); err != nil {
		return fail(fmt.Errorf("failed to sync: %w", err))
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("failed to close: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("failed to chmod: %w", err)
	}

	return &StagedFile{Path: filePath, tmpPath: tmpPath}, nil
}

// WriteFileAtomic replaces filePath with data through a temp file and a rename
func WriteFileAtomic(filePath string, data []byte) error {
	staged, err := stageFile(filePath, func(f *os.File) error {
		_, err := f.Write(data)
		return err
	})
	if err != nil {
		return err
	}
	return staged.Commit()
}
