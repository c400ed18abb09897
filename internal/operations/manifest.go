package operations

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/AleksandrZin/google-election/internal/exporter"
)

// OutputFile describes one file written by a run
type OutputFile struct {
	Kind   string `json:"kind"`
	Path   string `json:"path"`
	Bytes  int64  `json:"bytes"`
	Digest string `json:"blake2b_256"`
}

// RowCounts records the size of every intermediate result
type RowCounts struct {
	ResultRows    int `json:"result_rows"`
	GeoTerm1      int `json:"geo_term_1"`
	GeoTerm2      int `json:"geo_term_2"`
	TimelineTerm1 int `json:"timeline_term_1"`
	TimelineTerm2 int `json:"timeline_term_2"`
	GeoTable      int `json:"geo_table"`
	TimelineTable int `json:"timeline_table"`
}

// RunManifest is the last file written by a successful run. Readers can
// trust the other outputs once the manifest names them with their digests.
type RunManifest struct {
	RunID        string         `json:"run_id"`
	StartTime    time.Time      `json:"start_time"`
	EndTime      time.Time      `json:"end_time"`
	Rows         RowCounts      `json:"rows"`
	CoverageGaps map[string]int `json:"coverage_gaps"`
	Comparisons  []string       `json:"comparisons"`
	Skipped      []string       `json:"skipped_comparisons,omitempty"`
	Warnings     []string       `json:"warnings,omitempty"`
	Outputs      []OutputFile   `json:"outputs"`
}

// Output returns the output of the given kind
func (m *RunManifest) Output(kind string) (OutputFile, bool) {
	for _, o := range m.Outputs {
		if o.Kind == kind {
			return o, true
		}
	}
	return OutputFile{}, false
}

// DescribeOutput stats and digests a written file
func DescribeOutput(kind, path string) (OutputFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return OutputFile{}, err
	}
	digest, err := exporter.DigestFile(path)
	if err != nil {
		return OutputFile{}, err
	}
	return OutputFile{Kind: kind, Path: path, Bytes: info.Size(), Digest: digest}, nil
}

// WriteManifest writes m as indented JSON, atomically
func WriteManifest(path string, m *RunManifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	return exporter.WriteFileAtomic(path, append(data, '\n'))
}

// ReadManifest loads a manifest written by WriteManifest
func ReadManifest(path string) (*RunManifest, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	var m RunManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to decode manifest %s: %w", path, err)
	}
	return &m, nil
}
