package operations

import (
	"time"

	"github.com/AleksandrZin/google-election/pkg/contracts/domain"
)

// Step IDs in execution order
const (
	StepIDFetch      = "fetch"
	StepIDExtract    = "extract"
	StepIDNormalize  = "normalize"
	StepIDLoadTrends = "load_trends"
	StepIDFuse       = "fuse"
	StepIDCompare    = "compare"
	StepIDSave       = "save"
	StepIDExport     = "export"
	StepIDManifest   = "manifest"
)

// RunResult summarizes a finished run
type RunResult struct {
	ID          string               `json:"id"`
	Status      RunStatus            `json:"status"`
	StartTime   time.Time            `json:"start_time"`
	EndTime     time.Time            `json:"end_time"`
	Duration    string               `json:"duration"`
	Steps       []StepSnapshot       `json:"steps"`
	Tables      domain.FusedTables   `json:"-"`
	Gaps        []domain.CoverageGap `json:"gaps"`
	Comparisons []domain.Comparison  `json:"comparisons"`
	Skipped     []string             `json:"skipped_comparisons,omitempty"`
	Warnings    []string             `json:"warnings,omitempty"`
	Manifest    *RunManifest         `json:"manifest,omitempty"`
	Error       string               `json:"error,omitempty"`
}

// StepSnapshot is a read-only copy of a step's state
type StepSnapshot struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Status   StepStatus `json:"status"`
	Duration string     `json:"duration"`
	Message  string     `json:"message,omitempty"`
	Error    string     `json:"error,omitempty"`
}
