package operations

import (
	"sync"
	"time"

	"github.com/AleksandrZin/google-election/internal/dataprocessing"
	"github.com/AleksandrZin/google-election/internal/lookup"
	"github.com/AleksandrZin/google-election/pkg/contracts/domain"
)

// RunStatus represents the overall run status
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)

// RunState carries the intermediate results of a run from step to step.
// Steps execute sequentially; the mutex guards the bookkeeping fields that
// concurrent readers (logging, status queries) may touch.
type RunState struct {
	mu sync.RWMutex

	ID        string
	Status    RunStatus
	StartTime time.Time
	EndTime   *time.Time
	Error     error

	steps map[string]*StepState
	order []string

	// Data handed between steps
	RawRows     []domain.RawResultRow
	Lookup      *lookup.Table
	Election    []domain.ElectionRow
	Trends      dataprocessing.FusionInput
	Fusion      dataprocessing.FusionResult
	Comparisons []domain.Comparison
	Skipped     []string
	Outputs     []OutputFile
	Manifest    *RunManifest

	warnings []string
}

// NewRunState creates a new run state
func NewRunState(id string) *RunState {
	return &RunState{
		ID:        id,
		Status:    RunStatusPending,
		StartTime: time.Now(),
		steps:     make(map[string]*StepState),
	}
}

// Start marks the run as running
func (s *RunState) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Status = RunStatusRunning
	s.StartTime = time.Now()
}

// Complete marks the run as completed
func (s *RunState) Complete() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.EndTime = &now
	s.Status = RunStatusCompleted
}

// Fail marks the run as failed
func (s *RunState) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.EndTime = &now
	s.Status = RunStatusFailed
	s.Error = err
}

// Cancel marks the run as cancelled
func (s *RunState) Cancel(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.EndTime = &now
	s.Status = RunStatusCancelled
	s.Error = err
}

// AddStep registers the state of a step, keeping insertion order
func (s *RunState) AddStep(state *StepState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.steps[state.ID]; !ok {
		s.order = append(s.order, state.ID)
	}
	s.steps[state.ID] = state
}

// GetStep returns the state of a specific step
func (s *RunState) GetStep(id string) *StepState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.steps[id]
}

// StepSnapshots returns the step states in execution order
func (s *RunState) StepSnapshots() []StepSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]StepSnapshot, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.steps[id].Snapshot())
	}
	return out
}

// Warn records a non-fatal problem of the run
func (s *RunState) Warn(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.warnings = append(s.warnings, msg)
}

// Warnings returns the recorded non-fatal problems
func (s *RunState) Warnings() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.warnings...)
}

// AddOutput records a file written by the run
func (s *RunState) AddOutput(out OutputFile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Outputs = append(s.Outputs, out)
}

// Duration returns the duration of the run
func (s *RunState) Duration() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.EndTime != nil {
		return s.EndTime.Sub(s.StartTime)
	}
	return time.Since(s.StartTime)
}

// Result builds the summary of the run
func (s *RunState) Result() *RunResult {
	d := s.Duration()
	steps := s.StepSnapshots()
	warnings := s.Warnings()

	s.mu.RLock()
	defer s.mu.RUnlock()

	res := &RunResult{
		ID:          s.ID,
		Status:      s.Status,
		StartTime:   s.StartTime,
		Duration:    d.String(),
		Steps:       steps,
		Tables:      s.Fusion.Tables,
		Gaps:        s.Fusion.Gaps,
		Comparisons: s.Comparisons,
		Skipped:     s.Skipped,
		Warnings:    warnings,
		Manifest:    s.Manifest,
	}
	if s.EndTime != nil {
		res.EndTime = *s.EndTime
	}
	if s.Error != nil {
		res.Error = s.Error.Error()
	}
	return res
}
