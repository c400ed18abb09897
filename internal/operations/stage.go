package operations

import (
	"context"
	"sync"
	"time"
)

// Step is one stage of a pipeline run. Steps share data through RunState.
type Step interface {
	ID() string
	Name() string
	Execute(ctx context.Context, state *RunState) error
}

// StepStatus is where a step is in its lifecycle
type StepStatus string

const (
	StepStatusPending   StepStatus = "pending"
	StepStatusActive    StepStatus = "active"
	StepStatusCompleted StepStatus = "completed"
	StepStatusFailed    StepStatus = "failed"
	StepStatusSkipped   StepStatus = "skipped"
)

// StepState tracks one step during a run. The manager writes it, while
// readers take a StepSnapshot.
type StepState struct {
	ID   string
	Name string

	mu      sync.RWMutex
	status  StepStatus
	started time.Time
	ended   time.Time
	message string
	err     error
}

func NewStepState(id, name string) *StepState {
	return &StepState{ID: id, Name: name, status: StepStatusPending}
}

func (s *StepState) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = StepStatusActive
	s.started = time.Now()
}

func (s *StepState) Complete(message string) { s.finish(StepStatusCompleted, message, nil) }

func (s *StepState) Fail(err error) { s.finish(StepStatusFailed, "", err) }

// Skip records why a step never ran
func (s *StepState) Skip(reason string) { s.finish(StepStatusSkipped, reason, nil) }

func (s *StepState) finish(status StepStatus, message string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
	s.ended = time.Now()
	s.message = message
	s.err = err
}

// Status returns the current status
func (s *StepState) Status() StepStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Duration is the time spent running, zero for a step that never started
func (s *StepState) Duration() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.duration()
}

func (s *StepState) duration() time.Duration {
	switch {
	case s.started.IsZero():
		return 0
	case s.ended.IsZero():
		return time.Since(s.started)
	default:
		return s.ended.Sub(s.started)
	}
}

// Snapshot returns a copy safe to hand out
func (s *StepState) Snapshot() StepSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := StepSnapshot{
		ID:       s.ID,
		Name:     s.Name,
		Status:   s.status,
		Duration: s.duration().String(),
		Message:  s.message,
	}
	if s.err != nil {
		snap.Error = s.err.Error()
	}
	return snap
}

// BaseStep supplies ID and Name to the concrete steps
type BaseStep struct {
	id   string
	name string
}

func NewBaseStep(id, name string) BaseStep {
	return BaseStep{id: id, name: name}
}

func (b *BaseStep) ID() string   { return b.id }
func (b *BaseStep) Name() string { return b.name }
