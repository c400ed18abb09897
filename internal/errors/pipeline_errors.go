package errors

import (
	"fmt"

	"github.com/AleksandrZin/google-election/pkg/contracts/domain"
)

// ExtractionError reports a structurally malformed source row: a cell that
// does not parse, or a line with the wrong number of columns. It aborts a run.
type ExtractionError struct {
	Source string
	Row    int // 1-based, 0 when the whole source is at fault
	Column int // 1-based, 0 when the whole row is at fault
	Value  string
	Reason string
	Cause  error
}

func (e *ExtractionError) Error() string {
	loc := e.Source
	if e.Row > 0 {
		loc = fmt.Sprintf("%s row %d", loc, e.Row)
	}
	if e.Column > 0 {
		loc = fmt.Sprintf("%s col %d", loc, e.Column)
	}
	if e.Value != "" {
		return fmt.Sprintf("[%s] %s: %s (%q)", ErrTypeExtraction, loc, e.Reason, e.Value)
	}
	return fmt.Sprintf("[%s] %s: %s", ErrTypeExtraction, loc, e.Reason)
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}

// LookupKind tells which of the two lookup tables missed
type LookupKind string

const (
	UnknownRegionShortForm LookupKind = "UnknownRegionShortForm"
	UnknownRegionLongForm  LookupKind = "UnknownRegionLongForm"
)

// LookupError reports a region key missing from a lookup table. It aborts a run.
type LookupError struct {
	Kind LookupKind
	Key  string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("[%s] %s: %q", ErrTypeLookup, e.Kind, e.Key)
}

// Is matches any LookupError of the same kind, so callers can test against
// &LookupError{Kind: UnknownRegionLongForm} without knowing the key.
func (e *LookupError) Is(target error) bool {
	t, ok := target.(*LookupError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Key == "" || t.Key == e.Key)
}

// InsufficientDataError is returned when a comparison group has no eligible
// samples or no variance.
type InsufficientDataError struct {
	Term   domain.TermID
	Group  domain.Party
	Count  int
	Reason string
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("[%s] %s for %s (group %s, %d samples)",
		ErrTypeInsufficientData, e.Reason, e.Term, e.Group, e.Count)
}

// PersistenceError wraps an I/O failure while saving or loading tables
type PersistenceError struct {
	Op    string // "save" or "load"
	Path  string
	Cause error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("[%s] %s %s: %v", ErrTypePersistence, e.Op, e.Path, e.Cause)
}

func (e *PersistenceError) Unwrap() error {
	return e.Cause
}

// NewPersistenceError creates a persistence error for op on path
func NewPersistenceError(op, path string, cause error) *PersistenceError {
	return &PersistenceError{Op: op, Path: path, Cause: cause}
}
