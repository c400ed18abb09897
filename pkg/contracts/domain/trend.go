package domain

import "strings"

// TermID identifies one of the two tracked search terms
type TermID string

const (
	Term1 TermID = "interest_1"
	Term2 TermID = "interest_2"
)

// ElectionDate is the reference marker drawn on timeline charts
const ElectionDate = "2024-11-05"

var termLabels = map[TermID]string{
	Term1: "Can I change my vote?",
	Term2: "Change vote presidential election",
}

// Terms returns both terms in column order
func Terms() []TermID {
	return []TermID{Term1, Term2}
}

// Valid reports whether t is a tracked term
func (t TermID) Valid() bool {
	return t == Term1 || t == Term2
}

// Label returns the human-readable search phrase for the term
func (t TermID) Label() string {
	return termLabels[t]
}

// Column returns the geo table column carrying the term's interest
func (t TermID) Column() Column {
	return Column(t)
}

// ParseTerm accepts "interest_1"/"interest_2" as well as "term_1"/"term_2"
func ParseTerm(s string) (TermID, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case string(Term1), "term_1":
		return Term1, true
	case string(Term2), "term_2":
		return Term2, true
	}
	return "", false
}

// TrendSchema selects how the key column of a trend export is interpreted
type TrendSchema string

const (
	SchemaGeo      TrendSchema = "geo"
	SchemaTimeline TrendSchema = "timeline"
)

// TrendRow is one body line of a trend export. Key is a region label for the
// geo schema and an opaque date string for the timeline schema.
type TrendRow struct {
	Key      string   `json:"key"`
	Interest *float64 `json:"interest"`
}

// TrendSource pairs a trend export file with the term and schema it carries
type TrendSource struct {
	Term   TermID      `json:"term_id" yaml:"term_id"`
	Schema TrendSchema `json:"schema" yaml:"schema"`
	Path   string      `json:"path" yaml:"path"`
}
