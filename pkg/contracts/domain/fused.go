package domain

// Column names a numeric column of the geographic table
type Column string

const (
	ColumnPartyAShare Column = "party_a_share"
	ColumnPartyBShare Column = "party_b_share"
	ColumnInterest1   Column = "interest_1"
	ColumnInterest2   Column = "interest_2"
)

// MapColumns lists the columns a choropleth may be drawn for
func MapColumns() []Column {
	return []Column{ColumnPartyAShare, ColumnPartyBShare, ColumnInterest1, ColumnInterest2}
}

// ParseColumn validates a map column name
func ParseColumn(s string) (Column, bool) {
	for _, c := range MapColumns() {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// GeoHeader is the exact column layout of the persisted geographic table
var GeoHeader = []string{
	"abbreviation", "name",
	string(ColumnPartyAShare), string(ColumnPartyBShare),
	string(ColumnInterest1), string(ColumnInterest2),
	"winner",
}

// TimelineHeader is the exact column layout of the persisted timeline table
var TimelineHeader = []string{"date", "term_id", "interest"}

// RegionRecord is one row of the fused geographic table
type RegionRecord struct {
	Abbreviation string   `json:"abbreviation"`
	Name         string   `json:"name"`
	PartyAShare  float64  `json:"party_a_share"`
	PartyBShare  float64  `json:"party_b_share"`
	Interest1    *float64 `json:"interest_1"`
	Interest2    *float64 `json:"interest_2"`
	Winner       Party    `json:"winner"`
}

// Interest returns the record's interest for a term, nil when not covered
func (r RegionRecord) Interest(term TermID) *float64 {
	switch term {
	case Term1:
		return r.Interest1
	case Term2:
		return r.Interest2
	}
	return nil
}

// Share returns the vote share of a party
func (r RegionRecord) Share(p Party) float64 {
	if p == PartyB {
		return r.PartyBShare
	}
	return r.PartyAShare
}

// Value returns a numeric column of the record. Shares are never nil.
func (r RegionRecord) Value(c Column) *float64 {
	switch c {
	case ColumnPartyAShare:
		v := r.PartyAShare
		return &v
	case ColumnPartyBShare:
		v := r.PartyBShare
		return &v
	case ColumnInterest1:
		return r.Interest1
	case ColumnInterest2:
		return r.Interest2
	}
	return nil
}

// TimePoint is one row of the tidy timeline table
type TimePoint struct {
	Date     string   `json:"date"`
	Term     TermID   `json:"term_id"`
	Interest *float64 `json:"interest"`
}

// FusedTables holds both outputs of a pipeline run. Values are not mutated
// once built; consumers share them read-only.
type FusedTables struct {
	Geo      []RegionRecord `json:"geo"`
	Timeline []TimePoint    `json:"timeline"`
}

// Float returns a pointer to v, for building nullable values
func Float(v float64) *float64 {
	return &v
}

// CoverageGap lists the keys of one left join that found no right-hand row.
// A gap is data, not an error: the affected values are null.
type CoverageGap struct {
	Join string   `json:"join"`
	Keys []string `json:"keys"`
}

// Count returns the number of unmatched keys
func (g CoverageGap) Count() int {
	return len(g.Keys)
}
