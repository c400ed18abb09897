// Package api contains the request and response contracts of the dashboard
// read API. Version v1 is the current stable API version.
package api

import (
	"time"

	"github.com/AleksandrZin/google-election/pkg/contracts/domain"
)

// MapRequest selects the column drawn on the choropleth
type MapRequest struct {
	Column string `json:"column" param:"column" validate:"required,column"`
}

// ScatterRequest selects the party and search term of the scatter and box plots
type ScatterRequest struct {
	Party string `json:"party" query:"party" validate:"required,party"`
	Term  string `json:"term" query:"term" validate:"required,term"`
}

// CompareRequest selects the search term of a two-sample comparison
type CompareRequest struct {
	Term string `json:"term" param:"term" validate:"required,term"`
}

// TablesResponse carries both fused tables
type TablesResponse struct {
	ElectionDate string                `json:"election_date"`
	Terms        map[string]string     `json:"terms"`
	Geo          []domain.RegionRecord `json:"geo"`
	Timeline     []domain.TimePoint    `json:"timeline"`
}

// ReloadResponse reports the snapshot published by a reload
type ReloadResponse struct {
	Regions        int       `json:"regions"`
	TimelinePoints int       `json:"timeline_points"`
	ETag           string    `json:"etag"`
	LoadedAt       time.Time `json:"loaded_at"`
}

// NewTablesResponse builds a TablesResponse with the term labels
func NewTablesResponse(tables domain.FusedTables) TablesResponse {
	terms := make(map[string]string, len(domain.Terms()))
	for _, t := range domain.Terms() {
		terms[string(t)] = t.Label()
	}
	return TablesResponse{
		ElectionDate: domain.ElectionDate,
		Terms:        terms,
		Geo:          tables.Geo,
		Timeline:     tables.Timeline,
	}
}
