package errors

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractionError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *ExtractionError
		want string
	}{
		{"whole source", &ExtractionError{Source: "results.html", Reason: "no result rows"}, "[EXTRACTION] results.html: no result rows"},
		{"row", &ExtractionError{Source: "GT_map_can.csv", Row: 7, Reason: "expected 2 fields"}, "[EXTRACTION] GT_map_can.csv row 7: expected 2 fields"},
		{"cell", &ExtractionError{Source: "results.html", Row: 3, Column: 2, Value: "n/a", Reason: "not a percentage"}, `[EXTRACTION] results.html row 3 col 2: not a percentage ("n/a")`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestLookupError_Is(t *testing.T) {
	err := fmt.Errorf("normalize: %w", &LookupError{Kind: UnknownRegionLongForm, Key: "Puerto Rico"})

	assert.ErrorIs(t, err, &LookupError{Kind: UnknownRegionLongForm})
	assert.ErrorIs(t, err, &LookupError{Kind: UnknownRegionLongForm, Key: "Puerto Rico"})
	assert.NotErrorIs(t, err, &LookupError{Kind: UnknownRegionShortForm})
	assert.NotErrorIs(t, err, &LookupError{Kind: UnknownRegionLongForm, Key: "Guam"})
}

func TestPersistenceError(t *testing.T) {
	err := NewPersistenceError("save", "/out/geo_table.csv", fs.ErrPermission)

	assert.Equal(t, "[PERSISTENCE] save /out/geo_table.csv: permission denied", err.Error())
	assert.True(t, errors.Is(err, fs.ErrPermission))
}

func TestInsufficientDataError_Error(t *testing.T) {
	err := &InsufficientDataError{Term: "interest_2", Group: "Democrat", Count: 1, Reason: "fewer than two samples"}
	assert.Equal(t, "[INSUFFICIENT_DATA] fewer than two samples for interest_2 (group Democrat, 1 samples)", err.Error())
}
