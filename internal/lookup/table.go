// Package lookup resolves region identifiers across sources. A Table is an
// immutable snapshot of the two lookup files, built once per run and shared
// read-only by every consumer.
package lookup

import (
	"encoding/json"
	"fmt"
	"os"

	apierrors "github.com/AleksandrZin/google-election/internal/errors"
	"github.com/AleksandrZin/google-election/pkg/contracts/domain"
)

// Table maps short region labels to long names and long names to abbreviations.
// Matching is exact: no case folding, no trimming, no fuzzy matching.
type Table struct {
	shortToLong  map[string]string
	longToAbbrev map[string]string
}

// New builds a Table from copies of the given maps
func New(shortToLong, longToAbbrev map[string]string) *Table {
	return &Table{
		shortToLong:  clone(shortToLong),
		longToAbbrev: clone(longToAbbrev),
	}
}

// Load reads both lookup tables from JSON object files
func Load(shortToLongPath, longToAbbrevPath string) (*Table, error) {
	shortToLong, err := readMapping(shortToLongPath)
	if err != nil {
		return nil, err
	}
	longToAbbrev, err := readMapping(longToAbbrevPath)
	if err != nil {
		return nil, err
	}
	return &Table{shortToLong: shortToLong, longToAbbrev: longToAbbrev}, nil
}

func readMapping(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &apierrors.ExtractionError{Source: path, Reason: "read lookup table", Cause: err}
	}

	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, &apierrors.ExtractionError{Source: path, Reason: "decode lookup table", Cause: err}
	}
	if len(m) == 0 {
		return nil, &apierrors.ExtractionError{Source: path, Reason: "lookup table is empty"}
	}
	return m, nil
}

// Normalize resolves a raw region label to its long name and abbreviation
func (t *Table) Normalize(raw string) (string, string, error) {
	long, ok := t.shortToLong[raw]
	if !ok {
		return "", "", &apierrors.LookupError{Kind: apierrors.UnknownRegionShortForm, Key: raw}
	}
	abbrev, ok := t.longToAbbrev[long]
	if !ok {
		return "", "", &apierrors.LookupError{Kind: apierrors.UnknownRegionLongForm, Key: long}
	}
	return long, abbrev, nil
}

// NormalizeRows resolves every extracted row, failing on the first unknown key
func (t *Table) NormalizeRows(rows []domain.RawResultRow) ([]domain.ElectionRow, error) {
	out := make([]domain.ElectionRow, 0, len(rows))
	for i, row := range rows {
		long, abbrev, err := t.Normalize(row.Region)
		if err != nil {
			return nil, fmt.Errorf("normalize row %d: %w", i+1, err)
		}
		out = append(out, domain.ElectionRow{
			Name:         long,
			Abbreviation: abbrev,
			ShareA:       row.ShareA,
			ShareB:       row.ShareB,
		})
	}
	return out, nil
}

// Len returns the sizes of the short-to-long and long-to-abbreviation tables
func (t *Table) Len() (int, int) {
	return len(t.shortToLong), len(t.longToAbbrev)
}

func clone(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
