package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// ResultsHTML mimics the results page: two result tables, a header row made
// of <th> cells, a footer row with a single cell, and an unrelated table.
const ResultsHTML = `<!doctype html>
<html>
<head><title>Election results</title></head>
<body>
<table class="results-table">
  <thead><tr><th>State</th><th>Democrat</th><th>Republican</th></tr></thead>
  <tbody>
    <tr><td>CA</td><td>58.5%</td><td>38.3%</td></tr>
    <tr><td>TX</td><td>42.5%</td><td>56.1%</td></tr>
    <tr><td>NY</td><td>55.9%</td><td>43.3%</td></tr>
    <tr><td>FL</td><td>43.0%</td><td>56.1%</td></tr>
    <tr><td colspan="3">Results updated hourly</td></tr>
  </tbody>
</table>
<table class="results-table wide">
  <tr><td> PA </td><td>48.6%</td><td>50.4%</td></tr>
  <tr><td>WI</td><td>49.6%</td><td>49.6%</td></tr>
</table>
<table class="sidebar">
  <tr><td>XX</td><td>1%</td><td>2%</td></tr>
</table>
</body>
</html>`

// ShortToLongJSON and LongToAbbrevJSON resolve every region in ResultsHTML
const ShortToLongJSON = `{
  "CA": "California",
  "TX": "Texas",
  "NY": "New York",
  "FL": "Florida",
  "PA": "Pennsylvania",
  "WI": "Wisconsin"
}`

const LongToAbbrevJSON = `{
  "California": "CA",
  "Texas": "TX",
  "New York": "NY",
  "Florida": "FL",
  "Pennsylvania": "PA",
  "Wisconsin": "WI",
  "Ohio": "OH"
}`

// GeoTerm1CSV covers every region but New York (blank) and adds Ohio, which
// has no election row.
const GeoTerm1CSV = `Category: All categories

Region,can i change my vote: (11/1/24 - 11/8/24)
California,45
Texas,100
New York,
Florida,60
Pennsylvania,52
Wisconsin,48
Ohio,70
`

// GeoTerm2CSV leaves New York and Pennsylvania uncovered
const GeoTerm2CSV = `Category: All categories

Region,change vote presidential election: (11/1/24 - 11/8/24)
California,30
Texas,41
Florida,35
Wisconsin,80
`

const TimelineTerm1CSV = `Category: All categories

Day,can i change my vote: (United States)
2024-11-03,10
2024-11-04,25
2024-11-05,100
2024-11-06,64
`

const TimelineTerm2CSV = `Category: All categories

Day,change vote presidential election: (United States)
2024-11-04,12
2024-11-05,<1
2024-11-06,80
2024-11-07,33
`

// SourceFiles holds the paths written by WriteSourceFiles
type SourceFiles struct {
	Dir           string
	ResultsHTML   string
	ShortToLong   string
	LongToAbbrev  string
	GeoTerm1      string
	GeoTerm2      string
	TimelineTerm1 string
	TimelineTerm2 string
}

// WriteSourceFiles lays the fixture sources out under dir using the default
// data directory structure.
func WriteSourceFiles(t *testing.T, dir string) SourceFiles {
	t.Helper()

	files := SourceFiles{
		Dir:           dir,
		ResultsHTML:   filepath.Join(dir, "raw", "results.html"),
		ShortToLong:   filepath.Join(dir, "raw", "state_short2long.json"),
		LongToAbbrev:  filepath.Join(dir, "raw", "state_long2abr.json"),
		GeoTerm1:      filepath.Join(dir, "raw", "GT_map_can.csv"),
		GeoTerm2:      filepath.Join(dir, "raw", "GT_map_president.csv"),
		TimelineTerm1: filepath.Join(dir, "raw", "GT_timeline_can.csv"),
		TimelineTerm2: filepath.Join(dir, "raw", "GT_timeline_president.csv"),
	}

	contents := map[string]string{
		files.ResultsHTML:   ResultsHTML,
		files.ShortToLong:   ShortToLongJSON,
		files.LongToAbbrev:  LongToAbbrevJSON,
		files.GeoTerm1:      GeoTerm1CSV,
		files.GeoTerm2:      GeoTerm2CSV,
		files.TimelineTerm1: TimelineTerm1CSV,
		files.TimelineTerm2: TimelineTerm2CSV,
	}
	for path, body := range contents {
		WriteFile(t, path, body)
	}
	return files
}

// WriteFile writes body to path, creating parent directories
func WriteFile(t *testing.T, path, body string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
