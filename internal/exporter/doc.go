// Package exporter persists and publishes the fused tables.
//
// TableStore is the persistence layer: both tables are written as CSV with a
// header row, nulls as empty cells, through temp files that are renamed into
// place only after both were written. Load reads them back with the same
// layout.
//
// The other writers are optional outputs of a pipeline run: an .xlsx
// workbook (WorkbookWriter), a markdown report (WriteReport) and a Google
// spreadsheet mirror (SheetsPublisher). DigestFile fingerprints outputs for
// the run manifest.
package exporter
