// Package dataprocessing turns raw sources into the fused analysis tables.
//
// # Components
//
//  1. TableExtractor: lifts (region, share A, share B) rows out of the result
//     tables of an HTML page.
//  2. TrendLoader: reads two-column search-interest exports after skipping
//     their header boilerplate.
//  3. FusionEngine: left-joins normalized election rows with the geo exports
//     and reshapes the timeline exports into tidy (date, term, interest) rows.
//
// # Failure policy
//
// Structurally malformed input (an unparseable share, a body line without
// exactly two columns) is an ExtractionError and aborts the run. A region or
// date missing from one source is not an error: the value is null and the
// gap is logged at WARN and counted in join_coverage_gaps_total.
//
// # Usage
//
//	rows, err := dataprocessing.NewTableExtractor("results-table", logger).ExtractFile(ctx, path)
//	election, err := lookupTable.NormalizeRows(rows)
//	result := dataprocessing.NewFusionEngine(logger, metrics).Fuse(ctx, input)
package dataprocessing
