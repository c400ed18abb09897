// Package shared holds helpers used across packages that belong to no single
// layer.
//
// testutil provides a buffered slog handler for asserting on log output and
// fixture sources (a results page, both lookup files and the four trend
// exports) that exercise every join gap the pipeline handles.
package shared
