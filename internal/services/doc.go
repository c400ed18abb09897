// Package services implements the read side of the application: the dashboard
// operations over the persisted fused tables and the health checks.
//
// # Snapshots
//
// DataService loads the geo and timeline tables written by the pipeline into
// an immutable Snapshot. Handlers read the current snapshot without locking;
// Reload builds a new one and swaps it in atomically, so a request never sees
// half of one run and half of another. A failed reload keeps serving the
// previous snapshot.
//
// # Operations
//
//   - LoadTables: both tables plus an ETag derived from the file digests
//   - MapData: one column per region with its colour scale and value range
//   - ScatterData: share against interest per region, plus box plot groups
//   - Compare: pooled t-test of interest between the two winner groups
//
// # Errors
//
// Unknown columns, terms and parties wrap ErrUnknownColumn, ErrUnknownTerm and
// ErrUnknownParty. Reads before the first successful Reload return
// ErrTablesNotLoaded. Comparisons that cannot be computed return the
// InsufficientDataError from the stats package unchanged.
package services
