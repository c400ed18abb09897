// Package app wires the dashboard server together and manages its lifecycle.
//
// New resolves the configured paths, initializes OpenTelemetry, builds the
// data and health services and mounts the read API:
//
//	GET  /api/health, /api/health/ready, /api/health/live
//	GET  /api/version
//	GET  /api/tables, /api/tables/geo, /api/tables/timeline
//	GET  /api/map/{column}
//	GET  /api/scatter?party=&term=
//	GET  /api/compare/{term}
//	POST /api/reload
//	GET  /metrics
//
// Start attempts an initial load of the fused tables. When they are missing
// the server still starts and reports not ready until a reload succeeds.
// Run blocks until SIGINT or SIGTERM and then shuts down gracefully.
package app
