// Package config provides centralized configuration management for the
// election trends pipeline and web service. It loads configuration from
// layered sources, validates it, and resolves every file path a run touches.
//
// # Configuration Sources
//
// Configuration is layered in the following order, later sources winning:
//
//  1. Default values (Default)
//  2. A YAML file (ELECTION_CONFIG, or config.yaml / configs/config.yaml)
//  3. Environment variables
//
// # Environment Variables
//
// Environment variables are namespaced with the ELECTION prefix and follow the
// nesting of the Config struct:
//
//	ELECTION_SERVER_PORT=8080
//	ELECTION_LOGGING_LEVEL=debug
//	ELECTION_PATHS_DATA_DIR=/srv/election/data
//	ELECTION_SOURCES_RESULTS_URL=https://...
//	ELECTION_EXPORT_SHEETS_ENABLED=true
//
// # Path Management
//
// ResolvePaths converts the relative locations in Config into absolute paths.
// Sources resolve under the data directory, exports under the output
// directory, and both of those under BaseDir (the working directory when
// unset):
//
//	paths, err := config.ResolvePaths(cfg)
//	extractor.Extract(ctx, paths.ResultsHTML)
//
// # Validation
//
// Struct tags are checked with go-playground/validator at load time, so a
// bad port, an unknown log level, or an enabled spreadsheet export without a
// spreadsheet id fails before any work starts.
package config
