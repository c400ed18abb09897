package contracts

import (
	"fmt"
	"runtime"
)

const (
	// Version of the scraper, pipeline and web binaries
	Version = "0.3.0"

	// DataFormatVersion is the layout of geo.csv and timeline.csv
	DataFormatVersion = "v1"

	// APIVersion is the dashboard read API version
	APIVersion = "v1"
)

// Set with -ldflags "-X" by build.go.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// VersionInfo identifies a build and the data and API formats it speaks
type VersionInfo struct {
	Version    string `json:"version"`
	BuildTime  string `json:"build_time"`
	GitCommit  string `json:"git_commit"`
	GoVersion  string `json:"go_version"`
	Platform   string `json:"platform"`
	DataFormat string `json:"data_format"`
	APIVersion string `json:"api_version"`
}

// Info describes the running binary
func Info() VersionInfo {
	return VersionInfo{
		Version:    Version,
		BuildTime:  BuildTime,
		GitCommit:  GitCommit,
		GoVersion:  runtime.Version(),
		Platform:   runtime.GOOS + "/" + runtime.GOARCH,
		DataFormat: DataFormatVersion,
		APIVersion: APIVersion,
	}
}

func (v VersionInfo) String() string {
	return fmt.Sprintf("election-trends v%s (commit %s, built %s, %s, %s, tables %s)",
		v.Version, v.GitCommit, v.BuildTime, v.GoVersion, v.Platform, v.DataFormat)
}
