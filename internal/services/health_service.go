package services

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/AleksandrZin/google-election/pkg/contracts"
)

// TablesState is the part of DataService the readiness check looks at
type TablesState interface {
	Snapshot() (*Snapshot, error)
}

// HealthService answers the liveness, readiness and version endpoints of the
// web server. Readiness follows the fused tables: the API is only useful once
// a snapshot is loaded.
type HealthService struct {
	version   string
	buildTime string
	data      TablesState
	started   time.Time
	logger    *slog.Logger
}

// HealthStatus is the body of every health endpoint
type HealthStatus struct {
	Status    string         `json:"status"`
	Timestamp time.Time      `json:"timestamp"`
	Version   string         `json:"version"`
	Runtime   *RuntimeStatus `json:"runtime,omitempty"`
	Tables    *TablesStatus  `json:"tables,omitempty"`
}

// RuntimeStatus is reported by the liveness check
type RuntimeStatus struct {
	UptimeSeconds float64 `json:"uptime_seconds"`
	GoVersion     string  `json:"go_version"`
	Goroutines    int     `json:"goroutines"`
}

// TablesStatus describes the snapshot the API is serving
type TablesStatus struct {
	Ready          bool       `json:"ready"`
	Message        string     `json:"message,omitempty"`
	Regions        int        `json:"regions,omitempty"`
	TimelinePoints int        `json:"timeline_points,omitempty"`
	ETag           string     `json:"etag,omitempty"`
	LoadedAt       *time.Time `json:"loaded_at,omitempty"`
}

// VersionStatus is the body of GET /api/version
type VersionStatus struct {
	contracts.VersionInfo
	StartedAt     time.Time `json:"started_at"`
	UptimeSeconds float64   `json:"uptime_seconds"`
}

// NewHealthService creates a health service. data may be nil, in which case
// the server never becomes ready.
func NewHealthService(version, buildTime string, data TablesState, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		version:   version,
		buildTime: buildTime,
		data:      data,
		started:   time.Now(),
		logger:    logger.With(slog.String("component", "health_service")),
	}
}

// HealthCheck always answers ok while the process serves requests
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	return hs.status("ok")
}

// ReadinessCheck is ready once a table snapshot is loaded
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	tables := hs.tables()
	status := hs.status("ready")
	status.Tables = &tables
	if !tables.Ready {
		status.Status = "not_ready"
		hs.logger.DebugContext(ctx, "not ready", slog.String("reason", tables.Message))
	}
	return status
}

// LivenessCheck reports process uptime and goroutine count
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	status := hs.status("alive")
	status.Runtime = &RuntimeStatus{
		UptimeSeconds: time.Since(hs.started).Seconds(),
		GoVersion:     runtime.Version(),
		Goroutines:    runtime.NumGoroutine(),
	}
	return status
}

// Version describes the build with the service's own version and build time
func (hs *HealthService) Version() VersionStatus {
	info := contracts.Info()
	info.Version = hs.version
	if hs.buildTime != "" {
		info.BuildTime = hs.buildTime
	}
	return VersionStatus{
		VersionInfo:   info,
		StartedAt:     hs.started,
		UptimeSeconds: time.Since(hs.started).Seconds(),
	}
}

func (hs *HealthService) status(s string) HealthStatus {
	return HealthStatus{Status: s, Timestamp: time.Now(), Version: hs.version}
}

func (hs *HealthService) tables() TablesStatus {
	if hs.data == nil {
		return TablesStatus{Message: "data service not configured"}
	}
	snap, err := hs.data.Snapshot()
	if err != nil {
		return TablesStatus{Message: err.Error()}
	}
	return TablesStatus{
		Ready:          true,
		Regions:        len(snap.Tables.Geo),
		TimelinePoints: len(snap.Tables.Timeline),
		ETag:           snap.ETag,
		LoadedAt:       &snap.LoadedAt,
	}
}
