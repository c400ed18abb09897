package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/AleksandrZin/google-election/internal/config"
	"github.com/AleksandrZin/google-election/internal/exporter"
	"github.com/AleksandrZin/google-election/internal/stats"
	"github.com/AleksandrZin/google-election/pkg/contracts/domain"
)

// mapRange is the value range of every choropleth; shares and interest are
// both percentages.
var mapRange = [2]float64{0, 100}

// Snapshot is one loaded generation of the fused tables. It is never mutated
// after Reload publishes it.
type Snapshot struct {
	Tables   domain.FusedTables
	ETag     string
	LoadedAt time.Time
}

// DataService answers the dashboard read operations from the persisted tables.
// Readers always see a complete snapshot; Reload swaps it atomically.
type DataService struct {
	store  *exporter.TableStore
	engine *stats.Engine
	paths  *config.Paths
	logger *slog.Logger

	reloadMu sync.Mutex
	current  atomic.Pointer[Snapshot]
}

// NewDataService creates a data service over the tables named by paths.
// Nothing is read until Reload is called.
func NewDataService(paths *config.Paths, engine *stats.Engine, logger *slog.Logger) *DataService {
	if logger == nil {
		logger = slog.Default()
	}
	if engine == nil {
		engine = stats.NewEngine(logger, nil)
	}
	return &DataService{
		store:  exporter.NewTableStore(logger),
		engine: engine,
		paths:  paths,
		logger: logger.With(slog.String("component", "data_service")),
	}
}

// Reload reads the geo and timeline tables from disk and publishes them as the
// new snapshot. On failure the previous snapshot stays in place.
func (ds *DataService) Reload(ctx context.Context) (*Snapshot, error) {
	ds.reloadMu.Lock()
	defer ds.reloadMu.Unlock()

	tables, digests, err := ds.store.LoadWithDigests(ctx, ds.paths.GeoTable, ds.paths.TimelineTable)
	if err != nil {
		ds.logger.ErrorContext(ctx, "Failed to load fused tables",
			slog.String("geo_table", ds.paths.GeoTable),
			slog.String("timeline_table", ds.paths.TimelineTable),
			slog.String("error", err.Error()))
		return nil, err
	}

	etag := ETagOf(digests)
	snap := &Snapshot{Tables: tables, ETag: etag, LoadedAt: time.Now().UTC()}
	ds.current.Store(snap)

	ds.logger.InfoContext(ctx, "Fused tables loaded",
		slog.Int("regions", len(tables.Geo)),
		slog.Int("timeline_points", len(tables.Timeline)),
		slog.String("etag", etag))
	return snap, nil
}

// ETagOf builds the strong entity tag of a snapshot from the digests of the
// bytes it was parsed from
func ETagOf(d exporter.TableDigests) string {
	return `"` + d.Combined()[:32] + `"`
}

// Snapshot returns the current snapshot or ErrTablesNotLoaded
func (ds *DataService) Snapshot() (*Snapshot, error) {
	snap := ds.current.Load()
	if snap == nil {
		return nil, ErrTablesNotLoaded
	}
	return snap, nil
}

// Loaded reports whether a snapshot is available
func (ds *DataService) Loaded() bool {
	return ds.current.Load() != nil
}

// LoadTables returns both fused tables and their ETag
func (ds *DataService) LoadTables(ctx context.Context) (domain.FusedTables, string, error) {
	snap, err := ds.Snapshot()
	if err != nil {
		return domain.FusedTables{}, "", err
	}
	return snap.Tables, snap.ETag, nil
}

// MapData returns the per-region values of one column for a choropleth.
// Regions without a value keep a nil entry so the map can grey them out.
func (ds *DataService) MapData(ctx context.Context, column string) (domain.MapData, error) {
	col, ok := domain.ParseColumn(column)
	if !ok {
		return domain.MapData{}, fmt.Errorf("%w: %q", ErrUnknownColumn, column)
	}
	snap, err := ds.Snapshot()
	if err != nil {
		return domain.MapData{}, err
	}

	points := make([]domain.MapPoint, 0, len(snap.Tables.Geo))
	for _, r := range snap.Tables.Geo {
		points = append(points, domain.MapPoint{
			Abbreviation: r.Abbreviation,
			Name:         r.Name,
			Value:        r.Value(col),
		})
	}

	return domain.MapData{
		Column:     col,
		Label:      ColumnLabel(col),
		ColorScale: domain.ScaleFor(col),
		Range:      mapRange,
		Points:     points,
	}, nil
}

// ScatterData relates a party's vote share to a term's interest per region and
// groups the interest values by winner for the box plot.
func (ds *DataService) ScatterData(ctx context.Context, party, term string) (domain.ScatterData, error) {
	p, ok := domain.ParseParty(party)
	if !ok {
		return domain.ScatterData{}, fmt.Errorf("%w: %q", ErrUnknownParty, party)
	}
	t, ok := domain.ParseTerm(term)
	if !ok {
		return domain.ScatterData{}, fmt.Errorf("%w: %q", ErrUnknownTerm, term)
	}
	snap, err := ds.Snapshot()
	if err != nil {
		return domain.ScatterData{}, err
	}

	geo := snap.Tables.Geo
	points := make([]domain.ScatterPoint, 0, len(geo))
	for _, r := range geo {
		points = append(points, domain.ScatterPoint{
			Abbreviation: r.Abbreviation,
			Name:         r.Name,
			Share:        r.Share(p),
			Interest:     r.Interest(t),
			Winner:       r.Winner,
		})
	}

	a, b := stats.Groups(geo, t)
	return domain.ScatterData{
		Party:     p,
		Term:      t,
		TermLabel: t.Label(),
		Points:    points,
		BoxGroups: []domain.BoxGroup{
			{Winner: domain.PartyA, Values: nonNil(a)},
			{Winner: domain.PartyB, Values: nonNil(b)},
		},
	}, nil
}

// Compare runs the two-sample test for a term over the current snapshot
func (ds *DataService) Compare(ctx context.Context, term string) (domain.Comparison, error) {
	t, ok := domain.ParseTerm(term)
	if !ok {
		return domain.Comparison{}, fmt.Errorf("%w: %q", ErrUnknownTerm, term)
	}
	snap, err := ds.Snapshot()
	if err != nil {
		return domain.Comparison{}, err
	}
	return ds.engine.Compare(ctx, snap.Tables.Geo, t)
}

// ColumnLabel is the legend title of a map column
func ColumnLabel(c domain.Column) string {
	switch c {
	case domain.ColumnPartyAShare:
		return string(domain.PartyA) + " vote share (%)"
	case domain.ColumnPartyBShare:
		return string(domain.PartyB) + " vote share (%)"
	case domain.ColumnInterest1:
		return domain.Term1.Label()
	case domain.ColumnInterest2:
		return domain.Term2.Label()
	}
	return string(c)
}

func nonNil(v []float64) []float64 {
	if v == nil {
		return []float64{}
	}
	return v
}
