package exporter

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	apierrors "github.com/AleksandrZin/google-election/internal/errors"
	"github.com/AleksandrZin/google-election/pkg/contracts/domain"
)

// TableStore persists the fused tables as flat CSV files with a header row
type TableStore struct {
	writer *CSVWriter
	logger *slog.Logger
}

// NewTableStore creates a table store
func NewTableStore(logger *slog.Logger) *TableStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &TableStore{
		writer: NewCSVWriter(logger),
		logger: logger.With(slog.String("component", "table_store")),
	}
}

// GeoRecords renders the geographic table in GeoHeader order
func GeoRecords(geo []domain.RegionRecord) [][]string {
	records := make([][]string, 0, len(geo))
	for _, r := range geo {
		records = append(records, []string{
			r.Abbreviation,
			r.Name,
			formatFloat(r.PartyAShare),
			formatFloat(r.PartyBShare),
			formatNullable(r.Interest1),
			formatNullable(r.Interest2),
			string(r.Winner),
		})
	}
	return records
}

// TimelineRecords renders the timeline table in TimelineHeader order
func TimelineRecords(timeline []domain.TimePoint) [][]string {
	records := make([][]string, 0, len(timeline))
	for _, p := range timeline {
		records = append(records, []string{p.Date, string(p.Term), formatNullable(p.Interest)})
	}
	return records
}

// TableDigests are the BLAKE2b-256 digests of the exact bytes a load parsed
type TableDigests struct {
	Geo      string
	Timeline string
}

// Combined folds both digests into one tag that changes when either table does
func (d TableDigests) Combined() string {
	return DigestBytes([]byte(d.Geo + d.Timeline))
}

// Save writes both tables. Both files are staged first; neither target is
// touched unless both staged writes succeed. The two renames are separate
// commits: if the timeline rename fails after the geo rename, the geo file
// is from this run and the timeline file from the previous one. The error
// names the timeline path and the run fails, so no manifest vouches for the
// mixed pair.
func (s *TableStore) Save(ctx context.Context, tables domain.FusedTables, geoPath, timelinePath string) error {
	geo, err := s.writer.StageCSV(geoPath, WriteOptions{Headers: domain.GeoHeader, Records: GeoRecords(tables.Geo)})
	if err != nil {
		return apierrors.NewPersistenceError("save", geoPath, err)
	}
	defer geo.Discard()

	timeline, err := s.writer.StageCSV(timelinePath, WriteOptions{Headers: domain.TimelineHeader, Records: TimelineRecords(tables.Timeline)})
	if err != nil {
		return apierrors.NewPersistenceError("save", timelinePath, err)
	}
	defer timeline.Discard()

	if err := ctx.Err(); err != nil {
		return err
	}

	if err := geo.Commit(); err != nil {
		return apierrors.NewPersistenceError("save", geoPath, err)
	}
	if err := timeline.Commit(); err != nil {
		s.logger.ErrorContext(ctx, "Timeline commit failed after geo commit, tables are from different runs",
			slog.String("geo_path", geoPath),
			slog.String("timeline_path", timelinePath),
			slog.String("error", err.Error()))
		return apierrors.NewPersistenceError("save", timelinePath, err)
	}

	s.logger.InfoContext(ctx, "Saved fused tables",
		slog.String("geo_path", geoPath),
		slog.Int("geo_rows", len(tables.Geo)),
		slog.String("timeline_path", timelinePath),
		slog.Int("timeline_rows", len(tables.Timeline)))
	return nil
}

// Load reads both tables back. The files must carry the exact header layout
// written by Save.
func (s *TableStore) Load(ctx context.Context, geoPath, timelinePath string) (domain.FusedTables, error) {
	tables, _, err := s.LoadWithDigests(ctx, geoPath, timelinePath)
	return tables, err
}

// LoadWithDigests is Load that also digests the bytes it parsed. Each file is
// read once, so the digests always describe the returned tables even when a
// writer replaces the files concurrently.
func (s *TableStore) LoadWithDigests(ctx context.Context, geoPath, timelinePath string) (domain.FusedTables, TableDigests, error) {
	var (
		tables  domain.FusedTables
		digests TableDigests
	)

	geoData, err := os.ReadFile(geoPath)
	if err != nil {
		return tables, digests, apierrors.NewPersistenceError("load", geoPath, err)
	}
	geoRows, err := readTable(geoData, domain.GeoHeader)
	if err != nil {
		return tables, digests, apierrors.NewPersistenceError("load", geoPath, err)
	}
	if tables.Geo, err = parseGeo(geoRows); err != nil {
		return tables, digests, apierrors.NewPersistenceError("load", geoPath, err)
	}

	timelineData, err := os.ReadFile(timelinePath)
	if err != nil {
		return tables, digests, apierrors.NewPersistenceError("load", timelinePath, err)
	}
	timelineRows, err := readTable(timelineData, domain.TimelineHeader)
	if err != nil {
		return tables, digests, apierrors.NewPersistenceError("load", timelinePath, err)
	}
	if tables.Timeline, err = parseTimeline(timelineRows); err != nil {
		return tables, digests, apierrors.NewPersistenceError("load", timelinePath, err)
	}

	digests = TableDigests{Geo: DigestBytes(geoData), Timeline: DigestBytes(timelineData)}

	s.logger.InfoContext(ctx, "Loaded fused tables",
		slog.Int("geo_rows", len(tables.Geo)),
		slog.Int("timeline_rows", len(tables.Timeline)))
	return tables, digests, nil
}

// readTable parses CSV data, checks its header and returns the body records
func readTable(data []byte, header []string) ([][]string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = len(header)

	got, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("missing header row")
	}
	if err != nil {
		return nil, err
	}
	if !slices.Equal(got, header) {
		return nil, fmt.Errorf("unexpected header %v, want %v", got, header)
	}

	return cr.ReadAll()
}

func parseGeo(rows [][]string) ([]domain.RegionRecord, error) {
	geo := make([]domain.RegionRecord, 0, len(rows))
	for i, row := range rows {
		line := i + 2
		rec := domain.RegionRecord{
			Abbreviation: row[0],
			Name:         row[1],
			Winner:       domain.Party(row[6]),
		}

		var err error
		if rec.PartyAShare, err = parseFloat(row[2]); err != nil {
			return nil, fmt.Errorf("line %d party_a_share: %w", line, err)
		}
		if rec.PartyBShare, err = parseFloat(row[3]); err != nil {
			return nil, fmt.Errorf("line %d party_b_share: %w", line, err)
		}
		if rec.Interest1, err = parseNullable(row[4]); err != nil {
			return nil, fmt.Errorf("line %d interest_1: %w", line, err)
		}
		if rec.Interest2, err = parseNullable(row[5]); err != nil {
			return nil, fmt.Errorf("line %d interest_2: %w", line, err)
		}
		if !rec.Winner.Valid() {
			return nil, fmt.Errorf("line %d: unknown winner %q", line, row[6])
		}
		geo = append(geo, rec)
	}
	return geo, nil
}

func parseTimeline(rows [][]string) ([]domain.TimePoint, error) {
	timeline := make([]domain.TimePoint, 0, len(rows))
	for i, row := range rows {
		line := i + 2
		term := domain.TermID(row[1])
		if !term.Valid() {
			return nil, fmt.Errorf("line %d: unknown term %q", line, row[1])
		}
		interest, err := parseNullable(row[2])
		if err != nil {
			return nil, fmt.Errorf("line %d interest: %w", line, err)
		}
		timeline = append(timeline, domain.TimePoint{Date: row[0], Term: term, Interest: interest})
	}
	return timeline, nil
}
